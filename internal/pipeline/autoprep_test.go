package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"craftyprep/internal/models"
	"craftyprep/internal/processing/chain"
	"craftyprep/internal/processing/filters"
	"craftyprep/internal/raster"
)

type panickingStep struct{}

func (panickingStep) Name() string                              { return "explode" }
func (panickingStep) ShouldExecute(models.AdjustmentState) bool { return true }
func (panickingStep) Apply(context.Context, *raster.Buffer, models.AdjustmentState) (*raster.Buffer, error) {
	panic("index out of range")
}

type erroringStep struct{}

func (erroringStep) Name() string                              { return "reject" }
func (erroringStep) ShouldExecute(models.AdjustmentState) bool { return true }
func (erroringStep) Apply(context.Context, *raster.Buffer, models.AdjustmentState) (*raster.Buffer, error) {
	return nil, errors.New("bad input")
}

// gradient builds a width x height buffer with a diagonal colour ramp.
func gradient(t *testing.T, width, height int) *raster.Buffer {
	t.Helper()
	buf, err := raster.New(width, height)
	require.NoError(t, err)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8((x*255/width + y*255/height) / 2)
			buf.Set(x, y, v, 255-v, v/2, 255)
		}
	}
	return buf
}

func TestAutoPrepProducesBinaryBaseline(t *testing.T) {
	src := gradient(t, 32, 16)

	var (
		stages   []string
		progress []float64
	)
	res, err := AutoPrep(context.Background(), src, func(stage string, p float64) {
		stages = append(stages, stage)
		progress = append(progress, p)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{StageGrayscale, StageEqualize, StageOtsu, StageBinarize}, stages)
	assert.Equal(t, []float64{0.25, 0.5, 0.75, 1.0}, progress)
	require.Len(t, res.Stages, 4)
	assert.Equal(t, StageGrayscale, res.Stages[0].Stage)
	assert.Equal(t, StageEqualize, res.Stages[1].Stage)
	assert.Equal(t, StageBinarize, res.Stages[3].Stage)
	assert.Equal(t, src.Width(), res.Baseline.Width())
	assert.Equal(t, src.Height(), res.Baseline.Height())
	assert.Equal(t, uint64(src.Pixels()), res.Histogram.Total())

	pix := res.Baseline.Pix()
	for i := 0; i < len(pix); i += raster.BytesPerPixel {
		require.Contains(t, []uint8{0, 255}, pix[i])
		require.Equal(t, pix[i], pix[i+1])
		require.Equal(t, pix[i], pix[i+2])
		require.Equal(t, uint8(255), pix[i+3])
	}
}

func TestAutoPrepIsDeterministic(t *testing.T) {
	src := gradient(t, 20, 20)

	first, err := AutoPrep(context.Background(), src, nil)
	require.NoError(t, err)
	second, err := AutoPrep(context.Background(), src, nil)
	require.NoError(t, err)

	assert.True(t, first.Baseline.Equal(second.Baseline))
	assert.Equal(t, first.Threshold, second.Threshold)
}

func TestAutoPrepDoesNotMutateSource(t *testing.T) {
	src := gradient(t, 8, 8)
	before := src.Clone()

	_, err := AutoPrep(context.Background(), src, nil)
	require.NoError(t, err)
	assert.True(t, before.Equal(src))
}

func TestAutoPrepPrimaries(t *testing.T) {
	src, err := raster.FromPix(2, 2, []uint8{
		255, 0, 0, 255,
		0, 255, 0, 255,
		0, 0, 255, 255,
		255, 255, 255, 255,
	})
	require.NoError(t, err)

	res, err := AutoPrep(context.Background(), src, nil)
	require.NoError(t, err)

	// Gray 76,150,29,255 equalizes to 85,170,0,255; Otsu splits {0,85} from
	// {170,255} at t=86.
	assert.Equal(t, uint8(86), res.Threshold)
	lo, hi, ok := res.GrayHistogram.Range()
	require.True(t, ok)
	assert.Equal(t, uint8(29), lo)
	assert.Equal(t, uint8(255), hi)
	assert.Equal(t, uint64(4), res.GrayHistogram.Total())
	assert.Equal(t, []uint8{
		0, 0, 0, 255,
		255, 255, 255, 255,
		0, 0, 0, 255,
		255, 255, 255, 255,
	}, res.Baseline.Pix())
}

func TestAutoPrepFlatImage(t *testing.T) {
	src, err := raster.New(10, 10)
	require.NoError(t, err)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			src.Set(x, y, 128, 128, 128, 255)
		}
	}

	res, err := AutoPrep(context.Background(), src, nil)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), res.Threshold)
	assert.Equal(t, uint8(255), res.Baseline.Pix()[0])
}

func TestAutoPrepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := AutoPrep(ctx, gradient(t, 4, 4), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAutoPrepNilSource(t *testing.T) {
	_, err := AutoPrep(context.Background(), nil, nil)
	assert.ErrorIs(t, err, raster.ErrInvalidDimensions)
}

func TestRunStageRecoversPanics(t *testing.T) {
	_, err := runStage(context.Background(), StageEqualize, func() *raster.Buffer {
		panic("index out of range")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProcessing)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageEqualize, stageErr.Stage)
}

func TestPrepChainStagesMatchStageNames(t *testing.T) {
	assert.Equal(t, []string{StageGrayscale, StageEqualize}, prepChain.GetStepNames())
}

func TestRunChainAttributesPanicToRunningStep(t *testing.T) {
	c := chain.NewProcessingChain([]chain.ProcessingStep{filters.NewGrayscaleConverter(), panickingStep{}})

	var observed []string
	_, err := runChain(context.Background(), c, gradient(t, 4, 4), func(step string, _, _ int, _ *raster.Buffer) {
		observed = append(observed, step)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProcessing)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "explode", stageErr.Stage)
	assert.Equal(t, []string{StageGrayscale}, observed)
}

func TestRunChainWrapsStepErrors(t *testing.T) {
	c := chain.NewProcessingChain([]chain.ProcessingStep{erroringStep{}})

	_, err := runChain(context.Background(), c, gradient(t, 2, 2), func(string, int, int, *raster.Buffer) {})
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "reject", stageErr.Stage)
	assert.ErrorIs(t, err, ErrProcessing)
}

func TestRefineNonAccumulating(t *testing.T) {
	baseline := gradient(t, 16, 16)
	initial := models.AdjustmentState{Threshold: 128, Preset: models.PresetAuto}

	first, err := Refine(context.Background(), baseline, initial)
	require.NoError(t, err)

	_, err = Refine(context.Background(), baseline, models.AdjustmentState{Brightness: 20, Threshold: 128, Preset: models.PresetCustom})
	require.NoError(t, err)

	again, err := Refine(context.Background(), baseline, initial)
	require.NoError(t, err)

	assert.True(t, first.Equal(again))
	assert.True(t, gradient(t, 16, 16).Equal(baseline))
}

func TestRefineOrderBrightnessBeforeThreshold(t *testing.T) {
	baseline, err := raster.FromPix(1, 1, []uint8{120, 120, 120, 255})
	require.NoError(t, err)

	out, err := Refine(context.Background(), baseline, models.AdjustmentState{Brightness: 10, Threshold: 128, Preset: models.PresetCustom})
	require.NoError(t, err)
	assert.Equal(t, uint8(255), out.Pix()[0])

	out, err = Refine(context.Background(), baseline, models.AdjustmentState{Brightness: 5, Threshold: 128, Preset: models.PresetCustom})
	require.NoError(t, err)
	assert.Equal(t, uint8(0), out.Pix()[0])
}

func TestRefineRejectsInvalidState(t *testing.T) {
	_, err := Refine(context.Background(), gradient(t, 2, 2), models.AdjustmentState{Brightness: 200, Preset: models.PresetAuto})
	var ve *models.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestRefinementSteps(t *testing.T) {
	assert.Equal(t, []string{"brightness", "contrast", "threshold"}, RefinementSteps())
}

func TestCalculateCoverage(t *testing.T) {
	buf, err := raster.FromPix(4, 1, []uint8{
		0, 0, 0, 255,
		0, 0, 0, 0,
		255, 255, 255, 255,
		0, 0, 0, 255,
	})
	require.NoError(t, err)

	m := CalculateCoverage(buf)
	assert.Equal(t, CoverageMetrics{Pixels: 4, BlackPixels: 2, WhitePixels: 2, BlackFraction: 0.5}, m)
}
