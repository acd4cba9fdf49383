package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"craftyprep/internal/models"
	"craftyprep/internal/processing/chain"
	"craftyprep/internal/processing/filters"
	"craftyprep/internal/processing/histogram"
	"craftyprep/internal/processing/threshold"
	"craftyprep/internal/raster"
)

// Auto-prep stage names, in execution order.
const (
	StageGrayscale = "grayscale"
	StageEqualize  = "equalize"
	StageOtsu      = "otsu"
	StageBinarize  = "binarize"
)

// ErrProcessing marks an unexpected failure inside a pipeline stage.
var ErrProcessing = errors.New("image processing failed")

// StageError reports which stage failed. It matches both ErrProcessing and
// the underlying cause.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{ErrProcessing, e.Err}
}

// ProgressFunc receives the stage just completed and the overall fraction.
type ProgressFunc func(stage string, progress float64)

// Result is the outcome of an auto-prep run. Histogram is taken from the
// equalized image, GrayHistogram from the grayscale one.
type Result struct {
	Baseline      *raster.Buffer
	Threshold     uint8
	Histogram     histogram.Bins
	GrayHistogram histogram.Bins
	Duration      time.Duration
	Stages        []StageTiming
}

// StageTiming is the wall time of one completed stage.
type StageTiming struct {
	Stage    string
	Duration time.Duration
}

// stageCount is the number of auto-prep stages reported to ProgressFunc.
const stageCount = 4

// prepChain holds the pixel stages of auto-prep. Its step names are
// StageGrayscale and StageEqualize.
var prepChain = chain.NewProcessingChain([]chain.ProcessingStep{
	filters.NewGrayscaleConverter(),
	histogram.NewEqualizer(),
})

// AutoPrep turns a decoded image into the laser-ready baseline: grayscale,
// histogram equalization, Otsu threshold of the equalized histogram,
// binarization. Stages run strictly in sequence; ctx is checked between
// them. The output depends only on src.
func AutoPrep(ctx context.Context, src *raster.Buffer, progress ProgressFunc) (*Result, error) {
	if src == nil {
		return nil, fmt.Errorf("auto-prep source: %w", raster.ErrInvalidDimensions)
	}
	if progress == nil {
		progress = func(string, float64) {}
	}

	start := time.Now()
	res := &Result{}
	last := start
	equalized, err := runChain(ctx, prepChain, src, func(step string, index, _ int, out *raster.Buffer) {
		now := time.Now()
		res.Stages = append(res.Stages, StageTiming{Stage: step, Duration: now.Sub(last)})
		last = now
		if step == StageGrayscale {
			res.GrayHistogram = histogram.Build(out)
		}
		progress(step, float64(index+1)/stageCount)
	})
	if err != nil {
		return nil, err
	}

	timed := func(stage string, fn func() *raster.Buffer) (*raster.Buffer, error) {
		t0 := time.Now()
		out, err := runStage(ctx, stage, fn)
		if err == nil {
			res.Stages = append(res.Stages, StageTiming{Stage: stage, Duration: time.Since(t0)})
		}
		return out, err
	}

	if _, err := timed(StageOtsu, func() *raster.Buffer {
		res.Histogram = histogram.Build(equalized)
		res.Threshold = threshold.Compute(&res.Histogram)
		return equalized
	}); err != nil {
		return nil, err
	}
	progress(StageOtsu, 0.75)

	res.Baseline, err = timed(StageBinarize, func() *raster.Buffer {
		return threshold.Apply(equalized, res.Threshold)
	})
	if err != nil {
		return nil, err
	}
	progress(StageBinarize, 1.0)

	res.Duration = time.Since(start)
	return res, nil
}

// runChain executes c over src, attributing step failures and panics to
// the step that was running. Cancellation is returned unwrapped.
func runChain(ctx context.Context, c *chain.ProcessingChain, src *raster.Buffer, observe chain.StepObserver) (out *raster.Buffer, err error) {
	names := c.GetStepNames()
	running := 0

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &StageError{Stage: names[running], Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	out, err = c.ExecuteObserved(ctx, src, models.AdjustmentState{}, func(step string, index, total int, buf *raster.Buffer) {
		if index+1 < len(names) {
			running = index + 1
		}
		observe(step, index, total, buf)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &StageError{Stage: names[running], Err: err}
	}
	return out, nil
}

// runStage executes fn after a cancellation check and converts a panic
// into a StageError.
func runStage(ctx context.Context, stage string, fn func() *raster.Buffer) (out *raster.Buffer, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &StageError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	out = fn()
	if out == nil {
		return nil, &StageError{Stage: stage, Err: errors.New("stage produced no output")}
	}
	return out, nil
}
