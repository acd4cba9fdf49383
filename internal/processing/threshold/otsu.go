// Package threshold selects and applies binarization thresholds.
package threshold

import (
	"context"

	"github.com/samber/lo"

	"craftyprep/internal/models"
	"craftyprep/internal/processing/filters"
	"craftyprep/internal/processing/histogram"
	"craftyprep/internal/raster"
)

const (
	black uint8 = 0
	white uint8 = 255
)

// Compute returns Otsu's threshold for bins: the t in [0,255] maximising
// the between-class variance of the classes {< t} and {>= t}. Ties go to
// the lowest t. A histogram with no separable split yields 0.
func Compute(bins *histogram.Bins) uint8 {
	var total, totalSum int64
	for i, n := range bins {
		total += int64(n)
		totalSum += int64(i) * int64(n)
	}

	var (
		best         uint8
		bestVariance float64

		// Pixels and intensity sum strictly below the candidate.
		below    int64
		belowSum int64
	)

	for t := 0; t < histogram.Levels; t++ {
		above := total - below
		if below > 0 && above > 0 {
			aboveSum := totalSum - belowSum
			// w0*w1*(mu0-mu1)^2 scaled by total^2:
			// (belowSum*above - aboveSum*below)^2 / (below*above).
			diff := float64(belowSum*above - aboveSum*below)
			variance := diff * diff / (float64(below) * float64(above))
			if variance > bestVariance {
				bestVariance = variance
				best = uint8(t)
			}
		}

		below += int64(bins[t])
		belowSum += int64(t) * int64(bins[t])
	}

	return best
}

// Apply binarizes buf: pixels whose luminance is strictly below t become
// black, all others white. Alpha is unchanged.
func Apply(src *raster.Buffer, t uint8) *raster.Buffer {
	dst := src.NewLike()
	in, out := src.Pix(), dst.Pix()

	for i := 0; i < len(in); i += raster.BytesPerPixel {
		v := white
		if filters.Luminance(in[i], in[i+1], in[i+2]) < t {
			v = black
		}
		out[i], out[i+1], out[i+2], out[i+3] = v, v, v, in[i+3]
	}

	return dst
}

// Binarizer is the chain step applying the state's manual threshold.
type Binarizer struct{}

func NewBinarizer() *Binarizer {
	return &Binarizer{}
}

func (b *Binarizer) Name() string {
	return "threshold"
}

func (b *Binarizer) ShouldExecute(models.AdjustmentState) bool {
	return true
}

func (b *Binarizer) Apply(ctx context.Context, input *raster.Buffer, params models.AdjustmentState) (*raster.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := lo.Clamp(params.Threshold, models.MinThreshold, models.MaxThreshold)
	return Apply(input, uint8(t)), nil
}
