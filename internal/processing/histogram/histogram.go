// Package histogram builds 256-bin intensity histograms and performs
// global histogram equalization.
package histogram

import (
	"context"

	"craftyprep/internal/models"
	"craftyprep/internal/processing/filters"
	"craftyprep/internal/raster"
)

// Levels is the number of intensity levels in an 8-bit channel.
const Levels = 256

// Bins counts pixels per intensity level.
type Bins [Levels]uint32

// Build counts the luminance of every pixel in buf. For a grayscale
// buffer that is simply the R channel.
func Build(buf *raster.Buffer) Bins {
	var bins Bins
	pix := buf.Pix()
	for i := 0; i < len(pix); i += raster.BytesPerPixel {
		bins[filters.Luminance(pix[i], pix[i+1], pix[i+2])]++
	}
	return bins
}

// Total returns the number of counted pixels.
func (b *Bins) Total() uint64 {
	var total uint64
	for _, n := range b {
		total += uint64(n)
	}
	return total
}

// CDF returns the cumulative distribution of b.
func (b *Bins) CDF() [Levels]uint64 {
	var cdf [Levels]uint64
	var acc uint64
	for i, n := range b {
		acc += uint64(n)
		cdf[i] = acc
	}
	return cdf
}

// Occupied returns how many levels have at least one pixel.
func (b *Bins) Occupied() int {
	occupied := 0
	for _, n := range b {
		if n > 0 {
			occupied++
		}
	}
	return occupied
}

// Range returns the lowest and highest occupied levels. ok is false for an
// empty histogram.
func (b *Bins) Range() (lo, hi uint8, ok bool) {
	first, last := -1, -1
	for i, n := range b {
		if n == 0 {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return 0, 0, false
	}
	return uint8(first), uint8(last), true
}

// Mean returns the average intensity, or 0 for an empty histogram.
func (b *Bins) Mean() float64 {
	var sum, total uint64
	for i, n := range b {
		sum += uint64(i) * uint64(n)
		total += uint64(n)
	}
	if total == 0 {
		return 0
	}
	return float64(sum) / float64(total)
}

// EqualizationTable maps each level through the normalised CDF:
// round((cdf[i]-cdfMin) / (total-cdfMin) * 255), halves rounded away from
// zero. ok is false when the histogram is empty or has a single occupied
// level, in which case the identity mapping is returned.
func EqualizationTable(b *Bins) (lut [Levels]uint8, ok bool) {
	for i := range lut {
		lut[i] = uint8(i)
	}

	cdf := b.CDF()
	total := cdf[Levels-1]

	var cdfMin uint64
	for _, c := range cdf {
		if c > 0 {
			cdfMin = c
			break
		}
	}

	denom := total - cdfMin
	if total == 0 || denom == 0 {
		return lut, false
	}

	for i, c := range cdf {
		if c < cdfMin {
			lut[i] = 0
			continue
		}
		// (c-cdfMin)*255/denom rounded half up; all terms are non-negative.
		lut[i] = uint8(((c-cdfMin)*255*2 + denom) / (2 * denom))
	}
	return lut, true
}

// Equalize returns a contrast-enhanced copy of a grayscale buffer. Every
// pixel's intensity is remapped through EqualizationTable and written to
// R, G and B; alpha is unchanged. A flat image is returned unchanged.
func Equalize(src *raster.Buffer) *raster.Buffer {
	bins := Build(src)
	lut, ok := EqualizationTable(&bins)
	if !ok {
		return src.Clone()
	}

	dst := src.NewLike()
	in, out := src.Pix(), dst.Pix()
	for i := 0; i < len(in); i += raster.BytesPerPixel {
		y := lut[filters.Luminance(in[i], in[i+1], in[i+2])]
		out[i], out[i+1], out[i+2], out[i+3] = y, y, y, in[i+3]
	}
	return dst
}

// Equalizer adapts Equalize to a processing chain.
type Equalizer struct{}

func NewEqualizer() *Equalizer {
	return &Equalizer{}
}

func (e *Equalizer) Name() string {
	return "equalize"
}

func (e *Equalizer) ShouldExecute(models.AdjustmentState) bool {
	return true
}

func (e *Equalizer) Apply(ctx context.Context, input *raster.Buffer, _ models.AdjustmentState) (*raster.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Equalize(input), nil
}
