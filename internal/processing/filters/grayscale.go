package filters

import (
	"context"

	"craftyprep/internal/models"
	"craftyprep/internal/raster"
)

// Luminance weights in thousandths: 0.299, 0.587, 0.114.
const (
	weightR = 299
	weightG = 587
	weightB = 114
)

// Luminance returns round(0.299r + 0.587g + 0.114b), rounding halves away
// from zero. It is computed in integers so the result is exact and a gray
// pixel maps to itself.
func Luminance(r, g, b uint8) uint8 {
	v := (weightR*int(r) + weightG*int(g) + weightB*int(b) + 500) / 1000
	return clampChannel(v)
}

// Grayscale returns a new buffer with R=G=B=Luminance(R,G,B). Alpha is
// copied unchanged.
func Grayscale(src *raster.Buffer) *raster.Buffer {
	dst := src.NewLike()
	in, out := src.Pix(), dst.Pix()

	for i := 0; i < len(in); i += raster.BytesPerPixel {
		y := Luminance(in[i], in[i+1], in[i+2])
		out[i], out[i+1], out[i+2], out[i+3] = y, y, y, in[i+3]
	}

	return dst
}

// GrayscaleConverter adapts Grayscale to a processing chain.
type GrayscaleConverter struct{}

// NewGrayscaleConverter creates a new grayscale converter
func NewGrayscaleConverter() *GrayscaleConverter {
	return &GrayscaleConverter{}
}

func (g *GrayscaleConverter) Name() string {
	return "grayscale"
}

func (g *GrayscaleConverter) ShouldExecute(models.AdjustmentState) bool {
	return true
}

func (g *GrayscaleConverter) Apply(ctx context.Context, input *raster.Buffer, _ models.AdjustmentState) (*raster.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Grayscale(input), nil
}

func clampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
