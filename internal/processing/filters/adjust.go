package filters

import (
	"context"

	"github.com/samber/lo"

	"craftyprep/internal/models"
	"craftyprep/internal/raster"
)

const contrastPivot = 127

// Brightness adds b to every colour channel and clamps to [0,255]. b is
// clamped to [-100,100]; 0 is the identity.
func Brightness(src *raster.Buffer, b int) *raster.Buffer {
	b = lo.Clamp(b, models.MinBrightness, models.MaxBrightness)

	var lut [256]uint8
	for v := range lut {
		lut[v] = clampChannel(v + b)
	}
	return applyLUT(src, &lut)
}

// Contrast scales every colour channel around 127 by (100+c)/100 and
// clamps to [0,255]. The product is rounded half away from zero. c is
// clamped to [-100,100]; 0 is the identity.
func Contrast(src *raster.Buffer, c int) *raster.Buffer {
	c = lo.Clamp(c, models.MinContrast, models.MaxContrast)

	var lut [256]uint8
	for v := range lut {
		lut[v] = clampChannel(roundDiv((v-contrastPivot)*(100+c), 100) + contrastPivot)
	}
	return applyLUT(src, &lut)
}

// applyLUT maps R, G and B through lut; alpha is copied.
func applyLUT(src *raster.Buffer, lut *[256]uint8) *raster.Buffer {
	dst := src.NewLike()
	in, out := src.Pix(), dst.Pix()

	for i := 0; i < len(in); i += raster.BytesPerPixel {
		out[i] = lut[in[i]]
		out[i+1] = lut[in[i+1]]
		out[i+2] = lut[in[i+2]]
		out[i+3] = in[i+3]
	}

	return dst
}

// roundDiv divides rounding halves away from zero. d must be positive.
func roundDiv(n, d int) int {
	if n >= 0 {
		return (n + d/2) / d
	}
	return -((-n + d/2) / d)
}

// BrightnessAdjuster is the chain step for Brightness.
type BrightnessAdjuster struct{}

func NewBrightnessAdjuster() *BrightnessAdjuster {
	return &BrightnessAdjuster{}
}

func (a *BrightnessAdjuster) Name() string {
	return "brightness"
}

func (a *BrightnessAdjuster) ShouldExecute(params models.AdjustmentState) bool {
	return params.Brightness != 0
}

func (a *BrightnessAdjuster) Apply(ctx context.Context, input *raster.Buffer, params models.AdjustmentState) (*raster.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Brightness(input, params.Brightness), nil
}

// ContrastAdjuster is the chain step for Contrast.
type ContrastAdjuster struct{}

func NewContrastAdjuster() *ContrastAdjuster {
	return &ContrastAdjuster{}
}

func (a *ContrastAdjuster) Name() string {
	return "contrast"
}

func (a *ContrastAdjuster) ShouldExecute(params models.AdjustmentState) bool {
	return params.Contrast != 0
}

func (a *ContrastAdjuster) Apply(ctx context.Context, input *raster.Buffer, params models.AdjustmentState) (*raster.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Contrast(input, params.Contrast), nil
}
