package pipeline

import (
	"craftyprep/internal/raster"
)

// CoverageMetrics summarises a binarized buffer for engraving estimates.
// Black pixels are the ones the laser burns.
type CoverageMetrics struct {
	Pixels        int
	BlackPixels   int
	WhitePixels   int
	BlackFraction float64
}

// CalculateCoverage counts black (R < 128) and white pixels. Fully
// transparent pixels are treated as white.
func CalculateCoverage(buf *raster.Buffer) CoverageMetrics {
	m := CoverageMetrics{Pixels: buf.Pixels()}

	pix := buf.Pix()
	for i := 0; i < len(pix); i += raster.BytesPerPixel {
		if pix[i+3] != 0 && pix[i] < 128 {
			m.BlackPixels++
		}
	}
	m.WhitePixels = m.Pixels - m.BlackPixels

	if m.Pixels > 0 {
		m.BlackFraction = float64(m.BlackPixels) / float64(m.Pixels)
	}
	return m
}
