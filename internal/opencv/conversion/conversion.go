//go:build opencv

// Package conversion moves pixel data between gocv matrices and raster
// buffers.
package conversion

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"craftyprep/internal/raster"
)

var ErrEmptyMat = errors.New("mat is empty")

// MatToBuffer converts an 8-bit gray, BGR or BGRA Mat to an RGBA buffer.
func MatToBuffer(src gocv.Mat) (*raster.Buffer, error) {
	if src.Empty() {
		return nil, ErrEmptyMat
	}

	var code gocv.ColorConversionCode
	switch src.Type() {
	case gocv.MatTypeCV8UC1:
		code = gocv.ColorGrayToRGBA
	case gocv.MatTypeCV8UC3:
		code = gocv.ColorBGRToRGBA
	case gocv.MatTypeCV8UC4:
		code = gocv.ColorBGRAToRGBA
	default:
		return nil, fmt.Errorf("unsupported mat type: %v", src.Type())
	}

	rgba := gocv.NewMat()
	defer rgba.Close()
	gocv.CvtColor(src, &rgba, code)

	return raster.FromPix(rgba.Cols(), rgba.Rows(), rgba.ToBytes())
}

// BufferToMat converts buf to a BGR Mat. The caller closes the result.
func BufferToMat(buf *raster.Buffer) (gocv.Mat, error) {
	if buf == nil {
		return gocv.NewMat(), fmt.Errorf("buffer to mat: %w", raster.ErrInvalidDimensions)
	}

	pix := make([]byte, len(buf.Pix()))
	copy(pix, buf.Pix())

	rgba, err := gocv.NewMatFromBytes(buf.Height(), buf.Width(), gocv.MatTypeCV8UC4, pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("mat creation failed: %w", err)
	}
	defer rgba.Close()

	dst := gocv.NewMat()
	gocv.CvtColor(rgba, &dst, gocv.ColorRGBAToBGR)
	return dst, nil
}
