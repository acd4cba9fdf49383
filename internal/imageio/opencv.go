//go:build opencv

package imageio

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"craftyprep/internal/opencv/conversion"
)

func init() {
	fallbackDecode = decodeOpenCV
}

func decodeOpenCV(data []byte) (image.Image, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("opencv decode: %w", err)
	}
	defer mat.Close()

	buf, err := conversion.MatToBuffer(mat)
	if err != nil {
		return nil, err
	}
	return buf.ToImage(), nil
}
