// Package raster holds the RGBA pixel buffer every transform in the
// engine reads and writes.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
)

// BytesPerPixel is the number of channels stored per pixel (R, G, B, A).
const BytesPerPixel = 4

// ErrInvalidDimensions is returned when pixel data does not match the
// declared width and height.
var ErrInvalidDimensions = errors.New("invalid buffer dimensions")

// DimensionError describes a rejected width/height/data combination.
type DimensionError struct {
	Width  int
	Height int
	Length int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("invalid buffer dimensions %dx%d with %d bytes (want %d)",
		e.Width, e.Height, e.Length, e.Width*e.Height*BytesPerPixel)
}

func (e *DimensionError) Unwrap() error {
	return ErrInvalidDimensions
}

// Buffer is a row-major, straight-alpha RGBA raster. The fields are
// unexported so a Buffer with a mismatched data length cannot be built
// outside this package.
type Buffer struct {
	width  int
	height int
	pix    []uint8
}

// New allocates a zeroed width x height buffer.
func New(width, height int) (*Buffer, error) {
	if width < 0 || height < 0 {
		return nil, &DimensionError{Width: width, Height: height}
	}

	return &Buffer{
		width:  width,
		height: height,
		pix:    make([]uint8, width*height*BytesPerPixel),
	}, nil
}

// FromPix wraps existing pixel data. The slice is not copied.
func FromPix(width, height int, pix []uint8) (*Buffer, error) {
	if width < 0 || height < 0 || len(pix) != width*height*BytesPerPixel {
		return nil, &DimensionError{Width: width, Height: height, Length: len(pix)}
	}

	return &Buffer{width: width, height: height, pix: pix}, nil
}

// FromImage copies any image into a new buffer at its native size.
func FromImage(img image.Image) (*Buffer, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	bounds := img.Bounds()
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Stride == bounds.Dx()*BytesPerPixel {
		pix := make([]uint8, bounds.Dx()*bounds.Dy()*BytesPerPixel)
		copy(pix, nrgba.Pix)
		return FromPix(bounds.Dx(), bounds.Dy(), pix)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)

	return FromPix(bounds.Dx(), bounds.Dy(), dst.Pix)
}

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int { return b.width }

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int { return b.height }

// Pixels returns width*height.
func (b *Buffer) Pixels() int { return b.width * b.height }

// Pix exposes the underlying channel data. Callers that did not allocate
// the buffer must treat it as read-only.
func (b *Buffer) Pix() []uint8 { return b.pix }

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	pix := make([]uint8, len(b.pix))
	copy(pix, b.pix)
	return &Buffer{width: b.width, height: b.height, pix: pix}
}

// NewLike allocates a zeroed buffer with the same dimensions as b.
func (b *Buffer) NewLike() *Buffer {
	return &Buffer{
		width:  b.width,
		height: b.height,
		pix:    make([]uint8, len(b.pix)),
	}
}

// Equal reports whether both buffers have the same size and contents.
func (b *Buffer) Equal(other *Buffer) bool {
	if b == nil || other == nil {
		return b == other
	}
	if b.width != other.width || b.height != other.height {
		return false
	}
	for i := range b.pix {
		if b.pix[i] != other.pix[i] {
			return false
		}
	}
	return true
}

// At returns the channels of the pixel at (x, y).
func (b *Buffer) At(x, y int) (r, g, bl, a uint8) {
	i := (y*b.width + x) * BytesPerPixel
	return b.pix[i], b.pix[i+1], b.pix[i+2], b.pix[i+3]
}

// Set writes the channels of the pixel at (x, y).
func (b *Buffer) Set(x, y int, r, g, bl, a uint8) {
	i := (y*b.width + x) * BytesPerPixel
	b.pix[i], b.pix[i+1], b.pix[i+2], b.pix[i+3] = r, g, bl, a
}

// ToImage copies the buffer into a straight-alpha image for encoders and
// display widgets.
func (b *Buffer) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.width, b.height))
	copy(img.Pix, b.pix)
	return img
}
