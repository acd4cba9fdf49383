// Package imageio decodes uploads into raster buffers and encodes results.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"craftyprep/internal/raster"
)

const (
	DefaultMaxBytes     = 50 << 20
	DefaultMaxDimension = 4096
)

var (
	ErrTooLarge          = errors.New("image exceeds size limit")
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// fallbackDecode is consulted when the pure Go decoders reject the input.
// It is set by the opencv build.
var fallbackDecode func(data []byte) (image.Image, error)

// Options bound what Load accepts. Zero values select the defaults.
type Options struct {
	MaxBytes     int64
	MaxDimension int
}

func (o Options) withDefaults() Options {
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.MaxDimension <= 0 {
		o.MaxDimension = DefaultMaxDimension
	}
	return o
}

// Info describes a decoded upload.
type Info struct {
	Format         string
	Bytes          int
	OriginalWidth  int
	OriginalHeight int
	Width          int
	Height         int
}

// Scaled reports whether the image was downscaled on load.
func (i Info) Scaled() bool {
	return i.Width != i.OriginalWidth || i.Height != i.OriginalHeight
}

// Load decodes r, applying EXIF orientation, and downscales images larger
// than opts.MaxDimension on either side.
func Load(r io.Reader, opts Options) (*raster.Buffer, Info, error) {
	opts = opts.withDefaults()

	data, err := io.ReadAll(io.LimitReader(r, opts.MaxBytes+1))
	if err != nil {
		return nil, Info{}, fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) > opts.MaxBytes {
		return nil, Info{}, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, opts.MaxBytes)
	}

	img, format, err := decode(data)
	if err != nil {
		return nil, Info{}, err
	}

	bounds := img.Bounds()
	info := Info{
		Format:         format,
		Bytes:          len(data),
		OriginalWidth:  bounds.Dx(),
		OriginalHeight: bounds.Dy(),
	}

	if bounds.Dx() > opts.MaxDimension || bounds.Dy() > opts.MaxDimension {
		limit := uint(opts.MaxDimension)
		img = resize.Thumbnail(limit, limit, img, resize.Lanczos3)
	}

	buf, err := raster.FromImage(img)
	if err != nil {
		return nil, Info{}, err
	}
	info.Width = buf.Width()
	info.Height = buf.Height()
	return buf, info, nil
}

func decode(data []byte) (image.Image, string, error) {
	_, format, cfgErr := image.DecodeConfig(bytes.NewReader(data))
	if cfgErr == nil {
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err == nil {
			return img, format, nil
		}
		cfgErr = err
	}

	if fallbackDecode != nil {
		img, err := fallbackDecode(data)
		if err == nil {
			return img, "opencv", nil
		}
	}
	return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, cfgErr)
}

// LoadFile opens path and calls Load.
func LoadFile(path string, opts Options) (*raster.Buffer, Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Info{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	buf, info, err := Load(f, opts)
	if err != nil {
		return nil, Info{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return buf, info, nil
}

// FormatFor maps a file name to an output format. Unknown extensions fall
// back to PNG.
func FormatFor(name string) imaging.Format {
	format, err := imaging.FormatFromFilename(name)
	if err != nil {
		return imaging.PNG
	}
	return format
}

// Extension returns the canonical file extension for format.
func Extension(format imaging.Format) string {
	switch format {
	case imaging.JPEG:
		return ".jpg"
	case imaging.TIFF:
		return ".tif"
	default:
		return "." + strings.ToLower(format.String())
	}
}

// Save encodes buf to w.
func Save(w io.Writer, buf *raster.Buffer, format imaging.Format) error {
	if buf == nil {
		return fmt.Errorf("save image: %w", raster.ErrInvalidDimensions)
	}
	if err := imaging.Encode(w, buf.ToImage(), format, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return nil
}

// SaveFile writes buf to path in the format implied by its extension.
func SaveFile(path string, buf *raster.Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}

	if err := Save(f, buf, FormatFor(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// IsSupported reports whether name has an extension Load understands.
func IsSupported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return true
	}
	return false
}
