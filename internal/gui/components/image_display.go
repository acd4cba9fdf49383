package components

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	ImagePaneWidth  = 480
	ImagePaneHeight = 420
)

// ImageDisplay shows the original upload next to the engraving preview.
type ImageDisplay struct {
	container     *fyne.Container
	originalImage *canvas.Image
	previewImage  *canvas.Image
	previewLabel  *widget.Label
}

func NewImageDisplay() *ImageDisplay {
	originalImage := newPane()
	previewImage := newPane()
	previewLabel := widget.NewLabel("")

	originalContainer := container.NewBorder(
		widget.NewRichTextFromMarkdown("**Original**"), nil, nil, nil,
		originalImage,
	)
	previewContainer := container.NewBorder(
		container.NewHBox(widget.NewRichTextFromMarkdown("**Laser preview**"), previewLabel), nil, nil, nil,
		previewImage,
	)

	return &ImageDisplay{
		container:     container.NewGridWithColumns(2, originalContainer, previewContainer),
		originalImage: originalImage,
		previewImage:  previewImage,
		previewLabel:  previewLabel,
	}
}

func newPane() *canvas.Image {
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScalePixels
	img.SetMinSize(fyne.NewSize(ImagePaneWidth, ImagePaneHeight))
	return img
}

func (id *ImageDisplay) GetContainer() *fyne.Container {
	return id.container
}

func (id *ImageDisplay) SetOriginalImage(img image.Image) {
	id.originalImage.Image = img
	id.originalImage.Refresh()
}

// SetPreviewImage replaces the preview. note is shown next to the title,
// for example while auto-prep is running.
func (id *ImageDisplay) SetPreviewImage(img image.Image, note string) {
	id.previewImage.Image = img
	id.previewImage.Refresh()
	id.previewLabel.SetText(note)
}

func (id *ImageDisplay) PreviewImage() image.Image {
	return id.previewImage.Image
}
