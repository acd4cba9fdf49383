package gui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"

	"craftyprep/internal/gui/components"
	"craftyprep/internal/models"
)

// View owns the widgets. All methods must run on the Fyne goroutine.
type View struct {
	window     fyne.Window
	controller *Controller

	toolbar       *components.Toolbar
	imageDisplay  *components.ImageDisplay
	adjustments   *components.AdjustmentPanel
	statusBar     *components.StatusBar
	mainContainer *fyne.Container
}

func NewView(window fyne.Window) *View {
	v := &View{
		window:       window,
		toolbar:      components.NewToolbar(),
		imageDisplay: components.NewImageDisplay(),
		adjustments:  components.NewAdjustmentPanel(),
		statusBar:    components.NewStatusBar(),
	}

	v.mainContainer = container.NewBorder(
		v.toolbar.GetContainer(),
		container.NewVBox(v.adjustments.GetContainer(), v.statusBar.GetContainer()),
		nil, nil,
		v.imageDisplay.GetContainer(),
	)
	return v
}

func (v *View) SetController(controller *Controller) {
	v.controller = controller

	v.toolbar.SetOpenHandler(controller.OpenImage)
	v.toolbar.SetExportHandler(controller.ExportImage)
	v.toolbar.SetUndoHandler(controller.Undo)
	v.toolbar.SetRedoHandler(controller.Redo)
	v.toolbar.SetResetHandler(controller.Reset)
	v.adjustments.SetChangeHandler(controller.Adjust)
}

func (v *View) GetMainContainer() *fyne.Container {
	return v.mainContainer
}

func (v *View) SetOriginalImage(img image.Image) {
	v.imageDisplay.SetOriginalImage(img)
}

func (v *View) SetPreviewImage(img image.Image, note string) {
	v.imageDisplay.SetPreviewImage(img, note)
}

func (v *View) SetAdjustment(state models.AdjustmentState) {
	v.adjustments.SetState(state)
}

func (v *View) SetEditable(hasImage, canUndo, canRedo bool) {
	v.toolbar.SetState(hasImage, canUndo, canRedo)
	v.adjustments.SetEnabled(hasImage)
}

func (v *View) SetStatus(status string) {
	v.statusBar.SetStatus(status)
}

func (v *View) SetProgress(progress float64) {
	v.statusBar.SetProgress(progress)
}

func (v *View) SetCoverage(fraction float64, ok bool) {
	v.statusBar.SetCoverage(fraction, ok)
}

func (v *View) ShowError(err error) {
	dialog.ShowError(err, v.window)
}

func (v *View) ShowOpenDialog(callback func(fyne.URIReadCloser, error)) {
	dialog.ShowFileOpen(callback, v.window)
}

func (v *View) ShowSaveDialog(callback func(fyne.URIWriteCloser, error)) {
	d := dialog.NewFileSave(callback, v.window)
	d.SetFileName("engraving.png")
	d.Show()
}

func (v *View) GetWindow() fyne.Window {
	return v.window
}

func (v *View) Show() {
	v.window.SetContent(v.mainContainer)
	v.window.Show()
}
