package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

type Toolbar struct {
	container    *fyne.Container
	OpenButton   *widget.Button
	ExportButton *widget.Button
	UndoButton   *widget.Button
	RedoButton   *widget.Button
	ResetButton  *widget.Button

	onOpen   func()
	onExport func()
	onUndo   func()
	onRedo   func()
	onReset  func()
}

func NewToolbar() *Toolbar {
	t := &Toolbar{}

	t.OpenButton = widget.NewButtonWithIcon("Open", theme.FolderOpenIcon(), func() { call(t.onOpen) })
	t.OpenButton.Importance = widget.HighImportance
	t.ExportButton = widget.NewButtonWithIcon("Export", theme.DocumentSaveIcon(), func() { call(t.onExport) })
	t.ExportButton.Importance = widget.HighImportance
	t.UndoButton = widget.NewButtonWithIcon("Undo", theme.ContentUndoIcon(), func() { call(t.onUndo) })
	t.RedoButton = widget.NewButtonWithIcon("Redo", theme.ContentRedoIcon(), func() { call(t.onRedo) })
	t.ResetButton = widget.NewButtonWithIcon("Reset", theme.ViewRefreshIcon(), func() { call(t.onReset) })

	t.container = container.NewBorder(
		nil, nil,
		container.NewHBox(t.OpenButton, t.ExportButton),
		container.NewHBox(t.UndoButton, t.RedoButton, t.ResetButton),
	)

	t.SetState(false, false, false)
	return t
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

func (t *Toolbar) GetContainer() *fyne.Container {
	return t.container
}

func (t *Toolbar) SetOpenHandler(handler func())   { t.onOpen = handler }
func (t *Toolbar) SetExportHandler(handler func()) { t.onExport = handler }
func (t *Toolbar) SetUndoHandler(handler func())   { t.onUndo = handler }
func (t *Toolbar) SetRedoHandler(handler func())   { t.onRedo = handler }
func (t *Toolbar) SetResetHandler(handler func())  { t.onReset = handler }

// SetState enables the buttons that make sense for the current session.
func (t *Toolbar) SetState(hasImage, canUndo, canRedo bool) {
	setEnabled(t.ExportButton, hasImage)
	setEnabled(t.ResetButton, hasImage)
	setEnabled(t.UndoButton, hasImage && canUndo)
	setEnabled(t.RedoButton, hasImage && canRedo)
}

func setEnabled(w fyne.Disableable, enabled bool) {
	if enabled {
		w.Enable()
	} else {
		w.Disable()
	}
}
