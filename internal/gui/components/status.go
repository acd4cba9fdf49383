package components

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

type StatusBar struct {
	container     *fyne.Container
	statusLabel   *widget.Label
	progressBar   *widget.ProgressBar
	coverageLabel *widget.Label
}

func NewStatusBar() *StatusBar {
	statusLabel := widget.NewLabel("Open an image to start")
	progressBar := widget.NewProgressBar()
	progressBar.Hide()
	coverageLabel := widget.NewLabel("Burn: --")

	mainContainer := container.NewBorder(
		nil, nil,
		statusLabel,
		coverageLabel,
		progressBar,
	)

	return &StatusBar{
		container:     mainContainer,
		statusLabel:   statusLabel,
		progressBar:   progressBar,
		coverageLabel: coverageLabel,
	}
}

func (sb *StatusBar) GetContainer() *fyne.Container {
	return sb.container
}

func (sb *StatusBar) SetStatus(status string) {
	sb.statusLabel.SetText(status)
}

func (sb *StatusBar) Status() string {
	return sb.statusLabel.Text
}

// SetProgress shows the bar for values strictly between 0 and 1.
func (sb *StatusBar) SetProgress(progress float64) {
	if progress > 0 && progress < 1 {
		sb.progressBar.SetValue(progress)
		sb.progressBar.Show()
		return
	}
	sb.progressBar.Hide()
}

// SetCoverage shows the share of pixels the laser will burn.
func (sb *StatusBar) SetCoverage(fraction float64, ok bool) {
	if !ok {
		sb.coverageLabel.SetText("Burn: --")
		return
	}
	sb.coverageLabel.SetText(fmt.Sprintf("Burn: %.1f%%", fraction*100))
}
