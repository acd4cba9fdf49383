package components

import (
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"craftyprep/internal/models"
)

// AdjustmentPanel holds the refinement sliders and the material preset.
type AdjustmentPanel struct {
	container *fyne.Container

	brightness *labeledSlider
	contrast   *labeledSlider
	threshold  *labeledSlider
	preset     *widget.Select

	// updating suppresses callbacks while SetState moves the widgets.
	updating bool
	enabled  bool
	onChange func(models.AdjustmentState)
}

type labeledSlider struct {
	name   string
	slider *widget.Slider
	value  *widget.Label
}

func newLabeledSlider(name string, min, max int) *labeledSlider {
	s := widget.NewSlider(float64(min), float64(max))
	s.Step = 1
	return &labeledSlider{name: name, slider: s, value: widget.NewLabel("0")}
}

func (ls *labeledSlider) set(v int) {
	ls.slider.SetValue(float64(v))
	ls.value.SetText(strconv.Itoa(v))
}

func (ls *labeledSlider) get() int {
	return int(ls.slider.Value)
}

func NewAdjustmentPanel() *AdjustmentPanel {
	p := &AdjustmentPanel{
		brightness: newLabeledSlider("Brightness", models.MinBrightness, models.MaxBrightness),
		contrast:   newLabeledSlider("Contrast", models.MinContrast, models.MaxContrast),
		threshold:  newLabeledSlider("Threshold", models.MinThreshold, models.MaxThreshold),
	}

	names := make([]string, 0, len(models.Presets()))
	for _, id := range models.Presets() {
		names = append(names, string(id))
	}
	p.preset = widget.NewSelect(names, func(string) { p.changed() })

	form := container.New(layout.NewFormLayout())
	for _, ls := range []*labeledSlider{p.brightness, p.contrast, p.threshold} {
		ls.slider.OnChanged = func(v float64) {
			ls.value.SetText(strconv.Itoa(int(v)))
			p.changed()
		}
		form.Add(widget.NewLabel(ls.name))
		form.Add(container.NewBorder(nil, nil, nil, ls.value, ls.slider))
	}
	form.Add(widget.NewLabel("Material"))
	form.Add(p.preset)

	p.container = container.NewVBox(widget.NewRichTextFromMarkdown("**Adjustments**"), form)

	p.SetState(models.DefaultAdjustment(0))
	p.SetEnabled(false)
	return p
}

func (p *AdjustmentPanel) GetContainer() *fyne.Container {
	return p.container
}

func (p *AdjustmentPanel) SetChangeHandler(handler func(models.AdjustmentState)) {
	p.onChange = handler
}

// State reads the widgets. Moving a slider turns an automatic preset into
// a custom one.
func (p *AdjustmentPanel) State() models.AdjustmentState {
	return models.AdjustmentState{
		Brightness: p.brightness.get(),
		Contrast:   p.contrast.get(),
		Threshold:  p.threshold.get(),
		Preset:     models.PresetID(p.preset.Selected),
	}
}

// SetState moves the widgets without reporting a change.
func (p *AdjustmentPanel) SetState(state models.AdjustmentState) {
	p.updating = true
	defer func() { p.updating = false }()

	p.brightness.set(state.Brightness)
	p.contrast.set(state.Contrast)
	p.threshold.set(state.Threshold)
	p.preset.SetSelected(string(state.Preset))
}

// SetEnabled gates change reports. Sliders stay movable but are ignored
// until an image is ready.
func (p *AdjustmentPanel) SetEnabled(enabled bool) {
	p.enabled = enabled
	setEnabled(p.preset, enabled)
}

func (p *AdjustmentPanel) changed() {
	if p.updating || !p.enabled || p.onChange == nil {
		return
	}
	state := p.State()
	if state.Preset == models.PresetAuto {
		state.Preset = models.PresetCustom
		p.updating = true
		p.preset.SetSelected(string(models.PresetCustom))
		p.updating = false
	}
	p.onChange(state)
}
