package models

import (
	"fmt"

	"github.com/samber/lo"
)

// Adjustment ranges exposed by the refinement sliders.
const (
	MinBrightness = -100
	MaxBrightness = 100
	MinContrast   = -100
	MaxContrast   = 100
	MinThreshold  = 0
	MaxThreshold  = 255
)

// PresetID identifies the material preset a state was produced under.
// Presets carry no processing behaviour in the engine.
type PresetID string

const (
	PresetAuto    PresetID = "auto"
	PresetCustom  PresetID = "custom"
	PresetWood    PresetID = "wood"
	PresetLeather PresetID = "leather"
	PresetAcrylic PresetID = "acrylic"
	PresetSlate   PresetID = "slate"
	PresetGlass   PresetID = "glass"
	PresetPaper   PresetID = "paper"
)

var knownPresets = []PresetID{
	PresetAuto, PresetCustom, PresetWood, PresetLeather,
	PresetAcrylic, PresetSlate, PresetGlass, PresetPaper,
}

// Presets returns every known preset identifier.
func Presets() []PresetID {
	return append([]PresetID(nil), knownPresets...)
}

// Valid reports whether p is a known preset.
func (p PresetID) Valid() bool {
	return lo.Contains(knownPresets, p)
}

// AdjustmentState is one point in the user's editing history.
type AdjustmentState struct {
	Brightness int      `json:"brightness" yaml:"brightness"`
	Contrast   int      `json:"contrast" yaml:"contrast"`
	Threshold  int      `json:"threshold" yaml:"threshold"`
	Preset     PresetID `json:"preset" yaml:"preset"`
}

// DefaultAdjustment is the state restored by Reset for an image whose
// auto-prep threshold is autoThreshold.
func DefaultAdjustment(autoThreshold uint8) AdjustmentState {
	return AdjustmentState{
		Brightness: 0,
		Contrast:   0,
		Threshold:  int(autoThreshold),
		Preset:     PresetAuto,
	}
}

// Validate checks every field against its range.
func (s AdjustmentState) Validate() error {
	if s.Brightness < MinBrightness || s.Brightness > MaxBrightness {
		return NewValidationError("brightness", s.Brightness,
			fmt.Sprintf("must be between %d and %d", MinBrightness, MaxBrightness))
	}
	if s.Contrast < MinContrast || s.Contrast > MaxContrast {
		return NewValidationError("contrast", s.Contrast,
			fmt.Sprintf("must be between %d and %d", MinContrast, MaxContrast))
	}
	if s.Threshold < MinThreshold || s.Threshold > MaxThreshold {
		return NewValidationError("threshold", s.Threshold,
			fmt.Sprintf("must be between %d and %d", MinThreshold, MaxThreshold))
	}
	if !s.Preset.Valid() {
		return NewValidationError("preset", s.Preset, "unknown preset")
	}
	return nil
}

// ValidationError represents a parameter validation error
type ValidationError struct {
	Parameter string
	Value     interface{}
	Message   string
}

// NewValidationError creates a new validation error
func NewValidationError(parameter string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Parameter: parameter,
		Value:     value,
		Message:   message,
	}
}

// Error returns the error message
func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for parameter '%s' with value '%v': %s",
		ve.Parameter, ve.Value, ve.Message)
}
