package cli

import (
	"github.com/spf13/pflag"

	"craftyprep/internal/models"
)

// adjustmentFlags holds the refinement values given on the command line.
type adjustmentFlags struct {
	brightness int
	contrast   int
	threshold  int
	preset     string
	outDir     string
	format     string
}

func (a *adjustmentFlags) register(fs *pflag.FlagSet) {
	fs.IntVarP(&a.brightness, "brightness", "b", 0, "brightness offset (-100..100)")
	fs.IntVarP(&a.contrast, "contrast", "c", 0, "contrast (-100..100)")
	fs.IntVarP(&a.threshold, "threshold", "t", 0, "binarization threshold (0..255, default: automatic)")
	fs.StringVar(&a.preset, "preset", "", "material preset recorded with the settings")
	fs.StringVarP(&a.outDir, "out", "o", ".", "output directory")
	fs.StringVar(&a.format, "format", "", "output format (png, jpg, bmp, tif, gif; default: png)")
}

// state resolves the flags against the auto threshold of one image.
func (a *adjustmentFlags) state(fs *pflag.FlagSet, autoThreshold uint8) (models.AdjustmentState, error) {
	st := models.DefaultAdjustment(autoThreshold)
	st.Brightness = a.brightness
	st.Contrast = a.contrast
	if fs.Changed("threshold") {
		st.Threshold = a.threshold
	}
	if a.preset != "" {
		st.Preset = models.PresetID(a.preset)
	} else if fs.Changed("brightness") || fs.Changed("contrast") || fs.Changed("threshold") {
		st.Preset = models.PresetCustom
	}
	return st, st.Validate()
}
