// Package gui is the Fyne desktop front end.
package gui

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"fyne.io/fyne/v2"
	"github.com/disintegration/imaging"

	"craftyprep/internal/config"
	"craftyprep/internal/imageio"
	"craftyprep/internal/logger"
	"craftyprep/internal/models"
	"craftyprep/internal/pipeline"
	"craftyprep/internal/raster"
	"craftyprep/internal/session"
	"craftyprep/internal/settings"
)

const component = "Controller"

// Controller connects the view to a session. Session callbacks arrive on
// background goroutines and are marshalled onto the UI with fyne.Do.
type Controller struct {
	view    *View
	session *session.Session
	store   *settings.Store
	logger  logger.Logger
	opts    imageio.Options

	mu          sync.Mutex
	preferred   models.AdjustmentState
	hasPref     bool
	lastSaved   models.AdjustmentState
	restoredGen uint64
	shownSource *raster.Buffer
	shownPrev   *raster.Buffer
}

// NewController creates the session driving view. store may be nil, in
// which case adjustments are not persisted.
func NewController(view *View, cfg config.Config, store *settings.Store, log logger.Logger) *Controller {
	if log == nil {
		log = logger.Nop()
	}
	c := &Controller{
		view:   view,
		store:  store,
		logger: log,
		opts: imageio.Options{
			MaxBytes:     cfg.Processing.MaxUploadBytes,
			MaxDimension: cfg.Processing.MaxDimension,
		},
	}

	if store != nil {
		state, ok, err := store.Load()
		switch {
		case err != nil:
			log.Warning(component, "ignoring saved settings", map[string]interface{}{
				"path":  store.Path(),
				"error": err.Error(),
			})
		case ok:
			c.preferred, c.hasPref, c.lastSaved = state, true, state
		}
	}

	c.session = session.New(session.Options{
		Processing: cfg.Processing,
		Logger:     log,
		OnChange:   c.onSnapshot,
	})
	view.SetController(c)
	return c
}

func (c *Controller) Session() *session.Session {
	return c.session
}

func (c *Controller) OpenImage() {
	c.view.ShowOpenDialog(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			c.handleError("file selection", err)
			return
		}
		if reader == nil {
			return
		}

		c.view.SetStatus("Loading image...")

		go func() {
			defer reader.Close()

			buf, info, err := imageio.Load(reader, c.opts)
			if err != nil {
				c.handleError("image load", err)
				fyne.Do(func() { c.view.SetStatus("Open an image to start") })
				return
			}

			c.logger.Info(component, "image opened", map[string]interface{}{
				"name":   reader.URI().Name(),
				"format": info.Format,
				"width":  info.Width,
				"height": info.Height,
				"scaled": info.Scaled(),
			})

			if err := c.session.Load(buf); err != nil {
				c.handleError("image load", err)
			}
		}()
	})
}

func (c *Controller) ExportImage() {
	if !c.session.Snapshot().HasImage() {
		c.handleError("export", session.ErrNoImage)
		return
	}

	c.view.ShowSaveDialog(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			c.handleError("file selection", err)
			return
		}
		if writer == nil {
			return
		}

		format := imageio.FormatFor(writer.URI().Name())
		go func() {
			defer writer.Close()

			if err := c.export(writer, format); err != nil {
				c.handleError("export", err)
				return
			}
			c.logger.Info(component, "image exported", map[string]interface{}{
				"uri":    writer.URI().String(),
				"format": format.String(),
			})
			fyne.Do(func() { c.view.SetStatus("Exported " + writer.URI().Name()) })
		}()
	})
}

// export writes the displayed image after applying any slider input still
// waiting for the debounce window.
func (c *Controller) export(w io.Writer, format imaging.Format) error {
	c.session.Flush()
	snap := c.session.Snapshot()
	if snap.Displayed == nil {
		return session.ErrNoImage
	}
	return imageio.Save(w, snap.Displayed, format)
}

// Adjust forwards slider input; the session debounces it.
func (c *Controller) Adjust(state models.AdjustmentState) {
	if err := c.session.SetAdjustment(state); err != nil && !errors.Is(err, session.ErrNoImage) {
		c.handleError("adjustment", err)
	}
}

func (c *Controller) Undo() {
	c.session.Undo()
}

func (c *Controller) Redo() {
	c.session.Redo()
}

func (c *Controller) Reset() {
	if err := c.session.Reset(); err != nil && !errors.Is(err, session.ErrNoImage) {
		c.handleError("reset", err)
	}
}

func (c *Controller) onSnapshot(snap session.Snapshot) {
	if state, ok := c.restoreFor(snap); ok {
		if err := c.session.Apply(state); err != nil {
			c.logger.Warning(component, "saved adjustment not applied", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return
	}
	c.persist(snap)

	c.mu.Lock()
	var original, preview *raster.Buffer
	if snap.Source != c.shownSource {
		c.shownSource = snap.Source
		original = snap.Source
	}
	if snap.Displayed != c.shownPrev {
		c.shownPrev = snap.Displayed
		preview = snap.Displayed
	}
	c.mu.Unlock()

	coverage, hasCoverage := 0.0, false
	if snap.Displayed != nil {
		coverage, hasCoverage = pipeline.CalculateCoverage(snap.Displayed).BlackFraction, true
	}
	status := describe(snap)

	fyne.Do(func() {
		if original != nil {
			c.view.SetOriginalImage(original.ToImage())
			c.view.SetPreviewImage(nil, "")
		}
		if preview != nil {
			c.view.SetPreviewImage(preview.ToImage(), "")
		}
		if !snap.Pending {
			c.view.SetAdjustment(snap.Adjustment)
		}
		c.view.SetEditable(snap.HasImage(), snap.CanUndo, snap.CanRedo)
		c.view.SetStatus(status)
		c.view.SetProgress(snap.Progress)
		c.view.SetCoverage(coverage, hasCoverage)
	})
}

// persist saves the adjustment when it differs from the last one written.
func (c *Controller) persist(snap session.Snapshot) {
	if c.store == nil || !snap.HasImage() {
		return
	}

	c.mu.Lock()
	if snap.Adjustment == c.lastSaved {
		c.mu.Unlock()
		return
	}
	c.lastSaved = snap.Adjustment
	c.preferred, c.hasPref = snap.Adjustment, true
	c.mu.Unlock()

	if err := c.store.Save(snap.Adjustment); err != nil {
		c.logger.Error(component, fmt.Errorf("save settings: %w", err), map[string]interface{}{
			"path": c.store.Path(),
		})
	}
}

// restoreFor returns the saved brightness and contrast to apply once per
// freshly prepared image. The threshold always starts at the image's own
// automatic value.
func (c *Controller) restoreFor(snap session.Snapshot) (models.AdjustmentState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !snap.HasImage() || snap.Generation == c.restoredGen {
		return models.AdjustmentState{}, false
	}
	c.restoredGen = snap.Generation

	if !c.hasPref || (c.preferred.Brightness == 0 && c.preferred.Contrast == 0) {
		return models.AdjustmentState{}, false
	}

	state := models.DefaultAdjustment(snap.AutoThreshold)
	state.Brightness = c.preferred.Brightness
	state.Contrast = c.preferred.Contrast
	if c.preferred.Preset != models.PresetAuto {
		state.Preset = c.preferred.Preset
	} else {
		state.Preset = models.PresetCustom
	}
	return state, true
}

// describe renders the status bar text for snap.
func describe(snap session.Snapshot) string {
	switch snap.Status {
	case models.StatusProcessing:
		if snap.Stage != "" {
			return fmt.Sprintf("Preparing image (%s)...", snap.Stage)
		}
		return "Preparing image..."
	case models.StatusFailed:
		return snap.Message
	case models.StatusDone:
		if snap.Pending {
			return "Updating preview..."
		}
		return fmt.Sprintf("Ready (auto threshold %d)", snap.AutoThreshold)
	default:
		return "Open an image to start"
	}
}

func (c *Controller) handleError(op string, err error) {
	c.logger.Error(component, err, map[string]interface{}{
		"operation": op,
	})
	fyne.Do(func() {
		c.view.ShowError(err)
	})
}

// Shutdown closes the session.
func (c *Controller) Shutdown() {
	c.session.Close()
}
