// Package session ties one loaded image to its auto-prep baseline, the
// refinement sliders and the undo history.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"craftyprep/internal/config"
	"craftyprep/internal/debounce"
	"craftyprep/internal/history"
	"craftyprep/internal/logger"
	"craftyprep/internal/models"
	"craftyprep/internal/pipeline"
	"craftyprep/internal/raster"
)

const component = "Session"

var (
	ErrNoImage = errors.New("no processed image")
	ErrClosed  = errors.New("session closed")
)

// Options configures a Session. Zero values fall back to config defaults.
type Options struct {
	Processing config.ProcessingConfig
	Logger     logger.Logger
	// OnChange is called with a fresh snapshot after every visible change.
	// It runs on whichever goroutine made the change and must not block.
	OnChange func(Snapshot)
}

// Snapshot is a read-only view of the session. The buffers are shared and
// must not be modified.
type Snapshot struct {
	Status        models.ProcessingStatus
	Message       string
	Stage         string
	Progress      float64
	Source        *raster.Buffer
	Baseline      *raster.Buffer
	Displayed     *raster.Buffer
	Adjustment    models.AdjustmentState
	Pending       bool
	AutoThreshold uint8
	CanUndo       bool
	CanRedo       bool
	Generation    uint64
}

// HasImage reports whether a baseline is available for refinement.
func (s Snapshot) HasImage() bool {
	return s.Baseline != nil
}

// Session is safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	source     *raster.Buffer
	baseline   *raster.Buffer
	displayed  *raster.Buffer
	adjustment models.AdjustmentState
	autoT      uint8
	closed     bool

	coordinator *pipeline.Coordinator
	debouncer   *debounce.Debouncer[models.AdjustmentState]
	history     *history.Stack
	logger      logger.Logger
	onChange    func(Snapshot)
}

func New(opts Options) *Session {
	defaults := config.Default().Processing
	if opts.Processing.DebounceMS <= 0 {
		opts.Processing.DebounceMS = defaults.DebounceMS
	}
	if opts.Processing.HistoryDepth <= 0 {
		opts.Processing.HistoryDepth = defaults.HistoryDepth
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	s := &Session{
		history:    history.New(opts.Processing.HistoryDepth),
		logger:     opts.Logger,
		onChange:   opts.OnChange,
		adjustment: models.DefaultAdjustment(0),
	}
	s.coordinator = pipeline.NewCoordinator(opts.Logger, models.NewProcessingStateRepository(), s.handleCompletion)
	s.debouncer = debounce.New(opts.Processing.DebounceWindow(), s.handleSettled)
	return s
}

// Load replaces the current image and starts auto-prep in the background.
// History and any pending slider input are discarded.
func (s *Session) Load(src *raster.Buffer) error {
	if src == nil || src.Width() <= 0 || src.Height() <= 0 {
		return fmt.Errorf("load image: %w", raster.ErrInvalidDimensions)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.debouncer.Cancel()
	s.history.Clear()
	s.source = src
	s.baseline = nil
	s.displayed = nil
	s.autoT = 0
	s.adjustment = models.DefaultAdjustment(0)

	generation, err := s.coordinator.Start(src)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("start auto-prep: %w", err)
	}

	s.logger.Info(component, "image loaded", map[string]interface{}{
		"generation": generation,
		"width":      src.Width(),
		"height":     src.Height(),
	})
	s.notify()
	return nil
}

func (s *Session) handleCompletion(c pipeline.Completion) {
	s.mu.Lock()
	if s.closed || !s.coordinator.IsCurrent(c.Generation) {
		s.mu.Unlock()
		return
	}

	if c.Err != nil {
		s.mu.Unlock()
		s.notify()
		return
	}

	s.baseline = c.Result.Baseline
	s.autoT = c.Result.Threshold
	s.history.Clear()
	if err := s.renderLocked(models.DefaultAdjustment(s.autoT), true); err != nil {
		s.logger.Error(component, err, map[string]interface{}{
			"generation": c.Generation,
		})
	}
	s.mu.Unlock()

	s.notify()
}

// SetAdjustment records slider input. The preview is recomputed once the
// input has been quiet for the debounce window.
func (s *Session) SetAdjustment(state models.AdjustmentState) error {
	if err := state.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.baseline == nil {
		return ErrNoImage
	}
	s.debouncer.Push(state)
	return nil
}

func (s *Session) handleSettled(seq uint64, state models.AdjustmentState) {
	s.mu.Lock()
	baseline := s.baseline
	s.mu.Unlock()
	if baseline == nil {
		return
	}

	out, err := pipeline.Refine(context.Background(), baseline, state)
	if err != nil {
		s.logger.Error(component, err, map[string]interface{}{
			"seq": seq,
		})
		return
	}

	if s.commitSettled(seq, baseline, state, out) {
		s.notify()
	}
}

// commitSettled installs a refinement of baseline computed for input seq.
// It reports false, leaving the session untouched, when newer input, a
// history move or a reload arrived while the refinement ran.
func (s *Session) commitSettled(seq uint64, baseline *raster.Buffer, state models.AdjustmentState, out *raster.Buffer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.baseline != baseline || s.debouncer.Seq() != seq {
		s.logger.Debug(component, "discarding superseded refinement", map[string]interface{}{
			"seq": seq,
		})
		return false
	}
	s.displayed = out
	s.adjustment = state
	s.history.Push(state)
	return true
}

// Apply renders state immediately and records it in history, bypassing
// the debounce window.
func (s *Session) Apply(state models.AdjustmentState) error {
	if err := state.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if err := s.usableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.debouncer.Cancel()
	err := s.renderLocked(state, true)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.notify()
	return nil
}

// Undo restores the previous history entry. It reports false when there
// was nothing to undo.
func (s *Session) Undo() bool {
	return s.step(s.history.Undo, "undo")
}

// Redo re-applies the next history entry. It reports false when there was
// nothing to redo.
func (s *Session) Redo() bool {
	return s.step(s.history.Redo, "redo")
}

func (s *Session) step(move func() (models.AdjustmentState, bool), op string) bool {
	s.mu.Lock()
	if s.usableLocked() != nil {
		s.mu.Unlock()
		return false
	}
	s.debouncer.Cancel()

	state, ok := move()
	if !ok {
		s.mu.Unlock()
		return false
	}
	err := s.renderLocked(state, false)
	s.mu.Unlock()

	if err != nil {
		s.logger.Error(component, fmt.Errorf("%s: %w", op, err), nil)
		return false
	}
	s.notify()
	return true
}

// Reset returns to the default adjustment with the auto-computed threshold.
func (s *Session) Reset() error {
	s.mu.Lock()
	if err := s.usableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.debouncer.Cancel()
	err := s.renderLocked(models.DefaultAdjustment(s.autoT), true)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *Session) usableLocked() error {
	if s.closed {
		return ErrClosed
	}
	if s.baseline == nil {
		return ErrNoImage
	}
	return nil
}

// renderLocked recomputes the displayed buffer from the baseline. The
// caller holds s.mu.
func (s *Session) renderLocked(state models.AdjustmentState, record bool) error {
	start := time.Now()
	out, err := pipeline.Refine(context.Background(), s.baseline, state)
	if err != nil {
		return err
	}
	s.displayed = out
	s.adjustment = state
	if record {
		s.history.Push(state)
	}

	s.logger.Debug(component, "preview rendered", map[string]interface{}{
		"brightness":  state.Brightness,
		"contrast":    state.Contrast,
		"threshold":   state.Threshold,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	ps := s.coordinator.State()
	_, pending := s.debouncer.Pending()
	return Snapshot{
		Status:        ps.Status,
		Message:       ps.Message,
		Stage:         ps.CurrentStage,
		Progress:      ps.Progress,
		Source:        s.source,
		Baseline:      s.baseline,
		Displayed:     s.displayed,
		Adjustment:    s.adjustment,
		Pending:       pending,
		AutoThreshold: s.autoT,
		CanUndo:       s.history.CanUndo(),
		CanRedo:       s.history.CanRedo(),
		Generation:    ps.Generation,
	}
}

// Wait blocks until the in-flight auto-prep run, if any, has returned.
func (s *Session) Wait() {
	s.coordinator.Wait()
}

// Flush applies pending slider input immediately.
func (s *Session) Flush() bool {
	return s.debouncer.Flush()
}

func (s *Session) notify() {
	if s.onChange != nil {
		s.onChange(s.Snapshot())
	}
}

// Close cancels in-flight work. Later calls return ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.debouncer.Stop()
	s.mu.Unlock()

	s.coordinator.Close()
	s.logger.Info(component, "session closed", nil)
}

// Shutdown satisfies shutdown.Shutdownable.
func (s *Session) Shutdown() {
	s.Close()
}
