package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"craftyprep/internal/logger"
	"craftyprep/internal/models"
	"craftyprep/internal/raster"
	"craftyprep/internal/timing"
)

const component = "AutoPrep"

// timingSamples bounds the per-stage history kept by a coordinator.
const timingSamples = 50

// ErrCoordinatorClosed is returned by Start after Close.
var ErrCoordinatorClosed = errors.New("coordinator closed")

// Completion is delivered for the current run only. Err is the technical
// cause; the user-facing text is in the state repository.
type Completion struct {
	Generation uint64
	Result     *Result
	Err        error
}

// Coordinator runs AutoPrep off the caller's goroutine with last-call-wins
// semantics: Start cancels the previous run and bumps the generation, and
// results from superseded generations are dropped without notice.
type Coordinator struct {
	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	closed     bool
	wg         sync.WaitGroup

	state      *models.ProcessingStateRepository
	timings    *timing.Tracker
	logger     logger.Logger
	onComplete func(Completion)
	process    func(context.Context, *raster.Buffer, ProgressFunc) (*Result, error)
}

// NewCoordinator creates a coordinator reporting into state. onComplete may
// be nil.
func NewCoordinator(log logger.Logger, state *models.ProcessingStateRepository, onComplete func(Completion)) *Coordinator {
	if state == nil {
		state = models.NewProcessingStateRepository()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Coordinator{
		state:      state,
		timings:    timing.NewTracker(timingSamples),
		logger:     log,
		onComplete: onComplete,
		process:    AutoPrep,
	}
}

// Start launches an auto-prep run over src and returns its generation.
func (c *Coordinator) Start(src *raster.Buffer) (uint64, error) {
	if src == nil {
		return 0, fmt.Errorf("auto-prep source: %w", raster.ErrInvalidDimensions)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, ErrCoordinatorClosed
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	generation := c.generation
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state.StartProcessing(generation)
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Debug(component, "run started", map[string]interface{}{
		"generation": generation,
		"width":      src.Width(),
		"height":     src.Height(),
	})

	go c.run(ctx, cancel, generation, src)

	return generation, nil
}

func (c *Coordinator) run(ctx context.Context, cancel context.CancelFunc, generation uint64, src *raster.Buffer) {
	defer c.wg.Done()
	defer cancel()

	result, err := c.process(ctx, src, func(stage string, progress float64) {
		c.state.UpdateProgress(generation, stage, progress)
	})

	if !c.IsCurrent(generation) {
		c.logger.Debug(component, "discarding stale result", map[string]interface{}{
			"generation": generation,
		})
		return
	}

	if err != nil {
		if !c.state.FailProcessing(generation, models.MsgProcessingFailed) {
			return
		}
		c.logger.Error(component, err, map[string]interface{}{
			"generation": generation,
			"width":      src.Width(),
			"height":     src.Height(),
		})
		c.notify(Completion{Generation: generation, Err: err})
		return
	}

	if !c.state.CompleteProcessing(generation) {
		return
	}
	for _, st := range result.Stages {
		c.timings.Record(st.Stage, st.Duration)
	}
	c.logger.Info(component, "baseline ready", map[string]interface{}{
		"generation":  generation,
		"threshold":   result.Threshold,
		"duration_ms": result.Duration.Milliseconds(),
	})
	c.notify(Completion{Generation: generation, Result: result})
}

func (c *Coordinator) notify(completion Completion) {
	if c.onComplete != nil {
		c.onComplete(completion)
	}
}

// IsCurrent reports whether generation is the most recently started run.
func (c *Coordinator) IsCurrent(generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && generation == c.generation
}

// Generation returns the most recently issued generation.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Cancel abandons the in-flight run, if any, and returns to idle.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	c.state.Reset(c.generation)
	c.mu.Unlock()
}

// State returns the observable processing state.
func (c *Coordinator) State() models.ProcessingState {
	return c.state.GetState()
}

// Timings returns stage durations of completed current runs.
func (c *Coordinator) Timings() *timing.Tracker {
	return c.timings
}

// Wait blocks until every started run has returned.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close cancels in-flight work and waits for it. Further Starts fail.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	c.wg.Wait()
}

// Shutdown satisfies shutdown.Shutdownable.
func (c *Coordinator) Shutdown() {
	c.Close()
}
