package models

import (
	"sync"
	"time"
)

// MsgProcessingFailed is the only failure text shown to end users. The
// technical cause goes to the log.
const MsgProcessingFailed = "Image processing failed. Please try a different image."

// ProcessingStatus is the observable state of an auto-prep run.
type ProcessingStatus int

const (
	StatusIdle ProcessingStatus = iota
	StatusProcessing
	StatusDone
	StatusFailed
)

func (s ProcessingStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusProcessing:
		return "processing"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ProcessingState represents the current state of image processing
type ProcessingState struct {
	Status       ProcessingStatus
	Generation   uint64
	CurrentStage string
	Progress     float64
	Message      string
	StartTime    time.Time
	Duration     time.Duration
}

// IsActive reports whether a run is in flight.
func (ps ProcessingState) IsActive() bool {
	return ps.Status == StatusProcessing
}

// ProcessingStateRepository manages processing state. Every mutator takes
// the generation of the run it reports for and ignores stale ones.
type ProcessingStateRepository struct {
	mu    sync.RWMutex
	state ProcessingState
}

// NewProcessingStateRepository creates a new processing state repository
func NewProcessingStateRepository() *ProcessingStateRepository {
	return &ProcessingStateRepository{
		state: ProcessingState{Status: StatusIdle},
	}
}

// GetState returns the current processing state
func (psr *ProcessingStateRepository) GetState() ProcessingState {
	psr.mu.RLock()
	defer psr.mu.RUnlock()
	return psr.state
}

// StartProcessing marks generation as the active run.
func (psr *ProcessingStateRepository) StartProcessing(generation uint64) {
	psr.mu.Lock()
	defer psr.mu.Unlock()

	psr.state = ProcessingState{
		Status:       StatusProcessing,
		Generation:   generation,
		CurrentStage: "Initializing",
		StartTime:    time.Now(),
	}
}

// UpdateProgress updates processing progress and stage
func (psr *ProcessingStateRepository) UpdateProgress(generation uint64, stage string, progress float64) {
	psr.mu.Lock()
	defer psr.mu.Unlock()

	if psr.state.Generation != generation || !psr.state.IsActive() {
		return
	}
	psr.state.CurrentStage = stage
	psr.state.Progress = progress
}

// CompleteProcessing marks generation as done. It returns false when the
// generation has been superseded.
func (psr *ProcessingStateRepository) CompleteProcessing(generation uint64) bool {
	psr.mu.Lock()
	defer psr.mu.Unlock()

	if psr.state.Generation != generation {
		return false
	}
	psr.state.Status = StatusDone
	psr.state.CurrentStage = "Complete"
	psr.state.Progress = 1.0
	psr.state.Message = ""
	psr.state.Duration = time.Since(psr.state.StartTime)
	return true
}

// FailProcessing marks generation as failed with a user-facing message.
func (psr *ProcessingStateRepository) FailProcessing(generation uint64, message string) bool {
	psr.mu.Lock()
	defer psr.mu.Unlock()

	if psr.state.Generation != generation {
		return false
	}
	psr.state.Status = StatusFailed
	psr.state.CurrentStage = "Failed"
	psr.state.Message = message
	psr.state.Duration = time.Since(psr.state.StartTime)
	return true
}

// Reset returns to idle under a new generation so late results from the
// previous run are treated as stale.
func (psr *ProcessingStateRepository) Reset(generation uint64) {
	psr.mu.Lock()
	defer psr.mu.Unlock()

	psr.state = ProcessingState{
		Status:     StatusIdle,
		Generation: generation,
	}
}

