package chain

import (
	"context"
	"fmt"

	"craftyprep/internal/models"
	"craftyprep/internal/raster"
)

// ProcessingStep is one buffer transform in a chain. Apply must not
// mutate its input.
type ProcessingStep interface {
	Apply(ctx context.Context, input *raster.Buffer, params models.AdjustmentState) (*raster.Buffer, error)
	Name() string
	ShouldExecute(params models.AdjustmentState) bool
}

// StepObserver is told when each executed step finishes. output is the
// step's result and must not be modified.
type StepObserver func(step string, index, total int, output *raster.Buffer)

type ProcessingChain struct {
	steps []ProcessingStep
}

func NewProcessingChain(steps []ProcessingStep) *ProcessingChain {
	return &ProcessingChain{
		steps: steps,
	}
}

// Execute runs the steps in order. The result never aliases input, even
// when every step is skipped.
func (pc *ProcessingChain) Execute(ctx context.Context, input *raster.Buffer, params models.AdjustmentState) (*raster.Buffer, error) {
	return pc.ExecuteObserved(ctx, input, params, nil)
}

func (pc *ProcessingChain) ExecuteObserved(ctx context.Context, input *raster.Buffer, params models.AdjustmentState, observe StepObserver) (*raster.Buffer, error) {
	if input == nil {
		return nil, fmt.Errorf("chain input is nil")
	}

	current := input

	for i, step := range pc.steps {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !step.ShouldExecute(params) {
			continue
		}

		result, err := step.Apply(ctx, current, params)
		if err != nil {
			return nil, fmt.Errorf("step %s failed: %w", step.Name(), err)
		}
		if result == nil {
			return nil, fmt.Errorf("step %s returned nil buffer", step.Name())
		}

		current = result
		if observe != nil {
			observe(step.Name(), i, len(pc.steps), result)
		}
	}

	if current == input {
		return input.Clone(), nil
	}
	return current, nil
}

func (pc *ProcessingChain) GetStepNames() []string {
	names := make([]string, len(pc.steps))
	for i, step := range pc.steps {
		names[i] = step.Name()
	}
	return names
}
