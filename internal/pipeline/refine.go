package pipeline

import (
	"context"
	"fmt"

	"craftyprep/internal/models"
	"craftyprep/internal/processing/chain"
	"craftyprep/internal/processing/filters"
	"craftyprep/internal/processing/threshold"
	"craftyprep/internal/raster"
)

// refinementChain applies Brightness, Contrast and Threshold in that order.
// The steps are stateless so the chain is shared.
var refinementChain = chain.NewProcessingChain([]chain.ProcessingStep{
	filters.NewBrightnessAdjuster(),
	filters.NewContrastAdjuster(),
	threshold.NewBinarizer(),
})

// RefinementSteps lists the refinement steps in execution order.
func RefinementSteps() []string {
	return refinementChain.GetStepNames()
}

// Refine renders state on top of baseline. The baseline is only read, so
// repeated calls with the same state always give the same buffer.
func Refine(ctx context.Context, baseline *raster.Buffer, state models.AdjustmentState) (*raster.Buffer, error) {
	if baseline == nil {
		return nil, fmt.Errorf("refinement baseline: %w", raster.ErrInvalidDimensions)
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}

	out, err := refinementChain.Execute(ctx, baseline, state)
	if err != nil {
		return nil, fmt.Errorf("refinement failed: %w", err)
	}
	return out, nil
}
