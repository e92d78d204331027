package runtime

import (
	"errors"
	"fmt"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/graph"
	"github.com/aretw0/wayfinder/pkg/schema"
)

func validateInput(wf *graph.Workflow, input map[string]any) error {
	if err := wf.Schema.ValidateInput(input); err != nil {
		return &domain.StateValidationError{Workflow: wf.Name, Err: classify(err)}
	}
	// Counters start from zero on every invocation; a seeded counter would move the ceiling.
	for _, counter := range wf.Counters() {
		if v, ok := input[counter]; ok && v != nil {
			return &domain.StateValidationError{
				Workflow: wf.Name,
				Err:      fmt.Errorf("%w: '%s' is the counter of a bounded retry edge", domain.ErrReservedField, counter),
			}
		}
	}
	return nil
}

func validateUpdate(wf *graph.Workflow, nodeID string, update domain.Update) error {
	if err := wf.Schema.ValidatePartial(update); err != nil {
		return &domain.StateValidationError{Workflow: wf.Name, NodeID: nodeID, Err: classify(err)}
	}
	return nil
}

// classify tags schema failures caused by undeclared fields with domain.ErrUndeclaredField.
func classify(err error) error {
	if errors.Is(err, schema.ErrUndeclared) {
		return fmt.Errorf("%w: %w", domain.ErrUndeclaredField, err)
	}
	return err
}
