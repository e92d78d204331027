package ports

import (
	"context"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/graph"
)

// Invoker runs a workflow to completion. Implemented by wayfinder.Engine.
type Invoker interface {
	InvokeRun(ctx context.Context, runID string, wf *graph.Workflow, input map[string]any) (*domain.State, error)
}
