package wayfinder

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/wayfinder/internal/runtime"
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/graph"
)

// Workflow is a compiled graph definition. Build one with pkg/dsl.
type Workflow = graph.Workflow

// State is the outcome of an invocation.
type State = domain.State

// Engine is the high-level entry point for the Wayfinder library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime  *runtime.Engine
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	maxSteps int
	clock    func() time.Time
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxSteps enables a workflow-wide step cap. Off by default.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// WithClock overrides the time source used in lifecycle events.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.clock = now
	}
}

// New initializes a new Wayfinder Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized (so we don't pass nil to runtime)
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	eng.runtime = runtime.NewEngine(
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithMaxSteps(eng.maxSteps),
		runtime.WithClock(eng.clock),
	)
	return eng
}

// Invoke runs wf to completion with the given input and returns the final state.
// On error no state is returned.
func (e *Engine) Invoke(ctx context.Context, wf *Workflow, input map[string]any) (*State, error) {
	return e.runtime.Run(ctx, wf, "", input)
}

// InvokeRun is Invoke with a caller-assigned run id, propagated to hooks, logs and the state.
func (e *Engine) InvokeRun(ctx context.Context, runID string, wf *Workflow, input map[string]any) (*State, error) {
	return e.runtime.Run(ctx, wf, runID, input)
}

// Inspect returns the shape of a workflow for visualization or introspection tools.
func (e *Engine) Inspect(wf *Workflow) graph.Description {
	return wf.Describe()
}
