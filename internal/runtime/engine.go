package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/graph"
)

// Engine walks compiled workflows. It holds no per-invocation state, so a single Engine
// may serve concurrent invocations.
type Engine struct {
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	maxSteps int
	now      func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger. Defaults to a discard logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMaxSteps caps the number of node executions per invocation.
// Zero (the default) means no workflow-wide cap: only bounded retry edges limit cycles.
func WithMaxSteps(n int) EngineOption {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// WithClock overrides the time source used for event timestamps and durations.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes wf from its entry node until a terminal node or domain.End is reached.
// The input is validated against the workflow schema and copied; it is never mutated.
// On failure no state is returned.
func (e *Engine) Run(ctx context.Context, wf *graph.Workflow, runID string, input map[string]any) (*domain.State, error) {
	if wf == nil {
		return nil, errors.New("nil workflow")
	}

	started := e.now()
	e.emitRunStart(ctx, wf, runID, started)

	state, err := e.walk(ctx, wf, runID, input)

	steps := 0
	if state != nil {
		steps = len(state.History)
	}
	e.emitRunEnd(ctx, wf, runID, started, steps, err)

	if err != nil {
		e.logger.Warn("run failed", "run_id", runID, "workflow", wf.Name, "err", err)
		return nil, err
	}
	e.logger.Debug("run completed", "run_id", runID, "workflow", wf.Name, "steps", steps)
	return state, nil
}

func (e *Engine) walk(ctx context.Context, wf *graph.Workflow, runID string, input map[string]any) (*domain.State, error) {
	if err := validateInput(wf, input); err != nil {
		return nil, err
	}

	state := domain.NewState(wf.Name, wf.Entry, input)
	state.RunID = runID
	current := wf.Entry

	for {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		if e.maxSteps > 0 && len(state.History) >= e.maxSteps {
			return state, fmt.Errorf("%w: %d steps without reaching a terminal node (at '%s')", domain.ErrMaxStepsExceeded, e.maxSteps, current)
		}

		if err := e.step(ctx, wf, state, current); err != nil {
			return state, err
		}

		if wf.IsTerminal(current) {
			state.Status = domain.StatusCompleted
			return state, nil
		}

		next, err := e.route(ctx, wf, state, current)
		if err != nil {
			return state, err
		}
		if next == domain.End {
			state.Status = domain.StatusCompleted
			return state, nil
		}
		current = next
	}
}

// step executes one node and merges its update into state.
func (e *Engine) step(ctx context.Context, wf *graph.Workflow, state *domain.State, nodeID string) error {
	fn, err := wf.Nodes.Lookup(nodeID)
	if err != nil {
		return err
	}

	state.CurrentNodeID = nodeID
	state.History = append(state.History, nodeID)
	stepNo := len(state.History)

	e.logger.Debug("node enter", "run_id", state.RunID, "node_id", nodeID, "step", stepNo)
	e.emitNodeEnter(ctx, state, stepNo)

	began := e.now()
	update, err := fn(ctx, state.View())
	if err != nil {
		e.emitNodeLeave(ctx, state, stepNo, began, nil, err)
		return &domain.NodeError{NodeID: nodeID, Err: err}
	}
	if err := validateUpdate(wf, nodeID, update); err != nil {
		e.emitNodeLeave(ctx, state, stepNo, began, nil, err)
		return err
	}

	changed := domain.ChangedFields(state.Context, update)
	apply(state, update)

	e.logger.Debug("node leave", "run_id", state.RunID, "node_id", nodeID, "changed", changed)
	e.emitNodeLeave(ctx, state, stepNo, began, changed, nil)
	return nil
}

// route resolves the successor of nodeID and applies any edge-owned update.
func (e *Engine) route(ctx context.Context, wf *graph.Workflow, state *domain.State, nodeID string) (string, error) {
	res, err := wf.Edges.ResolveNext(nodeID, state.View())
	if err != nil {
		return "", err
	}
	if len(res.Update) > 0 {
		if err := wf.Schema.ValidatePartial(res.Update); err != nil {
			return "", &domain.RouteError{From: nodeID, Label: res.Label, Err: err}
		}
		apply(state, res.Update)
	}
	if res.Next != domain.End && !wf.Nodes.Has(res.Next) {
		return "", &domain.RouteError{
			From:  nodeID,
			Label: res.Label,
			Err:   fmt.Errorf("%w: %s", domain.ErrUnknownNode, res.Next),
		}
	}

	if res.Forced {
		e.logger.Info("retry ceiling reached, forcing route",
			"run_id", state.RunID, "node_id", nodeID, "label", res.Label, "visits", res.Visits)
	} else {
		e.logger.Debug("route", "run_id", state.RunID, "from", nodeID, "to", res.Next, "label", res.Label)
	}
	e.emitRoute(ctx, state, nodeID, res)
	return res.Next, nil
}

func apply(state *domain.State, update domain.Update) {
	for k, v := range update {
		state.Context[k] = v
	}
}
