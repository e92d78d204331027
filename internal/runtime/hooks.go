package runtime

import (
	"context"
	"time"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/graph"
)

func (e *Engine) base(t domain.EventType, runID, workflow string) domain.EventBase {
	return domain.EventBase{Timestamp: e.now(), Type: t, RunID: runID, Workflow: workflow}
}

func (e *Engine) emitRunStart(ctx context.Context, wf *graph.Workflow, runID string, started time.Time) {
	if e.hooks.OnRunStart == nil {
		return
	}
	ev := &domain.RunEvent{EventBase: e.base(domain.EventRunStart, runID, wf.Name)}
	ev.Timestamp = started
	e.hooks.OnRunStart(ctx, ev)
}

func (e *Engine) emitRunEnd(ctx context.Context, wf *graph.Workflow, runID string, started time.Time, steps int, err error) {
	if e.hooks.OnRunEnd == nil {
		return
	}
	ev := &domain.RunEvent{
		EventBase: e.base(domain.EventRunEnd, runID, wf.Name),
		Steps:     steps,
		Err:       err,
	}
	ev.Duration = ev.Timestamp.Sub(started)
	e.hooks.OnRunEnd(ctx, ev)
}

func (e *Engine) emitNodeEnter(ctx context.Context, state *domain.State, step int) {
	if e.hooks.OnNodeEnter == nil {
		return
	}
	e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
		EventBase: e.base(domain.EventNodeEnter, state.RunID, state.Workflow),
		NodeID:    state.CurrentNodeID,
		Step:      step,
	})
}

func (e *Engine) emitNodeLeave(ctx context.Context, state *domain.State, step int, began time.Time, changed []string, err error) {
	if e.hooks.OnNodeLeave == nil {
		return
	}
	ev := &domain.NodeEvent{
		EventBase: e.base(domain.EventNodeLeave, state.RunID, state.Workflow),
		NodeID:    state.CurrentNodeID,
		Step:      step,
		Changed:   changed,
		Err:       err,
	}
	ev.Duration = ev.Timestamp.Sub(began)
	e.hooks.OnNodeLeave(ctx, ev)
}

func (e *Engine) emitRoute(ctx context.Context, state *domain.State, from string, res graph.Resolution) {
	if e.hooks.OnRoute == nil {
		return
	}
	e.hooks.OnRoute(ctx, &domain.RouteEvent{
		EventBase: e.base(domain.EventRoute, state.RunID, state.Workflow),
		From:      from,
		To:        res.Next,
		Label:     res.Label,
		Forced:    res.Forced,
		Visits:    res.Visits,
	})
}
