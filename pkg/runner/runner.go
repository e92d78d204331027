package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/graph"
	"github.com/aretw0/wayfinder/pkg/ports"
)

// Runner invokes workflows and records their outcome.
type Runner struct {
	// Invoker executes the workflow. Usually a *wayfinder.Engine.
	Invoker ports.Invoker

	// Store receives a record per invocation. Optional.
	Store ports.RunStore

	// Logger is used for run summaries. If nil, a no-op logger is used.
	Logger *slog.Logger

	// MaxInputSize bounds string input fields (bytes). Zero uses the default.
	MaxInputSize int

	NewID func() string
	Now   func() time.Time
}

// New creates a Runner around an invoker.
func New(invoker ports.Invoker, opts ...Option) *Runner {
	r := &Runner{
		Invoker: invoker,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		NewID:   uuid.NewString,
		Now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run sanitizes input, invokes wf and returns the stored record.
//
// Inputs rejected by the sanitizer never reach the engine and are not recorded.
// A failed invocation returns both the failed record and the invocation error.
// If saving the record fails, the record is still returned alongside the error.
func (r *Runner) Run(ctx context.Context, wf *graph.Workflow, input map[string]any) (*domain.RunRecord, error) {
	if wf == nil {
		return nil, errors.New("runner: nil workflow")
	}
	clean, err := SanitizeFields(input, r.MaxInputSize)
	if err != nil {
		return nil, err
	}

	rec := &domain.RunRecord{
		ID:        r.NewID(),
		Workflow:  wf.Name,
		Input:     clean,
		StartedAt: r.Now(),
	}

	state, runErr := r.Invoker.InvokeRun(ctx, rec.ID, wf, clean)
	rec.FinishedAt = r.Now()

	if runErr != nil {
		rec.Status = domain.RunFailed
		rec.Error = runErr.Error()
		r.Logger.Warn("Run failed", "run_id", rec.ID, "workflow", rec.Workflow, "err", runErr)
	} else {
		rec.Status = domain.RunSucceeded
		rec.Output = state.Context
		rec.History = state.History
		r.Logger.Info("Run finished",
			"run_id", rec.ID,
			"workflow", rec.Workflow,
			"steps", len(rec.History),
			"duration", rec.Duration(),
		)
	}

	if r.Store != nil {
		if err := r.Store.Save(ctx, rec); err != nil {
			saveErr := fmt.Errorf("save run record %s: %w", rec.ID, err)
			r.Logger.Error("Failed to save run record", "run_id", rec.ID, "err", err)
			return rec, errors.Join(runErr, saveErr)
		}
	}
	return rec, runErr
}
