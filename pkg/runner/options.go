package runner

import (
	"log/slog"
	"time"

	"github.com/aretw0/wayfinder/pkg/ports"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithStore configures where run records are saved. Without a store records are
// returned but not persisted.
func WithStore(store ports.RunStore) Option {
	return func(r *Runner) {
		r.Store = store
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithMaxInputSize bounds the byte length of every string input field.
// Zero falls back to WAYFINDER_MAX_INPUT_SIZE or DefaultMaxInputSize.
func WithMaxInputSize(n int) Option {
	return func(r *Runner) {
		r.MaxInputSize = n
	}
}

// WithIDGenerator replaces the uuid run id generator.
func WithIDGenerator(fn func() string) Option {
	return func(r *Runner) {
		r.NewID = fn
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.Now = now
	}
}
