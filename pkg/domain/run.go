package domain

import "time"

// RunStatus is the outcome of a finished invocation.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunRecord is the caller-side account of one finished invocation.
// The engine itself never persists anything; runners store records after the fact.
type RunRecord struct {
	ID         string         `json:"id"`
	Workflow   string         `json:"workflow"`
	Status     RunStatus      `json:"status"`
	Input      map[string]any `json:"input,omitempty"`
	Output     map[string]any `json:"output,omitempty"`
	History    []string       `json:"history,omitempty"`
	Error      string         `json:"error,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Duration returns how long the invocation took.
func (r *RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
