package domain

import (
	"sort"
)

// ExecutionStatus defines the current mode of an invocation.
type ExecutionStatus string

const (
	StatusActive    ExecutionStatus = "active"    // Walking the graph
	StatusCompleted ExecutionStatus = "completed" // Terminal marker reached
)

// State represents the snapshot of one workflow invocation.
type State struct {
	// RunID correlates hooks, logs and stored records. Optional.
	RunID string `json:"run_id,omitempty"`

	// Workflow is the name of the workflow being executed.
	Workflow string `json:"workflow"`

	// CurrentNodeID is the node executed last (or about to run).
	CurrentNodeID string `json:"current_node_id"`

	// Status indicates if the walk is running or done.
	Status ExecutionStatus `json:"status"`

	// Context holds the state record fields.
	Context map[string]any `json:"context"`

	// History is the node-visit sequence, including repeated visits.
	History []string `json:"history"`
}

// NewState creates a clean state positioned at the entry node.
// The input map is copied; the caller keeps ownership of its own map.
func NewState(workflow, entryNodeID string, input map[string]any) *State {
	ctx := make(map[string]any, len(input))
	for k, v := range input {
		ctx[k] = v
	}
	return &State{
		Workflow:      workflow,
		CurrentNodeID: entryNodeID,
		Status:        StatusActive,
		Context:       ctx,
		History:       []string{},
	}
}

// View returns a read-only view over the state fields.
func (s *State) View() View {
	return View{fields: s.Context}
}

// Clone returns a copy whose Context and History can be mutated safely.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	next := *s
	next.Context = make(map[string]any, len(s.Context))
	for k, v := range s.Context {
		next.Context[k] = v
	}
	next.History = append([]string(nil), s.History...)
	return &next
}

// Update is the partial record a node returns.
// Fields present in the update win over the current state; a nil value sets the field to null.
type Update map[string]any

// Keys returns the update field names in sorted order.
func (u Update) Keys() []string {
	keys := make([]string, 0, len(u))
	for k := range u {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge returns a new update with the fields of other applied on top of u.
func (u Update) Merge(other Update) Update {
	out := make(Update, len(u)+len(other))
	for k, v := range u {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
