package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownNode is returned when a node name is not registered.
var ErrUnknownNode = errors.New("unknown node")

// ErrUnmappedLabel is returned when a routing label has no configured successor.
var ErrUnmappedLabel = errors.New("unmapped label")

// ErrDuplicateNodeName is returned when two nodes share a name within one workflow.
var ErrDuplicateNodeName = errors.New("duplicate node name")

// ErrConflictingEdge is returned when a node gets more than one outgoing rule.
var ErrConflictingEdge = errors.New("conflicting edge definition")

// ErrMissingEdge is returned when a non-terminal node has no outgoing rule.
var ErrMissingEdge = errors.New("missing outgoing edge")

// ErrNoEntry is returned when a workflow has no (or an unregistered) entry node.
var ErrNoEntry = errors.New("missing entry node")

// ErrUndeclaredField is returned when input or an update carries a field outside the workflow schema.
var ErrUndeclaredField = errors.New("undeclared state field")

// ErrReservedField is returned when input sets a field the engine owns, such as a
// bounded retry counter.
var ErrReservedField = errors.New("reserved state field")

// ErrMaxStepsExceeded is returned when the optional step guard fires.
var ErrMaxStepsExceeded = errors.New("max steps exceeded")

// ErrRunNotFound is returned when a run record cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// NodeError wraps a failure raised while executing a node (including collaborator failures).
type NodeError struct {
	NodeID string
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node '%s' failed: %v", e.NodeID, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// RouteError wraps a failure while resolving the successor of a node.
type RouteError struct {
	From  string
	Label Label
	Err   error
}

func (e *RouteError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("routing from '%s' with label '%s': %v", e.From, e.Label, e.Err)
	}
	return fmt.Sprintf("routing from '%s': %v", e.From, e.Err)
}

func (e *RouteError) Unwrap() error { return e.Err }

// ConfigError aggregates build-time configuration failures of a workflow.
type ConfigError struct {
	Workflow string
	Errs     []error
}

func (e *ConfigError) Error() string {
	if len(e.Errs) == 1 {
		return fmt.Sprintf("workflow '%s': %v", e.Workflow, e.Errs[0])
	}
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("workflow '%s': found %d errors:\n- %s", e.Workflow, len(e.Errs), strings.Join(msgs, "\n- "))
}

// Unwrap exposes every aggregated error to errors.Is / errors.As.
func (e *ConfigError) Unwrap() []error { return e.Errs }

// StateValidationError reports input or update fields that do not fit the workflow schema.
// NodeID is empty when the caller's input is at fault.
type StateValidationError struct {
	Workflow string
	NodeID   string
	Err      error
}

func (e *StateValidationError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("workflow '%s': invalid input: %v", e.Workflow, e.Err)
	}
	return fmt.Sprintf("workflow '%s': node '%s' returned an invalid update: %v", e.Workflow, e.NodeID, e.Err)
}

func (e *StateValidationError) Unwrap() error { return e.Err }
