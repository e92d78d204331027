package domain

import (
	"context"
)

// End is the pseudo-target that terminates an invocation when an edge routes to it.
const End = "__end__"

// NodeFunc is a named unit of work: it reads the current record and returns a partial update.
// Node functions may call external collaborators but must always return.
type NodeFunc func(ctx context.Context, in View) (Update, error)

// Label is the value a routing function returns to pick an outgoing edge.
type Label string

// RouterFunc inspects the record and returns a label.
type RouterFunc func(in View) Label

// Switch pairs a routing function with the closed set of labels it may return.
// Declaring the set lets the builder check exhaustiveness before any invocation starts.
type Switch struct {
	Labels []Label
	Route  RouterFunc
}

// NewSwitch creates a Switch over the given labels.
func NewSwitch(route RouterFunc, labels ...Label) Switch {
	return Switch{Labels: labels, Route: route}
}

// Declares reports whether label belongs to the switch's label set.
func (s Switch) Declares(label Label) bool {
	for _, l := range s.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// FieldSwitch routes on the string value of a single field.
func FieldSwitch(field string, labels ...Label) Switch {
	return NewSwitch(func(in View) Label {
		return Label(in.String(field))
	}, labels...)
}
