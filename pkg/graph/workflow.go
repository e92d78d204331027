package graph

import (
	"fmt"
	"sort"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/registry"
	"github.com/aretw0/wayfinder/pkg/schema"
)

// Workflow is a compiled, immutable graph definition. Build one with pkg/dsl or
// assemble it by hand with New and check it with Validate.
type Workflow struct {
	Name        string
	Description string
	Entry       string
	Nodes       *registry.Registry
	Edges       *EdgeTable
	Schema      schema.Record

	terminals map[string]bool
}

// New assembles a workflow without validating it.
func New(name, entry string, nodes *registry.Registry, edges *EdgeTable, rec schema.Record, terminals ...string) *Workflow {
	if nodes == nil {
		nodes = registry.NewRegistry()
	}
	if edges == nil {
		edges = NewEdgeTable()
	}
	w := &Workflow{
		Name:      name,
		Entry:     entry,
		Nodes:     nodes,
		Edges:     edges,
		Schema:    rec,
		terminals: make(map[string]bool, len(terminals)),
	}
	for _, t := range terminals {
		w.terminals[t] = true
	}
	return w
}

// Counters returns the counter fields owned by bounded retry edges, sorted.
func (w *Workflow) Counters() []string {
	seen := make(map[string]bool)
	var out []string
	for _, from := range w.Edges.Sources() {
		rule, _ := w.Edges.Rule(from)
		if rule.Kind == EdgeBoundedRetry && !seen[rule.Counter] {
			seen[rule.Counter] = true
			out = append(out, rule.Counter)
		}
	}
	sort.Strings(out)
	return out
}

// IsTerminal reports whether reaching node ends the invocation.
func (w *Workflow) IsTerminal(node string) bool {
	return node == domain.End || w.terminals[node]
}

// Terminals returns the nodes explicitly marked terminal, sorted.
func (w *Workflow) Terminals() []string {
	out := make([]string, 0, len(w.terminals))
	for t := range w.terminals {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Validate checks the structural invariants of the graph and returns a *domain.ConfigError
// listing every problem found.
func (w *Workflow) Validate() error {
	var errs []error

	if w.Entry == "" {
		errs = append(errs, domain.ErrNoEntry)
	} else if !w.Nodes.Has(w.Entry) {
		errs = append(errs, fmt.Errorf("%w: entry '%s' is not registered", domain.ErrNoEntry, w.Entry))
	}

	for _, t := range w.Terminals() {
		if !w.Nodes.Has(t) {
			errs = append(errs, fmt.Errorf("%w: terminal '%s'", domain.ErrUnknownNode, t))
		}
		if _, ok := w.Edges.Rule(t); ok {
			errs = append(errs, fmt.Errorf("%w: terminal node '%s' has an outgoing rule", domain.ErrConflictingEdge, t))
		}
	}

	for _, from := range w.Edges.Sources() {
		if !w.Nodes.Has(from) {
			errs = append(errs, fmt.Errorf("%w: edge source '%s'", domain.ErrUnknownNode, from))
		}
		rule, _ := w.Edges.Rule(from)
		for _, to := range rule.Targets() {
			if to != domain.End && !w.Nodes.Has(to) {
				errs = append(errs, fmt.Errorf("%w: '%s' routes to '%s'", domain.ErrUnknownNode, from, to))
			}
		}
		if rule.Kind == EdgeBoundedRetry && !w.Schema.IsZero() {
			if _, ok := w.Schema.Lookup(rule.Counter); !ok {
				errs = append(errs, fmt.Errorf("%w: counter '%s' of '%s'", domain.ErrUndeclaredField, rule.Counter, from))
			}
			for key := range rule.ForcedUpdate {
				if _, ok := w.Schema.Lookup(key); !ok {
					errs = append(errs, fmt.Errorf("%w: forced update '%s' of '%s'", domain.ErrUndeclaredField, key, from))
				}
			}
		}
	}

	for _, name := range w.Nodes.Names() {
		if w.IsTerminal(name) {
			continue
		}
		if _, ok := w.Edges.Rule(name); !ok {
			errs = append(errs, fmt.Errorf("%w: node '%s' is not terminal", domain.ErrMissingEdge, name))
		}
	}

	if len(errs) > 0 {
		return &domain.ConfigError{Workflow: w.Name, Errs: errs}
	}
	return nil
}

// Reachable returns every node reachable from the entry, sorted. domain.End is not included.
func (w *Workflow) Reachable() []string {
	visited := make(map[string]bool)
	queue := []string{w.Entry}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == "" || current == domain.End || visited[current] {
			continue
		}
		visited[current] = true

		rule, ok := w.Edges.Rule(current)
		if !ok {
			continue
		}
		for _, to := range rule.Targets() {
			if !visited[to] {
				queue = append(queue, to)
			}
		}
	}

	out := make([]string, 0, len(visited))
	for n := range visited {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Unreachable returns registered nodes the entry can never reach, sorted.
func (w *Workflow) Unreachable() []string {
	reach := make(map[string]bool)
	for _, n := range w.Reachable() {
		reach[n] = true
	}
	var out []string
	for _, n := range w.Nodes.Names() {
		if !reach[n] {
			out = append(out, n)
		}
	}
	return out
}
