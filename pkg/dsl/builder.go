package dsl

import (
	"errors"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/graph"
	"github.com/aretw0/wayfinder/pkg/registry"
	"github.com/aretw0/wayfinder/pkg/schema"
)

// Builder manages the workflow construction.
// Errors are collected along the way and reported together by Compile.
type Builder struct {
	name        string
	description string
	entry       string
	record      schema.Record

	nodes     *registry.Registry
	edges     *graph.EdgeTable
	order     []string
	terminals []string
	errs      []error
}

// New creates a new workflow builder.
func New(name string) *Builder {
	return &Builder{
		name:  name,
		nodes: registry.NewRegistry(),
		edges: graph.NewEdgeTable(),
	}
}

// Describe sets a human readable description shown by introspection commands.
func (b *Builder) Describe(text string) *Builder {
	b.description = text
	return b
}

// Entry sets the entry node. Defaults to the first node added.
func (b *Builder) Entry(id string) *Builder {
	b.entry = id
	return b
}

// Schema sets the state record the workflow validates input and updates against.
func (b *Builder) Schema(rec schema.Record) *Builder {
	b.record = rec
	return b
}

// Add registers a node and returns a builder for its outgoing rule.
func (b *Builder) Add(id string, fn domain.NodeFunc) *NodeBuilder {
	if err := b.nodes.Register(id, fn); err != nil {
		b.errs = append(b.errs, err)
	} else {
		b.order = append(b.order, id)
	}
	return &NodeBuilder{id: id, builder: b}
}

// Compile validates the definition and returns the workflow.
func (b *Builder) Compile() (*graph.Workflow, error) {
	entry := b.entry
	if entry == "" && len(b.order) > 0 {
		entry = b.order[0]
	}

	wf := graph.New(b.name, entry, b.nodes, b.edges, b.record, b.terminals...)
	wf.Description = b.description

	errs := append([]error(nil), b.errs...)
	if err := wf.Validate(); err != nil {
		var cfgErr *domain.ConfigError
		if errors.As(err, &cfgErr) {
			errs = append(errs, cfgErr.Errs...)
		} else {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, &domain.ConfigError{Workflow: b.name, Errs: errs}
	}
	return wf, nil
}

// MustCompile is like Compile but panics on error.
// Intended for workflows whose shape is fixed at development time.
func (b *Builder) MustCompile() *graph.Workflow {
	wf, err := b.Compile()
	if err != nil {
		panic(err)
	}
	return wf
}
