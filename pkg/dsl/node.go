package dsl

import (
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/graph"
)

// NodeBuilder provides a fluent API for configuring the outgoing rule of a node.
// A node takes exactly one of Go, Branch, Retry or Terminal.
type NodeBuilder struct {
	id      string
	builder *Builder
}

// Go adds an unconditional transition to the target node (or domain.End).
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.record(n.builder.edges.AddEdge(n.id, target))
	return n
}

// End is shorthand for Go(domain.End).
func (n *NodeBuilder) End() *NodeBuilder {
	return n.Go(domain.End)
}

// Branch adds a conditional dispatch: the switch's label picks the successor.
func (n *NodeBuilder) Branch(sw domain.Switch, routes map[domain.Label]string) *NodeBuilder {
	n.record(n.builder.edges.AddConditionalEdges(n.id, sw, routes))
	return n
}

// Retry adds a conditional dispatch that may loop back, bounded by an iteration counter.
func (n *NodeBuilder) Retry(br graph.BoundedRetry) *NodeBuilder {
	n.record(n.builder.edges.AddBoundedRetry(n.id, br))
	return n
}

// Terminal marks the node as the end of the flow.
func (n *NodeBuilder) Terminal() *NodeBuilder {
	n.builder.terminals = append(n.builder.terminals, n.id)
	return n
}

func (n *NodeBuilder) record(err error) {
	if err != nil {
		n.builder.errs = append(n.builder.errs, err)
	}
}
