package graph

import (
	"github.com/aretw0/wayfinder/pkg/domain"
)

// EdgeInfo is a flattened view of one possible transition.
type EdgeInfo struct {
	From   string       `json:"from"`
	To     string       `json:"to"`
	Kind   EdgeKind     `json:"kind"`
	Label  domain.Label `json:"label,omitempty"`
	Forced bool         `json:"forced,omitempty"` // Taken when the retry ceiling is reached
}

// NodeInfo describes one node for introspection.
type NodeInfo struct {
	ID       string `json:"id"`
	Entry    bool   `json:"entry,omitempty"`
	Terminal bool   `json:"terminal,omitempty"`
}

// Description is the serializable shape of a workflow.
type Description struct {
	Name      string         `json:"name"`
	Entry     string         `json:"entry"`
	Nodes     []NodeInfo     `json:"nodes"`
	Edges     []EdgeInfo     `json:"edges"`
	MaxVisits map[string]int `json:"max_visits,omitempty"` // Bounded retry ceilings by decision node
}

// Outgoing lists the transitions leaving from, ordered by the switch's declared labels.
func (w *Workflow) Outgoing(from string) []EdgeInfo {
	rule, ok := w.Edges.Rule(from)
	if !ok {
		return nil
	}
	if rule.Kind == EdgeStatic {
		return []EdgeInfo{{From: from, To: rule.To, Kind: EdgeStatic}}
	}
	out := make([]EdgeInfo, 0, len(rule.Switch.Labels))
	for _, l := range rule.Switch.Labels {
		out = append(out, EdgeInfo{
			From:   from,
			To:     rule.Routes[l],
			Kind:   rule.Kind,
			Label:  l,
			Forced: rule.Kind == EdgeBoundedRetry && l == rule.Forced,
		})
	}
	return out
}

// Describe returns the full workflow shape with nodes in registry order.
func (w *Workflow) Describe() Description {
	d := Description{Name: w.Name, Entry: w.Entry}
	for _, n := range w.Nodes.Names() {
		d.Nodes = append(d.Nodes, NodeInfo{ID: n, Entry: n == w.Entry, Terminal: w.IsTerminal(n)})
		d.Edges = append(d.Edges, w.Outgoing(n)...)
		if rule, ok := w.Edges.Rule(n); ok && rule.Kind == EdgeBoundedRetry {
			if d.MaxVisits == nil {
				d.MaxVisits = make(map[string]int)
			}
			d.MaxVisits[n] = rule.MaxVisits
		}
	}
	return d
}
