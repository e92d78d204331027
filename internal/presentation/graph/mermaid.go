package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/graph"
)

const (
	startID = "__start__"
	endID   = "__end__"
)

// GraphOverlay contains run data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart from a workflow description.
// Shapes:
//   - start and end markers: ((Circle))
//   - decision nodes (conditional or bounded retry): {Rhombus}
//   - default: [Rectangle]
//
// Bounded retry edges are dotted; the forced label is annotated with the ceiling.
func GenerateMermaid(d graph.Description, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString(fmt.Sprintf("    %s((\"start\"))\n", startID))

	decision := make(map[string]bool)
	for _, e := range d.Edges {
		if e.Kind != graph.EdgeStatic {
			decision[e.From] = true
		}
	}

	needsEnd := false
	for _, n := range d.Nodes {
		opener, closer := "[", "]"
		if decision[n.ID] {
			opener, closer = "{", "}"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", sanitizeMermaidID(n.ID), opener, escapeLabel(n.ID), closer))
		if n.Terminal {
			needsEnd = true
		}
	}
	if d.Entry != "" {
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", startID, sanitizeMermaidID(d.Entry)))
	}

	hasRule := make(map[string]bool)
	for _, e := range d.Edges {
		hasRule[e.From] = true
		from := sanitizeMermaidID(e.From)
		to := endID
		if e.To != domain.End {
			to = sanitizeMermaidID(e.To)
		} else {
			needsEnd = true
		}

		switch e.Kind {
		case graph.EdgeStatic:
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", from, to))
		case graph.EdgeBoundedRetry:
			label := escapeLabel(string(e.Label))
			if e.Forced {
				label = fmt.Sprintf("%s (forced at %d)", label, d.MaxVisits[e.From])
			}
			sb.WriteString(fmt.Sprintf("    %s -. \"%s\" .-> %s\n", from, label, to))
		default:
			sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", from, escapeLabel(string(e.Label)), to))
		}
	}

	// Terminal nodes without a rule still stop the walk.
	for _, n := range d.Nodes {
		if n.Terminal && !hasRule[n.ID] {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", sanitizeMermaidID(n.ID), endID))
		}
	}
	if needsEnd {
		sb.WriteString(fmt.Sprintf("    %s((\"end\"))\n", endID))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on both light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.CurrentNode != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
	// "end" is a reserved word in flowcharts.
	if strings.EqualFold(s, "end") {
		s += "_"
	}
	return s
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
