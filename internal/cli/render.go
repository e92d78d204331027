package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/graph"
	"github.com/aretw0/wayfinder/pkg/workflows/rag"
	"github.com/aretw0/wayfinder/pkg/workflows/support"
)

// TicketMarkdown formats a triage outcome for the terminal.
func TicketMarkdown(runID string, t support.Ticket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Ticket triage\n\n")
	fmt.Fprintf(&b, "| field | value |\n|---|---|\n")
	fmt.Fprintf(&b, "| sentiment | %s |\n", t.Sentiment)
	fmt.Fprintf(&b, "| category | %s |\n", t.Category)
	fmt.Fprintf(&b, "| priority | **%s** |\n", t.Priority)
	fmt.Fprintf(&b, "| requires human | %t |\n", t.RequiresHuman)
	fmt.Fprintf(&b, "| escalated | %t |\n", t.Escalate)
	if t.TicketID != "" {
		fmt.Fprintf(&b, "| ticket | `%s` |\n", t.TicketID)
	}
	fmt.Fprintf(&b, "\n## Response\n\n%s\n", t.Response)
	fmt.Fprintf(&b, "\n_run %s_\n", runID)
	return b.String()
}

// AnswerMarkdown formats a retrieval outcome for the terminal.
func AnswerMarkdown(runID string, a rag.Answer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Answer\n\n%s\n\n", a.Response)
	fmt.Fprintf(&b, "- **source**: %s\n", a.Source)
	fmt.Fprintf(&b, "- **relevant**: %s\n", a.IsRelevant)
	fmt.Fprintf(&b, "- **relevance checks**: %d\n", a.IterationCount)
	fmt.Fprintf(&b, "\n_run %s_\n", runID)
	return b.String()
}

// RunMarkdown formats a stored run record.
func RunMarkdown(rec *domain.RunRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Run %s\n\n", rec.ID)
	fmt.Fprintf(&b, "- **workflow**: %s\n", rec.Workflow)
	fmt.Fprintf(&b, "- **status**: %s\n", rec.Status)
	fmt.Fprintf(&b, "- **started**: %s\n", rec.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- **duration**: %s\n", rec.Duration())
	if len(rec.History) > 0 {
		fmt.Fprintf(&b, "- **path**: %s\n", strings.Join(rec.History, " → "))
	}
	if rec.Error != "" {
		fmt.Fprintf(&b, "\n## Error\n\n```\n%s\n```\n", rec.Error)
	}
	return b.String()
}

// Report is the outcome of checking one workflow.
type Report struct {
	Workflow    string
	Nodes       int
	Edges       int
	Unreachable []string
	Err         error
}

// OK reports whether the workflow has no problems.
func (r Report) OK() bool {
	return r.Err == nil && len(r.Unreachable) == 0
}

// Check validates wf and looks for nodes the entry can never reach.
func Check(wf *graph.Workflow) Report {
	d := wf.Describe()
	return Report{
		Workflow:    wf.Name,
		Nodes:       len(d.Nodes),
		Edges:       len(d.Edges),
		Unreachable: wf.Unreachable(),
		Err:         wf.Validate(),
	}
}

func (r Report) String() string {
	switch {
	case r.Err != nil:
		return fmt.Sprintf("%s: invalid: %v", r.Workflow, r.Err)
	case len(r.Unreachable) > 0:
		return fmt.Sprintf("%s: unreachable nodes: %s", r.Workflow, strings.Join(r.Unreachable, ", "))
	default:
		return fmt.Sprintf("%s: ok (%d nodes, %d edges)", r.Workflow, r.Nodes, r.Edges)
	}
}
