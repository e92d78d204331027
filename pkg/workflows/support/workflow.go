package support

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/dsl"
	"github.com/aretw0/wayfinder/pkg/graph"
	"github.com/aretw0/wayfinder/pkg/ports"
)

// Name is the workflow name.
const Name = "support"

// Routing labels.
const (
	LabelAutomated  domain.Label = "automated"
	LabelEscalate   domain.Label = "escalate"
	LabelAIResponse domain.Label = "ai_response"
	LabelEnd        domain.Label = "end"
)

type triage struct {
	keywords  Keywords
	now       func() time.Time
	responder ports.Decider
	logger    *slog.Logger
}

// Option configures the triage workflow.
type Option func(*triage)

// WithKeywords overrides the classification word lists. Empty lists keep their defaults.
func WithKeywords(kw Keywords) Option {
	return func(t *triage) {
		t.keywords = kw.Merge(DefaultKeywords())
	}
}

// WithClock sets the time source used for ticket ids.
func WithClock(now func() time.Time) Option {
	return func(t *triage) {
		if now != nil {
			t.now = now
		}
	}
}

// WithResponder phrases AI responses through a Decider instead of the stock template.
func WithResponder(d ports.Decider) Option {
	return func(t *triage) {
		t.responder = d
	}
}

// WithLogger sets the logger used by the nodes.
func WithLogger(logger *slog.Logger) Option {
	return func(t *triage) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New compiles the triage workflow.
func New(opts ...Option) (*graph.Workflow, error) {
	t := &triage{
		keywords: DefaultKeywords(),
		now:      time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}

	b := dsl.New(Name).
		Describe("Support ticket triage: sentiment, category, priority, then automated, AI or human resolution.").
		Schema(Record).
		Entry(NodeAnalyzeSentiment)

	b.Add(NodeAnalyzeSentiment, t.analyzeSentiment).Go(NodeCategorize)
	b.Add(NodeCategorize, t.categorize).Go(NodeAssignPriority)
	b.Add(NodeAssignPriority, t.assignPriority).Go(NodeCheckKB)
	b.Add(NodeCheckKB, t.checkKnowledgeBase).Branch(ResolutionSwitch(), map[domain.Label]string{
		LabelAutomated:  NodeAutomated,
		LabelAIResponse: NodeAIResponse,
		LabelEscalate:   NodeEscalate,
	})
	b.Add(NodeAIResponse, t.aiResponse).Branch(EscalationSwitch(), map[domain.Label]string{
		LabelEscalate: NodeEscalate,
		LabelEnd:      domain.End,
	})
	b.Add(NodeEscalate, t.escalate).End()
	b.Add(NodeAutomated, t.automated).End()

	return b.Compile()
}

// ResolutionSwitch routes after the knowledge-base check.
func ResolutionSwitch() domain.Switch {
	return domain.NewSwitch(func(in domain.View) domain.Label {
		if !in.Bool(FieldRequiresHuman) {
			return LabelAutomated
		}
		switch Priority(in.String(FieldPriority)) {
		case PriorityCritical, PriorityHigh:
			return LabelEscalate
		default:
			return LabelAIResponse
		}
	}, LabelAutomated, LabelAIResponse, LabelEscalate)
}

// EscalationSwitch routes after an AI response.
func EscalationSwitch() domain.Switch {
	return domain.NewSwitch(func(in domain.View) domain.Label {
		if in.Bool(FieldEscalate) {
			return LabelEscalate
		}
		return LabelEnd
	}, LabelEscalate, LabelEnd)
}

func (t *triage) analyzeSentiment(_ context.Context, in domain.View) (domain.Update, error) {
	s := ClassifySentiment(in.String(FieldMessage), t.keywords)
	return domain.Update{FieldSentiment: string(s)}, nil
}

func (t *triage) categorize(_ context.Context, in domain.View) (domain.Update, error) {
	c := Categorize(in.String(FieldMessage), t.keywords)
	return domain.Update{FieldCategory: string(c)}, nil
}

func (t *triage) assignPriority(_ context.Context, in domain.View) (domain.Update, error) {
	p := AssignPriority(Sentiment(in.String(FieldSentiment)), Category(in.String(FieldCategory)))
	return domain.Update{FieldPriority: string(p)}, nil
}

func (t *triage) checkKnowledgeBase(_ context.Context, in domain.View) (domain.Update, error) {
	category := Category(in.String(FieldCategory))
	if CanAutoResolve(Priority(in.String(FieldPriority)), category) {
		return domain.Update{
			FieldResponse:      fmt.Sprintf("Auto-resolved %s issue from knowledge base", category),
			FieldRequiresHuman: false,
		}, nil
	}
	return domain.Update{FieldRequiresHuman: true}, nil
}

func (t *triage) aiResponse(ctx context.Context, in domain.View) (domain.Update, error) {
	category := in.String(FieldCategory)
	priority := Priority(in.String(FieldPriority))

	response := fmt.Sprintf("AI-generated response for %s issue (Priority: %s)", category, priority)
	if t.responder != nil {
		answer, err := t.responder.Decide(ctx, responsePrompt(in))
		if err != nil {
			return nil, fmt.Errorf("generate response: %w", err)
		}
		response = strings.TrimSpace(answer)
	}

	return domain.Update{
		FieldResponse: response,
		FieldEscalate: priority == PriorityCritical,
	}, nil
}

func (t *triage) escalate(_ context.Context, in domain.View) (domain.Update, error) {
	id := TicketID(t.now())
	t.logger.Info("ticket escalated", "ticket_id", id, "user_id", in.String(FieldUserID), "priority", in.String(FieldPriority))
	return domain.Update{
		FieldResponse: "Escalated to human agent - Ticket: " + id,
		FieldTicketID: id,
		FieldEscalate: true,
	}, nil
}

func (t *triage) automated(_ context.Context, in domain.View) (domain.Update, error) {
	return domain.Update{
		FieldResponse: fmt.Sprintf("Automated response for %s query", in.String(FieldCategory)),
		FieldEscalate: false,
	}, nil
}

func responsePrompt(in domain.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a customer support agent. Write a short reply to the %s issue below (priority: %s).\n",
		in.String(FieldCategory), in.String(FieldPriority))
	if history := in.Strings(FieldContext); len(history) > 0 {
		b.WriteString("Previous conversation:\n")
		for _, line := range history {
			b.WriteString("- " + line + "\n")
		}
	}
	fmt.Fprintf(&b, "Customer message: %q\n", in.String(FieldMessage))
	return b.String()
}
