package support

import (
	"fmt"
	"regexp"

	"github.com/aretw0/wayfinder/pkg/schema"
)

// Sentiment of a ticket message.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
	SentimentUrgent   Sentiment = "urgent"
)

// Category of a ticket.
type Category string

const (
	CategoryBilling   Category = "billing"
	CategoryTechnical Category = "technical"
	CategoryAccount   Category = "account"
	CategoryProduct   Category = "product"
)

// Priority of a ticket.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Sentiments, Categories and Priorities list every value in declaration order.
var (
	Sentiments = []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative, SentimentUrgent}
	Categories = []Category{CategoryBilling, CategoryTechnical, CategoryAccount, CategoryProduct}
	Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
)

// State field names.
const (
	FieldUserID        = "user_id"
	FieldMessage       = "message"
	FieldSentiment     = "sentiment"
	FieldCategory      = "category"
	FieldPriority      = "priority"
	FieldContext       = "context"
	FieldResponse      = "response"
	FieldEscalate      = "escalate"
	FieldRequiresHuman = "requires_human"
	FieldTicketID      = "ticket_id"
)

// Node names.
const (
	NodeAnalyzeSentiment = "analyze_sentiment"
	NodeCategorize       = "categorize"
	NodeAssignPriority   = "assign_priority"
	NodeCheckKB          = "check_kb"
	NodeAIResponse       = "ai_response"
	NodeEscalate         = "escalate"
	NodeAutomated        = "automated"
)

// Record is the state schema of the triage workflow.
var Record = schema.MustRecord(
	schema.Required(FieldUserID, schema.String()),
	schema.Required(FieldMessage, schema.String()),
	schema.Optional(FieldSentiment, schema.Enum(names(Sentiments)...)),
	schema.Optional(FieldCategory, schema.Enum(names(Categories)...)),
	schema.Optional(FieldPriority, schema.Enum(names(Priorities)...)),
	schema.Optional(FieldContext, schema.Slice(schema.String())),
	schema.Optional(FieldResponse, schema.String()),
	schema.Optional(FieldEscalate, schema.Bool()),
	schema.Optional(FieldRequiresHuman, schema.Bool()),
	schema.Optional(FieldTicketID, TicketIDType),
)

var ticketIDPattern = regexp.MustCompile(`^TKT-\d{14}$`)

// TicketIDType accepts ids produced by TicketID.
var TicketIDType = schema.Custom("ticket_id", func(v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", v)
	}
	if !ticketIDPattern.MatchString(s) {
		return fmt.Errorf("ticket id %q does not match TKT-YYYYMMDDhhmmss", s)
	}
	return nil
})

func names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
