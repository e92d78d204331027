package support

import (
	"strings"
	"time"
)

// Keywords holds the word lists used for classification. Matching is case-insensitive
// substring membership, so "not working" matches phrases and "bill" matches "billing".
type Keywords struct {
	Urgent    []string `yaml:"urgent" json:"urgent"`
	Negative  []string `yaml:"negative" json:"negative"`
	Positive  []string `yaml:"positive" json:"positive"`
	Billing   []string `yaml:"billing" json:"billing"`
	Technical []string `yaml:"technical" json:"technical"`
	Account   []string `yaml:"account" json:"account"`
}

// DefaultKeywords returns the stock word lists.
func DefaultKeywords() Keywords {
	return Keywords{
		Urgent:    []string{"urgent", "asap", "immediately", "emergency", "critical", "not working"},
		Negative:  []string{"angry", "frustrated", "disappointed", "terrible", "worst"},
		Positive:  []string{"thank", "great", "love", "awesome"},
		Billing:   []string{"bill", "charge", "payment", "refund", "invoice"},
		Technical: []string{"bug", "error", "crash", "not working", "broken"},
		Account:   []string{"login", "password", "access", "account", "reset"},
	}
}

// Merge returns k with every empty list replaced by the one from fallback.
func (k Keywords) Merge(fallback Keywords) Keywords {
	pick := func(a, b []string) []string {
		if len(a) == 0 {
			return b
		}
		return a
	}
	return Keywords{
		Urgent:    pick(k.Urgent, fallback.Urgent),
		Negative:  pick(k.Negative, fallback.Negative),
		Positive:  pick(k.Positive, fallback.Positive),
		Billing:   pick(k.Billing, fallback.Billing),
		Technical: pick(k.Technical, fallback.Technical),
		Account:   pick(k.Account, fallback.Account),
	}
}

func containsAny(msg string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(msg, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

// ClassifySentiment checks urgent, negative and positive lists in that order.
func ClassifySentiment(message string, kw Keywords) Sentiment {
	msg := strings.ToLower(message)
	switch {
	case containsAny(msg, kw.Urgent):
		return SentimentUrgent
	case containsAny(msg, kw.Negative):
		return SentimentNegative
	case containsAny(msg, kw.Positive):
		return SentimentPositive
	default:
		return SentimentNeutral
	}
}

// Categorize checks billing, technical and account lists in that order; product is the fallback.
func Categorize(message string, kw Keywords) Category {
	msg := strings.ToLower(message)
	switch {
	case containsAny(msg, kw.Billing):
		return CategoryBilling
	case containsAny(msg, kw.Technical):
		return CategoryTechnical
	case containsAny(msg, kw.Account):
		return CategoryAccount
	default:
		return CategoryProduct
	}
}

// AssignPriority applies the priority table, first match wins:
//
//	urgent, or billing and negative  → critical
//	negative                         → high
//	technical and neutral            → medium
//	technical                        → high
//	anything else                    → low
func AssignPriority(s Sentiment, c Category) Priority {
	switch {
	case s == SentimentUrgent || (c == CategoryBilling && s == SentimentNegative):
		return PriorityCritical
	case s == SentimentNegative:
		return PriorityHigh
	case c == CategoryTechnical && s == SentimentNeutral:
		return PriorityMedium
	case c == CategoryTechnical:
		return PriorityHigh
	default:
		return PriorityLow
	}
}

// CanAutoResolve reports knowledge-base eligibility.
func CanAutoResolve(p Priority, c Category) bool {
	lowish := p == PriorityLow || p == PriorityMedium
	simple := c == CategoryAccount || c == CategoryProduct
	return lowish && simple
}

// TicketID formats the escalation ticket id for t.
func TicketID(t time.Time) string {
	return "TKT-" + t.Format("20060102150405")
}
