package support_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/wayfinder"
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/ports"
	"github.com/aretw0/wayfinder/pkg/workflows/support"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedClock = func() time.Time { return time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC) }

func run(t *testing.T, message string, opts ...support.Option) (support.Ticket, *domain.State) {
	t.Helper()
	wf, err := support.New(append([]support.Option{support.WithClock(fixedClock)}, opts...)...)
	require.NoError(t, err)

	input, err := support.Input("U1", message, "")
	require.NoError(t, err)

	state, err := wayfinder.New().Invoke(context.Background(), wf, input)
	require.NoError(t, err)

	ticket, err := support.DecodeState(state)
	require.NoError(t, err)
	return ticket, state
}

func TestScenario_UrgentAccountEscalates(t *testing.T) {
	ticket, state := run(t, "URGENT: Cannot access my account, need help immediately!")

	assert.Equal(t, "urgent", ticket.Sentiment)
	assert.Equal(t, "account", ticket.Category)
	assert.Equal(t, "critical", ticket.Priority)
	assert.True(t, ticket.RequiresHuman)
	assert.True(t, ticket.Escalate)
	assert.Equal(t, "TKT-20250115093000", ticket.TicketID)
	assert.Contains(t, ticket.Response, ticket.TicketID)
	assert.Equal(t, []string{"analyze_sentiment", "categorize", "assign_priority", "check_kb", "escalate"}, state.History)
}

func TestScenario_PasswordResetAutomated(t *testing.T) {
	ticket, state := run(t, "How do I reset my password?")

	assert.Equal(t, "neutral", ticket.Sentiment)
	assert.Equal(t, "account", ticket.Category)
	assert.Equal(t, "low", ticket.Priority)
	assert.False(t, ticket.RequiresHuman)
	assert.False(t, ticket.Escalate)
	assert.Empty(t, ticket.TicketID)
	assert.Equal(t, "Automated response for account query", ticket.Response)
	assert.Equal(t, []string{"analyze_sentiment", "categorize", "assign_priority", "check_kb", "automated"}, state.History)
}

func TestScenario_FrustratedBillingEscalates(t *testing.T) {
	ticket, state := run(t, "I'm very frustrated with the billing charges, this is terrible!")

	assert.Equal(t, "negative", ticket.Sentiment)
	assert.Equal(t, "billing", ticket.Category)
	assert.Equal(t, "critical", ticket.Priority)
	assert.True(t, ticket.Escalate)
	assert.Equal(t, "escalate", state.History[len(state.History)-1])
}

func TestScenario_TechnicalGetsAIResponse(t *testing.T) {
	ticket, state := run(t, "The export shows an error dialog")

	assert.Equal(t, "technical", ticket.Category)
	assert.Equal(t, "medium", ticket.Priority)
	assert.True(t, ticket.RequiresHuman)
	assert.False(t, ticket.Escalate)
	assert.Equal(t, "AI-generated response for technical issue (Priority: medium)", ticket.Response)
	assert.Equal(t, "ai_response", state.History[len(state.History)-1])
}

func TestScenario_PositiveTechnicalEscalatesFromKB(t *testing.T) {
	ticket, state := run(t, "Love the app but found a bug")

	assert.Equal(t, "positive", ticket.Sentiment)
	assert.Equal(t, "high", ticket.Priority)
	assert.True(t, ticket.Escalate)
	assert.NotContains(t, state.History, "ai_response")
}

func TestResponder(t *testing.T) {
	var prompt string
	responder := ports.DeciderFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "  We are looking into the export error.  ", nil
	})

	ticket, _ := run(t, "The export shows an error dialog", support.WithResponder(responder))
	assert.Equal(t, "We are looking into the export error.", ticket.Response)
	assert.Contains(t, prompt, "technical")
	assert.Contains(t, prompt, "The export shows an error dialog")
}

func TestResponderFailure(t *testing.T) {
	boom := errors.New("llm down")
	wf, err := support.New(support.WithResponder(ports.DeciderFunc(func(context.Context, string) (string, error) {
		return "", boom
	})))
	require.NoError(t, err)

	input, err := support.Input("U1", "The export shows an error dialog", "")
	require.NoError(t, err)

	_, err = wayfinder.New().Invoke(context.Background(), wf, input)
	assert.ErrorIs(t, err, boom)

	var nodeErr *domain.NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, support.NodeAIResponse, nodeErr.NodeID)
}

func TestEscalationSwitch(t *testing.T) {
	sw := support.EscalationSwitch()
	assert.Equal(t, support.LabelEscalate, sw.Route(domain.NewView(map[string]any{"escalate": true})))
	assert.Equal(t, support.LabelEnd, sw.Route(domain.NewView(map[string]any{"escalate": false})))
}

func TestResolutionSwitch(t *testing.T) {
	sw := support.ResolutionSwitch()
	tests := []struct {
		requiresHuman bool
		priority      string
		want          domain.Label
	}{
		{false, "critical", support.LabelAutomated},
		{true, "critical", support.LabelEscalate},
		{true, "high", support.LabelEscalate},
		{true, "medium", support.LabelAIResponse},
		{true, "low", support.LabelAIResponse},
	}
	for _, tt := range tests {
		got := sw.Route(domain.NewView(map[string]any{"requires_human": tt.requiresHuman, "priority": tt.priority}))
		assert.Equal(t, tt.want, got, "%v/%s", tt.requiresHuman, tt.priority)
	}
}

func TestInput(t *testing.T) {
	input, err := support.Input(" U9 ", "  help  ", "first\n\n  second  \n")
	require.NoError(t, err)
	assert.Equal(t, "U9", input["user_id"])
	assert.Equal(t, "help", input["message"])
	assert.Equal(t, []string{"first", "second"}, input["context"])

	_, err = support.Input("U9", "   ", "")
	assert.ErrorIs(t, err, support.ErrEmptyMessage)
}

func TestHistoryReachesResponder(t *testing.T) {
	var prompt string
	wf, err := support.New(support.WithResponder(ports.DeciderFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "ok", nil
	})))
	require.NoError(t, err)

	input, err := support.Input("U1", "The export shows an error dialog", "I tried restarting\nStill broken?")
	require.NoError(t, err)
	_, err = wayfinder.New().Invoke(context.Background(), wf, input)
	require.NoError(t, err)
	assert.True(t, strings.Contains(prompt, "- I tried restarting"))
}

func TestDeterministic(t *testing.T) {
	a, sa := run(t, "URGENT: Cannot access my account, need help immediately!")
	b, sb := run(t, "URGENT: Cannot access my account, need help immediately!")
	assert.Equal(t, a, b)
	assert.Equal(t, sa.History, sb.History)
}
