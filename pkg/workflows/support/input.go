package support

import (
	"errors"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/wayfinder/pkg/domain"
)

// ErrEmptyMessage is returned when a ticket has no message text.
var ErrEmptyMessage = errors.New("message must not be empty")

// Ticket is the typed view of a finished triage state.
type Ticket struct {
	UserID        string   `mapstructure:"user_id" json:"user_id"`
	Message       string   `mapstructure:"message" json:"message"`
	Sentiment     string   `mapstructure:"sentiment" json:"sentiment"`
	Category      string   `mapstructure:"category" json:"category"`
	Priority      string   `mapstructure:"priority" json:"priority"`
	Context       []string `mapstructure:"context" json:"context,omitempty"`
	Response      string   `mapstructure:"response" json:"response"`
	Escalate      bool     `mapstructure:"escalate" json:"escalate"`
	RequiresHuman bool     `mapstructure:"requires_human" json:"requires_human"`
	TicketID      string   `mapstructure:"ticket_id" json:"ticket_id,omitempty"`
}

// Input builds the invocation input for a ticket. history holds previous conversation,
// one entry per line; blank lines are dropped and entries are trimmed.
func Input(userID, message, history string) (map[string]any, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	lines := []string{}
	for _, line := range strings.Split(history, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	return map[string]any{
		FieldUserID:  strings.TrimSpace(userID),
		FieldMessage: message,
		FieldContext: lines,
	}, nil
}

// Decode converts state fields into a Ticket.
func Decode(fields map[string]any) (Ticket, error) {
	var t Ticket
	if err := decode(fields, &t); err != nil {
		return Ticket{}, err
	}
	return t, nil
}

// DecodeState is Decode over a finished state.
func DecodeState(state *domain.State) (Ticket, error) {
	if state == nil {
		return Ticket{}, errors.New("nil state")
	}
	return Decode(state.Context)
}

func decode(fields map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(fields)
}
