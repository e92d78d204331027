package rag

import (
	"errors"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/wayfinder/pkg/domain"
)

// Answer is the typed view of a finished retrieval state.
type Answer struct {
	Query          string `mapstructure:"query" json:"query"`
	Context        string `mapstructure:"context" json:"context"`
	Prompt         string `mapstructure:"prompt" json:"prompt,omitempty"`
	Response       string `mapstructure:"response" json:"response"`
	Source         string `mapstructure:"source" json:"source"`
	IsRelevant     string `mapstructure:"is_relevant" json:"is_relevant"`
	IterationCount int    `mapstructure:"iteration_count" json:"iteration_count"`
}

// Decode converts state fields into an Answer.
func Decode(fields map[string]any) (Answer, error) {
	var a Answer
	if err := mapstructure.Decode(fields, &a); err != nil {
		return Answer{}, err
	}
	return a, nil
}

// DecodeState is Decode over a finished state.
func DecodeState(state *domain.State) (Answer, error) {
	if state == nil {
		return Answer{}, errors.New("nil state")
	}
	return Decode(state.Context)
}
