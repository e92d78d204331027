package rag

import (
	"fmt"
	"strings"

	"github.com/aretw0/wayfinder/pkg/ports"
)

// RouterPrompt asks the decider which source to consult.
func RouterPrompt(query string) string {
	return fmt.Sprintf(`You are a routing agent. Based on the user query, decide where to look for information.
Options:
- Retrieve_QnA: if it's about general medical knowledge, symptoms, or treatment.
- Retrieve_Device: if it's about medical devices, manuals, or instructions.
- Web_Search: if it's about recent news, brand names, or external data.
Query: %q
Respond ONLY with one of: Retrieve_QnA, Retrieve_Device, Web_Search`, query)
}

// RelevancePrompt asks the decider whether context answers the query.
func RelevancePrompt(query, context string) string {
	return fmt.Sprintf(`Check whether the context below is relevant to the user query.
####
Context:
%s
####
User Query: %s
Options:
- Yes: if the context is relevant.
- No: if the context is not relevant.
Please answer with only 'Yes' or 'No'.`, context, query)
}

// AnswerPrompt is the generation prompt built by the Augment node.
func AnswerPrompt(query, context string) string {
	return fmt.Sprintf(`Answer the following question using the context below.
Context:
%s
Question: %s
please limit your answer in 50 words.`, context, query)
}

// FitContext trims text to at most budget tokens as counted by counter. Whole lines are
// dropped from the end first; a single oversized line is cut to the longest fitting prefix.
// A zero budget or nil counter leaves text unchanged.
func FitContext(text string, budget int, counter ports.TokenCounter) string {
	if budget <= 0 || counter == nil || counter.Count(text) <= budget {
		return text
	}

	lines := strings.Split(text, "\n")
	for len(lines) > 1 {
		lines = lines[:len(lines)-1]
		candidate := strings.Join(lines, "\n")
		if counter.Count(candidate) <= budget {
			return candidate
		}
	}

	runes := []rune(lines[0])
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if counter.Count(string(runes[:mid])) <= budget {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return string(runes[:lo])
}
