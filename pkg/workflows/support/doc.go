// Package support implements the support-ticket triage workflow:
//
//	analyze_sentiment → categorize → assign_priority → check_kb
//	check_kb ─automated→ automated → End
//	check_kb ─escalate→ escalate → End
//	check_kb ─ai_response→ ai_response ─escalate→ escalate | ─end→ End
//
// Classification is keyword membership over configurable word lists. Priority and
// knowledge-base eligibility are fixed decision tables. The only collaborators are an
// optional Decider used to phrase AI responses and a clock used for ticket ids.
package support
