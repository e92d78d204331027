package ports

import "context"

// Decider answers a prompt with free text. Implementations block until the answer is
// available or ctx is done.
type Decider interface {
	Decide(ctx context.Context, prompt string) (string, error)
}

// DeciderFunc adapts a function to Decider.
type DeciderFunc func(ctx context.Context, prompt string) (string, error)

func (f DeciderFunc) Decide(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Retriever returns up to k documents most similar to query, best first.
type Retriever interface {
	Query(ctx context.Context, query string, k int) ([]string, error)
}

// Searcher runs a web search and returns its results flattened to text.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// TokenCounter counts model tokens in text.
type TokenCounter interface {
	Count(text string) int
}
