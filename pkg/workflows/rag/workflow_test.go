package rag_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/wayfinder"
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/workflows/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// scriptedDecider answers router, relevance and generation prompts from fixed scripts.
type scriptedDecider struct {
	mu        sync.Mutex
	route     string
	verdicts  []string
	relevance int
	prompts   []string
}

func (d *scriptedDecider) Decide(_ context.Context, prompt string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prompts = append(d.prompts, prompt)

	switch {
	case strings.HasPrefix(prompt, "You are a routing agent"):
		return d.route, nil
	case strings.Contains(prompt, "Please answer with only 'Yes' or 'No'"):
		v := "No"
		if d.relevance < len(d.verdicts) {
			v = d.verdicts[d.relevance]
		}
		d.relevance++
		return v, nil
	default:
		return " Take two tablets daily. ", nil
	}
}

type mockRetriever struct{ mock.Mock }

func (m *mockRetriever) Query(ctx context.Context, query string, k int) ([]string, error) {
	args := m.Called(ctx, query, k)
	docs, _ := args.Get(0).([]string)
	return docs, args.Error(1)
}

type mockSearcher struct{ mock.Mock }

func (m *mockSearcher) Search(ctx context.Context, query string) (string, error) {
	args := m.Called(ctx, query)
	return args.String(0), args.Error(1)
}

type charCounter struct{}

func (charCounter) Count(text string) int { return len([]rune(text)) }

func setup(t *testing.T, d *scriptedDecider, opts ...rag.Option) (*mockRetriever, *mockRetriever, *mockSearcher, *wayfinder.Workflow) {
	t.Helper()
	qna, device, search := &mockRetriever{}, &mockRetriever{}, &mockSearcher{}
	wf, err := rag.New(rag.Deps{Decider: d, QnA: qna, Device: device, Search: search}, opts...)
	require.NoError(t, err)
	return qna, device, search, wf
}

func invoke(t *testing.T, wf *wayfinder.Workflow, query string) (rag.Answer, *domain.State, error) {
	t.Helper()
	state, err := wayfinder.New().Invoke(context.Background(), wf, map[string]any{"query": query})
	if err != nil {
		return rag.Answer{}, nil, err
	}
	answer, derr := rag.DecodeState(state)
	require.NoError(t, derr)
	return answer, state, nil
}

func count(history []string, node string) int {
	n := 0
	for _, h := range history {
		if h == node {
			n++
		}
	}
	return n
}

func TestRAG_QnAPathRelevantFirstTime(t *testing.T) {
	d := &scriptedDecider{route: "Retrieve_QnA", verdicts: []string{"Yes"}}
	qna, device, search, wf := setup(t, d)
	qna.On("Query", mock.Anything, "dose of ibuprofen?", 3).Return([]string{"doc one", "doc two", "doc three"}, nil)

	answer, state, err := invoke(t, wf, "dose of ibuprofen?")
	require.NoError(t, err)

	assert.Equal(t, rag.SourceQnA, answer.Source)
	assert.Equal(t, "doc one\ndoc two\ndoc three", answer.Context)
	assert.Equal(t, "Yes", answer.IsRelevant)
	assert.Equal(t, 1, answer.IterationCount)
	assert.Equal(t, "Take two tablets daily.", answer.Response)
	assert.Contains(t, answer.Prompt, "Question: dose of ibuprofen?")
	assert.Contains(t, answer.Prompt, "please limit your answer in 50 words.")
	assert.Equal(t, []string{"Router", "Retrieve_QnA", "Relevance_Checker", "Augment", "Generate"}, state.History)

	qna.AssertExpectations(t)
	device.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything)
	search.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestRAG_IrrelevantContextFallsBackToWeb(t *testing.T) {
	d := &scriptedDecider{route: "Retrieve_Device", verdicts: []string{"No", "Yes"}}
	_, device, search, wf := setup(t, d)
	device.On("Query", mock.Anything, "pump manual", 3).Return([]string{"manual page"}, nil)
	search.On("Search", mock.Anything, "pump manual").Return("web result", nil)

	answer, state, err := invoke(t, wf, "pump manual")
	require.NoError(t, err)

	assert.Equal(t, rag.SourceWeb, answer.Source)
	assert.Equal(t, "web result", answer.Context)
	assert.Equal(t, 2, answer.IterationCount)
	assert.Equal(t, []string{"Router", "Retrieve_Device", "Relevance_Checker", "Web_Search", "Relevance_Checker", "Augment", "Generate"}, state.History)
}

func TestRAG_RelevanceForcedAfterThreeChecks(t *testing.T) {
	d := &scriptedDecider{route: "Web_Search"} // every verdict is "No"
	_, _, search, wf := setup(t, d)
	search.On("Search", mock.Anything, "latest recall").Return("nothing useful", nil)

	answer, state, err := invoke(t, wf, "latest recall")
	require.NoError(t, err)

	assert.Equal(t, 3, count(state.History, rag.NodeRelevanceChecker), "never more than three relevance checks")
	assert.Equal(t, 3, count(state.History, rag.NodeWebSearch))
	assert.Equal(t, "Yes", answer.IsRelevant, "verdict forced at the ceiling")
	assert.Equal(t, 3, answer.IterationCount)
	assert.Equal(t, rag.NodeGenerate, state.History[len(state.History)-1])
}

func TestRAG_CustomCeiling(t *testing.T) {
	d := &scriptedDecider{route: "Web_Search"}
	_, _, search, wf := setup(t, d, rag.WithMaxRelevanceChecks(5))
	search.On("Search", mock.Anything, mock.Anything).Return("r", nil)

	_, state, err := invoke(t, wf, "q")
	require.NoError(t, err)
	assert.Equal(t, 5, count(state.History, rag.NodeRelevanceChecker))
}

func TestRAG_RouterNormalizesAnswer(t *testing.T) {
	d := &scriptedDecider{route: "  retrieve_qna.\n", verdicts: []string{"yes"}}
	qna, _, _, wf := setup(t, d)
	qna.On("Query", mock.Anything, mock.Anything, 3).Return([]string{"d"}, nil)

	answer, _, err := invoke(t, wf, "q")
	require.NoError(t, err)
	assert.Equal(t, rag.SourceQnA, answer.Source)
	assert.Equal(t, "Yes", answer.IsRelevant)
}

func TestRAG_UnexpectedRouterLabel(t *testing.T) {
	d := &scriptedDecider{route: "Ask_A_Doctor"}
	_, _, _, wf := setup(t, d)

	_, _, err := invoke(t, wf, "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnmappedLabel)

	var routeErr *domain.RouteError
	require.ErrorAs(t, err, &routeErr)
	assert.Equal(t, rag.NodeRouter, routeErr.From)
	assert.Equal(t, domain.Label("Ask_A_Doctor"), routeErr.Label)
}

func TestRAG_UnexpectedRelevanceVerdict(t *testing.T) {
	d := &scriptedDecider{route: "Web_Search", verdicts: []string{"Maybe"}}
	_, _, search, wf := setup(t, d)
	search.On("Search", mock.Anything, mock.Anything).Return("r", nil)

	_, _, err := invoke(t, wf, "q")
	assert.ErrorIs(t, err, domain.ErrUnmappedLabel)
}

func TestRAG_CollaboratorFailure(t *testing.T) {
	d := &scriptedDecider{route: "Web_Search"}
	_, _, search, wf := setup(t, d)
	boom := errors.New("quota exceeded")
	search.On("Search", mock.Anything, mock.Anything).Return("", boom)

	_, _, err := invoke(t, wf, "q")
	assert.ErrorIs(t, err, boom)

	var nodeErr *domain.NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, rag.NodeWebSearch, nodeErr.NodeID)
}

func TestRAG_ContextTokenBudget(t *testing.T) {
	d := &scriptedDecider{route: "Retrieve_QnA", verdicts: []string{"Yes"}}
	qna, device, search := &mockRetriever{}, &mockRetriever{}, &mockSearcher{}
	wf, err := rag.New(rag.Deps{Decider: d, QnA: qna, Device: device, Search: search, Tokens: charCounter{}}, rag.WithMaxContextTokens(9))
	require.NoError(t, err)
	qna.On("Query", mock.Anything, mock.Anything, 3).Return([]string{"aaaa", "bbbb", "cccc"}, nil)

	answer, _, err := invoke(t, wf, "q")
	require.NoError(t, err)
	assert.Equal(t, "aaaa\nbbbb\ncccc", answer.Context, "state keeps the full context")
	assert.Contains(t, answer.Prompt, "Context:\naaaa\nbbbb\nQuestion")
}

func TestRAG_MissingDeps(t *testing.T) {
	_, err := rag.New(rag.Deps{})
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Len(t, cfgErr.Errs, 4)
}

func TestRAG_TopK(t *testing.T) {
	d := &scriptedDecider{route: "Retrieve_Device", verdicts: []string{"Yes"}}
	_, device, _, wf := setup(t, d, rag.WithTopK(5))
	device.On("Query", mock.Anything, "q", 5).Return([]string{"d"}, nil)

	_, _, err := invoke(t, wf, "q")
	require.NoError(t, err)
	device.AssertExpectations(t)
}

func TestRAG_SeededIterationCountRejected(t *testing.T) {
	d := &scriptedDecider{route: "Web_Search"}
	_, _, search, wf := setup(t, d)

	state, err := wayfinder.New().Invoke(context.Background(), wf, map[string]any{
		rag.FieldQuery:          "q",
		rag.FieldIterationCount: -20,
	})
	require.Error(t, err)
	assert.Nil(t, state)
	assert.ErrorIs(t, err, domain.ErrReservedField)
	assert.Empty(t, d.prompts, "nothing runs")
	search.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}
