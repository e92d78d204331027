package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/wayfinder"
	"github.com/aretw0/wayfinder/pkg/adapters/corpus"
	wfhttp "github.com/aretw0/wayfinder/pkg/adapters/http"
	"github.com/aretw0/wayfinder/pkg/adapters/memory"
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/graph"
	"github.com/aretw0/wayfinder/pkg/ports"
	"github.com/aretw0/wayfinder/pkg/runner"
	"github.com/aretw0/wayfinder/pkg/workflows/rag"
	"github.com/aretw0/wayfinder/pkg/workflows/support"
)

type searchFunc func(ctx context.Context, q string) (string, error)

func (f searchFunc) Search(ctx context.Context, q string) (string, error) { return f(ctx, q) }

func scripted(route string) ports.DeciderFunc {
	return func(_ context.Context, prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "routing agent"):
			return route, nil
		case strings.Contains(prompt, "Check whether the context"):
			return "Yes", nil
		default:
			return " Replace the cartridge every three days. ", nil
		}
	}
}

type fixture struct {
	handler http.Handler
	store   *memory.Store
	streams *wfhttp.StreamManager
}

func newFixture(t *testing.T, decider ports.Decider) fixture {
	t.Helper()
	clock := func() time.Time { return time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC) }
	supportWF, err := support.New(support.WithClock(clock))
	require.NoError(t, err)

	device := corpus.New("Medical Device Manual",
		corpus.Document{ID: "pump", Title: "Insulin pump", Text: "Replace the insulin cartridge every three days."})
	qna := corpus.New("Medical Q&A Collection",
		corpus.Document{ID: "fever", Text: "A fever above 39C warrants a doctor visit."})
	ragWF, err := rag.New(rag.Deps{
		Decider: decider,
		QnA:     qna,
		Device:  device,
		Search:  searchFunc(func(context.Context, string) (string, error) { return "web result", nil }),
	})
	require.NoError(t, err)

	store := memory.NewStore()
	streams := wfhttp.NewStreamManager()
	engine := wayfinder.New(wayfinder.WithLifecycleHooks(streams.Hooks()))
	r := runner.New(engine, runner.WithStore(store))

	h := wfhttp.NewHandler(r, store, map[string]*graph.Workflow{
		support.Name: supportWF,
		rag.Name:     ragWF,
	},
		wfhttp.WithStreams(streams),
		wfhttp.WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		})),
	)
	return fixture{handler: h, store: store, streams: streams}
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSubmitTicket(t *testing.T) {
	f := newFixture(t, scripted("Retrieve_QnA"))

	w := do(t, f.handler, http.MethodPost, "/v1/support", wfhttp.TicketRequest{
		UserID:  "u-1",
		Message: "URGENT: Cannot access my account, need help immediately!",
		Context: "first contact\n\n  tried resetting  ",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp wfhttp.TicketResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "critical", resp.Priority)
	assert.True(t, resp.Escalate)
	assert.Equal(t, "TKT-20250115093000", resp.TicketID)
	assert.Equal(t, []string{"first contact", "tried resetting"}, resp.Context)

	rec, err := f.store.Load(context.Background(), resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunSucceeded, rec.Status)
}

func TestSubmitTicket_EmptyMessage(t *testing.T) {
	f := newFixture(t, scripted("Retrieve_QnA"))
	w := do(t, f.handler, http.MethodPost, "/v1/support", wfhttp.TicketRequest{UserID: "u-1", Message: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), support.ErrEmptyMessage.Error())
}

func TestSubmitTicket_BadJSON(t *testing.T) {
	f := newFixture(t, scripted("Retrieve_QnA"))
	req := httptest.NewRequest(http.MethodPost, "/v1/support", strings.NewReader("{"))
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAsk(t *testing.T) {
	f := newFixture(t, scripted("Retrieve_Device"))

	w := do(t, f.handler, http.MethodPost, "/v1/rag", wfhttp.AskRequest{Query: "How often do I change the insulin cartridge?"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp wfhttp.AskResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Medical Device Manual", resp.Source)
	assert.Equal(t, "Replace the cartridge every three days.", resp.Response)
	assert.Equal(t, 1, resp.IterationCount)
}

func TestAsk_DeciderFailureIsRecorded(t *testing.T) {
	failing := ports.DeciderFunc(func(context.Context, string) (string, error) {
		return "", errors.New("upstream unavailable")
	})
	f := newFixture(t, failing)

	w := do(t, f.handler, http.MethodPost, "/v1/rag", wfhttp.AskRequest{Query: "anything"})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp wfhttp.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotNil(t, resp.Run)
	assert.Equal(t, domain.RunFailed, resp.Run.Status)

	w = do(t, f.handler, http.MethodGet, "/v1/runs/"+resp.Run.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRunWorkflow_UndeclaredInput(t *testing.T) {
	f := newFixture(t, scripted("Retrieve_QnA"))
	w := do(t, f.handler, http.MethodPost, "/v1/workflows/support/runs", map[string]any{
		"user_id": "u", "message": "hello", "mood": "sunny",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRunWorkflow_SeededRetryCounter(t *testing.T) {
	f := newFixture(t, scripted("Web_Search"))
	w := do(t, f.handler, http.MethodPost, "/v1/workflows/rag/runs", map[string]any{
		"query": "q", "iteration_count": -20,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "iteration_count")
}

func TestRunWorkflow_Raw(t *testing.T) {
	f := newFixture(t, scripted("Retrieve_QnA"))
	w := do(t, f.handler, http.MethodPost, "/v1/workflows/support/runs", map[string]any{
		"user_id": "u", "message": "How do I reset my password?",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rec domain.RunRecord
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rec))
	assert.Equal(t, "Automated response for account query", rec.Output["response"])
	assert.Equal(t, "automated", rec.History[len(rec.History)-1])
}

func TestRunsEndpoints(t *testing.T) {
	f := newFixture(t, scripted("Retrieve_QnA"))

	w := do(t, f.handler, http.MethodGet, "/v1/runs/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, f.handler, http.MethodPost, "/v1/support", wfhttp.TicketRequest{UserID: "u", Message: "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp wfhttp.TicketResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	w = do(t, f.handler, http.MethodGet, "/v1/runs", nil)
	assert.JSONEq(t, `{"runs":["`+resp.RunID+`"]}`, w.Body.String())

	w = do(t, f.handler, http.MethodDelete, "/v1/runs/"+resp.RunID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, f.handler, http.MethodGet, "/v1/runs/"+resp.RunID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWorkflowEndpoints(t *testing.T) {
	f := newFixture(t, scripted("Retrieve_QnA"))

	w := do(t, f.handler, http.MethodGet, "/v1/workflows", nil)
	assert.JSONEq(t, `{"workflows":["rag","support"]}`, w.Body.String())

	w = do(t, f.handler, http.MethodGet, "/v1/workflows/rag/graph", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var desc graph.Description
	require.NoError(t, json.NewDecoder(w.Body).Decode(&desc))
	assert.Equal(t, "rag", desc.Name)
	assert.Equal(t, rag.DefaultMaxRelevanceChecks, desc.MaxVisits[rag.NodeRelevanceChecker])

	w = do(t, f.handler, http.MethodGet, "/v1/workflows/support/graph?format=mermaid", nil)
	assert.True(t, strings.HasPrefix(w.Body.String(), "graph TD\n"))

	w = do(t, f.handler, http.MethodGet, "/v1/workflows/nope/graph", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthInfoMetrics(t *testing.T) {
	f := newFixture(t, scripted("Retrieve_QnA"))

	w := do(t, f.handler, http.MethodGet, "/health", nil)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, f.handler, http.MethodGet, "/info", nil)
	assert.Contains(t, w.Body.String(), wayfinder.Version)

	w = do(t, f.handler, http.MethodGet, "/metrics", nil)
	assert.Equal(t, "# metrics", w.Body.String())
}

func TestSubscribeEvents(t *testing.T) {
	f := newFixture(t, scripted("Retrieve_QnA"))
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/events?workflow=support", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())
	require.Eventually(t, func() bool { return f.streams.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	w := do(t, f.handler, http.MethodPost, "/v1/support", wfhttp.TicketRequest{UserID: "u", Message: "hello"})
	require.Equal(t, http.StatusOK, w.Code)

	var first string
	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "data: {") {
			first = strings.TrimPrefix(lines.Text(), "data: ")
			break
		}
	}
	var ev map[string]any
	require.NoError(t, json.Unmarshal([]byte(first), &ev))
	assert.Equal(t, "run_start", ev["type"])
	assert.Equal(t, "support", ev["workflow"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusRequestEntityTooLarge, wfhttp.StatusFor(runner.ErrInputTooLarge))
	assert.Equal(t, http.StatusBadGateway, wfhttp.StatusFor(&domain.NodeError{NodeID: "n", Err: errors.New("x")}))
	assert.Equal(t, http.StatusInternalServerError, wfhttp.StatusFor(&domain.StateValidationError{NodeID: "n", Err: errors.New("x")}))
	assert.Equal(t, http.StatusUnprocessableEntity, wfhttp.StatusFor(&domain.StateValidationError{Err: errors.New("x")}))
}
