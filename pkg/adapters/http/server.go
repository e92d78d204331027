package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/wayfinder"
	"github.com/aretw0/wayfinder/internal/presentation/graph"
	"github.com/aretw0/wayfinder/pkg/domain"
	wfgraph "github.com/aretw0/wayfinder/pkg/graph"
	"github.com/aretw0/wayfinder/pkg/ports"
	"github.com/aretw0/wayfinder/pkg/runner"
	"github.com/aretw0/wayfinder/pkg/workflows/rag"
	"github.com/aretw0/wayfinder/pkg/workflows/support"
)

// maxBodySize bounds request bodies before decoding.
const maxBodySize = 1 << 20

// Server exposes workflows, run records and lifecycle events over HTTP.
type Server struct {
	Runner    *runner.Runner
	Store     ports.RunStore
	Workflows map[string]*wfgraph.Workflow
	Streams   *StreamManager
	Metrics   http.Handler
	Logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams enables GET /v1/events. Register sm.Hooks() on the engine so events flow.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) { s.Streams = sm }
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.Metrics = h }
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.Logger = logger }
}

// NewHandler builds the router. store may be nil, which disables the run endpoints.
func NewHandler(r *runner.Runner, store ports.RunStore, workflows map[string]*wfgraph.Workflow, opts ...Option) http.Handler {
	s := &Server{
		Runner:    r,
		Store:     store,
		Workflows: workflows,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/support", s.SubmitTicket)
		r.Post("/rag", s.Ask)

		r.Get("/workflows", s.ListWorkflows)
		r.Get("/workflows/{name}/graph", s.GetGraph)
		r.Post("/workflows/{name}/runs", s.RunWorkflow)

		r.Get("/runs", s.ListRuns)
		r.Get("/runs/{id}", s.GetRun)
		r.Delete("/runs/{id}", s.DeleteRun)

		if s.Streams != nil {
			r.Get("/events", s.SubscribeEvents)
		}
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TicketRequest is the body of POST /v1/support.
type TicketRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
	Context string `json:"context"` // Previous conversation, one entry per line
}

// TicketResponse pairs the run id with the typed triage outcome.
type TicketResponse struct {
	RunID string `json:"run_id"`
	support.Ticket
}

// AskRequest is the body of POST /v1/rag.
type AskRequest struct {
	Query string `json:"query"`
}

// AskResponse pairs the run id with the typed retrieval outcome.
type AskResponse struct {
	RunID string `json:"run_id"`
	rag.Answer
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string            `json:"error"`
	Run   *domain.RunRecord `json:"run,omitempty"`
}

// SubmitTicket handles POST /v1/support.
func (s *Server) SubmitTicket(w http.ResponseWriter, r *http.Request) {
	wf, ok := s.workflow(w, support.Name)
	if !ok {
		return
	}
	var body TicketRequest
	if !s.decode(w, r, &body) {
		return
	}
	input, err := support.Input(body.UserID, body.Message, body.Context)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err, nil)
		return
	}

	rec, ok := s.run(w, r, wf, input)
	if !ok {
		return
	}
	ticket, err := support.Decode(rec.Output)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err, rec)
		return
	}
	writeJSON(w, http.StatusOK, TicketResponse{RunID: rec.ID, Ticket: ticket})
}

// Ask handles POST /v1/rag.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	wf, ok := s.workflow(w, rag.Name)
	if !ok {
		return
	}
	var body AskRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.Query == "" {
		s.fail(w, http.StatusBadRequest, errors.New("query must not be empty"), nil)
		return
	}

	rec, ok := s.run(w, r, wf, map[string]any{rag.FieldQuery: body.Query})
	if !ok {
		return
	}
	answer, err := rag.Decode(rec.Output)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err, rec)
		return
	}
	writeJSON(w, http.StatusOK, AskResponse{RunID: rec.ID, Answer: answer})
}

// RunWorkflow handles POST /v1/workflows/{name}/runs with a raw input object.
func (s *Server) RunWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, ok := s.workflow(w, chi.URLParam(r, "name"))
	if !ok {
		return
	}
	var input map[string]any
	if !s.decode(w, r, &input) {
		return
	}
	rec, ok := s.run(w, r, wf, input)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListWorkflows handles GET /v1/workflows.
func (s *Server) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.Workflows))
	for name := range s.Workflows {
		names = append(names, name)
	}
	sort.Strings(names)
	writeJSON(w, http.StatusOK, map[string][]string{"workflows": names})
}

// GetGraph handles GET /v1/workflows/{name}/graph. ?format=mermaid returns a flowchart.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	wf, ok := s.workflow(w, chi.URLParam(r, "name"))
	if !ok {
		return
	}
	desc := wf.Describe()
	if r.URL.Query().Get("format") == "mermaid" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, graph.GenerateMermaid(desc, nil))
		return
	}
	writeJSON(w, http.StatusOK, desc)
}

// ListRuns handles GET /v1/runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	ids, err := s.Store.List(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"runs": ids})
}

// GetRun handles GET /v1/runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	rec, err := s.Store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			s.fail(w, http.StatusNotFound, err, nil)
			return
		}
		s.fail(w, http.StatusInternalServerError, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteRun handles DELETE /v1/runs/{id}.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	if err := s.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, http.StatusInternalServerError, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "wayfinder-http",
		"version": wayfinder.Version,
	})
}

// SubscribeEvents handles GET /v1/events (SSE). ?workflow=<name> narrows the stream.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	topic := r.URL.Query().Get("workflow")
	if topic == "" {
		topic = AllWorkflows
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(topic)
	defer cancel()
	s.Logger.Info("SSE: Subscribed", "workflow", topic)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE Client Disconnected", "workflow", topic)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// -- Helpers --

func (s *Server) workflow(w http.ResponseWriter, name string) (*wfgraph.Workflow, bool) {
	wf, ok := s.Workflows[name]
	if !ok {
		s.fail(w, http.StatusNotFound, fmt.Errorf("workflow %q is not available", name), nil)
	}
	return wf, ok
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.Store == nil {
		s.fail(w, http.StatusNotImplemented, errors.New("run storage is disabled"), nil)
		return false
	}
	return true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(dst); err != nil {
		s.Logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		s.fail(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err), nil)
		return false
	}
	return true
}

func (s *Server) run(w http.ResponseWriter, r *http.Request, wf *wfgraph.Workflow, input map[string]any) (*domain.RunRecord, bool) {
	rec, err := s.Runner.Run(r.Context(), wf, input)
	if err != nil {
		s.Logger.Warn("Run failed", "workflow", wf.Name, "err", err)
		s.fail(w, StatusFor(err), err, rec)
		return nil, false
	}
	return rec, true
}

func (s *Server) fail(w http.ResponseWriter, status int, err error, rec *domain.RunRecord) {
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Run: rec})
}

// StatusFor maps invocation errors to HTTP status codes.
func StatusFor(err error) int {
	var (
		stateErr *domain.StateValidationError
		nodeErr  *domain.NodeError
	)
	switch {
	case errors.Is(err, runner.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, runner.ErrInvalidUTF8), errors.Is(err, support.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.As(err, &stateErr) && stateErr.NodeID == "":
		return http.StatusUnprocessableEntity
	case errors.As(err, &nodeErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "err", err)
	}
}
