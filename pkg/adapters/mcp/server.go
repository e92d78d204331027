package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/wayfinder"
	"github.com/aretw0/wayfinder/internal/presentation/graph"
	"github.com/aretw0/wayfinder/pkg/domain"
	wfgraph "github.com/aretw0/wayfinder/pkg/graph"
	"github.com/aretw0/wayfinder/pkg/ports"
	"github.com/aretw0/wayfinder/pkg/runner"
	"github.com/aretw0/wayfinder/pkg/workflows/rag"
	"github.com/aretw0/wayfinder/pkg/workflows/support"
)

const runURIPrefix = "wayfinder://runs/"

// TriageResult is the payload of the triage tool.
type TriageResult struct {
	RunID  string         `json:"run_id"`
	Ticket support.Ticket `json:"ticket"`
}

// AskResult is the payload of the ask tool.
type AskResult struct {
	RunID  string     `json:"run_id"`
	Answer rag.Answer `json:"answer"`
}

// Server exposes the workflows as MCP tools.
type Server struct {
	runner    *runner.Runner
	store     ports.RunStore
	workflows map[string]*wfgraph.Workflow
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance. store may be nil, which hides the run tools.
func NewServer(r *runner.Runner, store ports.RunStore, workflows map[string]*wfgraph.Workflow) *Server {
	s := &Server{
		runner:    r,
		store:     store,
		workflows: workflows,
		mcpServer: server.NewMCPServer("wayfinder-mcp", wayfinder.Version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	if _, ok := s.workflows[support.Name]; ok {
		s.mcpServer.AddTool(mcp.NewTool("triage",
			mcp.WithDescription("Classify a customer support message and route it to an automated answer, an AI response or a human escalation."),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("Customer identifier")),
			mcp.WithString("message", mcp.Required(), mcp.Description("The support message")),
			mcp.WithString("context", mcp.Description("Previous conversation, one entry per line")),
		), s.handleTriage)
	}

	if _, ok := s.workflows[rag.Name]; ok {
		s.mcpServer.AddTool(mcp.NewTool("ask",
			mcp.WithDescription("Answer a medical question from the Q&A collection, the device manual or a web search."),
			mcp.WithString("query", mcp.Required(), mcp.Description("The question")),
		), s.handleAsk)
	}

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Describe a workflow's nodes and edges."),
		mcp.WithString("workflow", mcp.Required(), mcp.Description("Workflow name"), mcp.Enum(s.workflowNames()...)),
		mcp.WithString("format", mcp.Description("json (default) or mermaid"), mcp.Enum("json", "mermaid")),
	), s.handleGetGraph)

	if s.store != nil {
		s.mcpServer.AddTool(mcp.NewTool("get_run",
			mcp.WithDescription("Fetch a stored run record by id."),
			mcp.WithString("run_id", mcp.Required(), mcp.Description("Run id returned by triage or ask")),
		), s.handleGetRun)
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("wayfinder://workflows", "Available workflows",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		descs := make([]wfgraph.Description, 0, len(s.workflows))
		for _, name := range s.workflowNames() {
			descs = append(descs, s.workflows[name].Describe())
		}
		return jsonResource(request.Params.URI, descs)
	})

	if s.store == nil {
		return
	}
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(runURIPrefix+"{id}", "Run record",
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id := strings.TrimPrefix(request.Params.URI, runURIPrefix)
		rec, err := s.store.Load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load run %s: %w", id, err)
		}
		return jsonResource(request.Params.URI, rec)
	})
}

func (s *Server) handleTriage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	input, err := support.Input(userID, message, request.GetString("context", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, err := s.runner.Run(ctx, s.workflows[support.Name], input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("triage failed: %v", err)), nil
	}
	ticket, err := support.Decode(rec.Output)
	if err != nil {
		return nil, err
	}
	return jsonResult(TriageResult{RunID: rec.ID, Ticket: ticket})
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.runner.Run(ctx, s.workflows[rag.Name], map[string]any{rag.FieldQuery: query})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
	}
	answer, err := rag.Decode(rec.Output)
	if err != nil {
		return nil, err
	}
	return jsonResult(AskResult{RunID: rec.ID, Answer: answer})
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("workflow")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	wf, ok := s.workflows[name]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown workflow %q", name)), nil
	}
	if request.GetString("format", "json") == "mermaid" {
		return mcp.NewToolResultText(graph.GenerateMermaid(wf.Describe(), nil)), nil
	}
	return jsonResult(wf.Describe())
}

func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("run_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("run %s not found", id)), nil
		}
		return nil, err
	}
	return jsonResult(rec)
}

func (s *Server) workflowNames() []string {
	names := make([]string, 0, len(s.workflows))
	for name := range s.workflows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
