// Package cli wires configuration into a ready-to-use application: logger, engine,
// run store, workflows and the HTTP/MCP front ends.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/wayfinder"
	"github.com/aretw0/wayfinder/internal/config"
	"github.com/aretw0/wayfinder/internal/logging"
	"github.com/aretw0/wayfinder/pkg/adapters/corpus"
	wfhttp "github.com/aretw0/wayfinder/pkg/adapters/http"
	"github.com/aretw0/wayfinder/pkg/adapters/llm"
	"github.com/aretw0/wayfinder/pkg/adapters/mcp"
	"github.com/aretw0/wayfinder/pkg/adapters/memory"
	"github.com/aretw0/wayfinder/pkg/adapters/redis"
	"github.com/aretw0/wayfinder/pkg/adapters/search"
	"github.com/aretw0/wayfinder/pkg/adapters/tokenizer"
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/graph"
	"github.com/aretw0/wayfinder/pkg/observability"
	"github.com/aretw0/wayfinder/pkg/persistence/middleware"
	"github.com/aretw0/wayfinder/pkg/ports"
	"github.com/aretw0/wayfinder/pkg/runner"
	"github.com/aretw0/wayfinder/pkg/workflows/rag"
	"github.com/aretw0/wayfinder/pkg/workflows/support"
)

// ErrWorkflowUnavailable is returned when a workflow could not be built from the config.
var ErrWorkflowUnavailable = errors.New("workflow unavailable")

// App is the assembled application.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Engine    *wayfinder.Engine
	Store     ports.RunStore
	Runner    *runner.Runner
	Workflows map[string]*graph.Workflow
	Streams   *wfhttp.StreamManager
	Registry  *prometheus.Registry

	// Reasons records why an optional workflow was left out.
	Reasons map[string]string

	closers []func() error
	pingers []func(context.Context) error
}

type appOptions struct {
	logWriter io.Writer
	decider   ports.Decider
	searcher  ports.Searcher
	clock     func() time.Time
}

// AppOption customizes NewApp, mostly for tests.
type AppOption func(*appOptions)

// WithLogWriter sends logs to w instead of stderr.
func WithLogWriter(w io.Writer) AppOption {
	return func(o *appOptions) { o.logWriter = w }
}

// WithDecider replaces the configured LLM client.
func WithDecider(d ports.Decider) AppOption {
	return func(o *appOptions) { o.decider = d }
}

// WithSearcher replaces the configured web search client.
func WithSearcher(s ports.Searcher) AppOption {
	return func(o *appOptions) { o.searcher = s }
}

// WithClock fixes the clock used for ticket ids and run timestamps.
func WithClock(now func() time.Time) AppOption {
	return func(o *appOptions) { o.clock = now }
}

// NewApp builds every component named by cfg. The support workflow is always
// available; rag needs a decision function (an LLM API key, a non-default LLM base
// URL, or WithDecider).
func NewApp(cfg config.Config, opts ...AppOption) (*App, error) {
	o := appOptions{logWriter: os.Stderr, clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	a := &App{
		Config:    cfg,
		Logger:    logging.NewWithWriter(o.logWriter, level, cfg.Log.Format),
		Workflows: make(map[string]*graph.Workflow),
		Streams:   wfhttp.NewStreamManager(),
		Reasons:   make(map[string]string),
	}

	if a.Store, err = a.buildStore(); err != nil {
		return nil, err
	}

	hooks := []domain.LifecycleHooks{observability.LoggingHooks(a.Logger), a.Streams.Hooks()}
	if cfg.Metrics.Enabled {
		a.Registry = prometheus.NewRegistry()
		a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		hooks = append(hooks, observability.NewMetrics(cfg.Metrics.Namespace, a.Registry).Hooks())
	}

	a.Engine = wayfinder.New(
		wayfinder.WithLogger(a.Logger),
		wayfinder.WithLifecycleHooks(domain.ChainHooks(hooks...)),
		wayfinder.WithMaxSteps(cfg.Limits.MaxSteps),
	)
	a.Runner = runner.New(a.Engine,
		runner.WithStore(a.Store),
		runner.WithLogger(a.Logger),
		runner.WithMaxInputSize(cfg.Limits.MaxInputSize),
		runner.WithClock(o.clock),
	)

	decider, err := a.buildDecider(o.decider)
	if err != nil {
		return nil, err
	}

	supportOpts := []support.Option{
		support.WithKeywords(cfg.Support.Keywords),
		support.WithLogger(a.Logger),
		support.WithClock(o.clock),
	}
	if cfg.Support.UseLLM && decider != nil {
		supportOpts = append(supportOpts, support.WithResponder(decider))
	}
	supportWF, err := support.New(supportOpts...)
	if err != nil {
		return nil, fmt.Errorf("build support workflow: %w", err)
	}
	a.Workflows[support.Name] = supportWF

	if decider == nil {
		a.Reasons[rag.Name] = "no LLM configured (set llm.api_key or WAYFINDER_LLM_API_KEY)"
	} else {
		ragWF, err := a.buildRAG(decider, o.searcher)
		if err != nil {
			return nil, err
		}
		a.Workflows[rag.Name] = ragWF
	}

	return a, nil
}

func (a *App) buildStore() (ports.RunStore, error) {
	var store ports.RunStore = memory.NewStore()
	if rc := a.Config.Redis; rc.Addr != "" {
		rs := redis.New(rc.Addr, rc.Password, rc.DB, redis.WithPrefix(rc.Prefix), redis.WithTTL(rc.TTL))
		a.closers = append(a.closers, rs.Close)
		a.pingers = append(a.pingers, rs.Ping)
		a.Logger.Info("Using redis run store", "addr", rc.Addr, "prefix", rc.Prefix)
		store = rs
	}

	sc := a.Config.Store
	var mws []middleware.Middleware
	if len(sc.MaskFields) > 0 {
		mw, err := middleware.NewPIIMiddleware(sc.MaskFields)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	active, fallbacks, err := sc.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallbacks})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
		a.Logger.Info("Run records are encrypted at rest", "fallback_keys", len(fallbacks))
	}
	return middleware.Chain(store, mws...), nil
}

func (a *App) buildDecider(override ports.Decider) (ports.Decider, error) {
	if override != nil {
		return override, nil
	}
	lc := a.Config.LLM
	if lc.APIKey == "" && lc.BaseURL == config.Default().LLM.BaseURL {
		return nil, nil
	}
	client, err := llm.New(llm.Config{
		BaseURL:     lc.BaseURL,
		APIKey:      lc.APIKey,
		Model:       lc.Model,
		Temperature: lc.Temperature,
		Timeout:     lc.Timeout,
		RPS:         lc.RPS,
		Burst:       lc.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("build llm client: %w", err)
	}
	return client, nil
}

func (a *App) buildRAG(decider ports.Decider, searcher ports.Searcher) (*graph.Workflow, error) {
	cfg := a.Config
	qna, err := a.loadCorpus(rag.SourceQnA, cfg.Corpus.QnA)
	if err != nil {
		return nil, err
	}
	device, err := a.loadCorpus(rag.SourceDevice, cfg.Corpus.Device)
	if err != nil {
		return nil, err
	}

	if searcher == nil {
		if cfg.Search.APIKey == "" {
			a.Logger.Warn("Web search disabled: no search api key")
			searcher = search.Unavailable{}
		} else {
			searcher, err = search.NewSerper(search.Config{
				Endpoint:   cfg.Search.Endpoint,
				APIKey:     cfg.Search.APIKey,
				NumResults: cfg.Search.NumResults,
				Timeout:    cfg.Search.Timeout,
				RPS:        cfg.Search.RPS,
			})
			if err != nil {
				return nil, err
			}
		}
	}

	deps := rag.Deps{Decider: decider, QnA: qna, Device: device, Search: searcher}
	if cfg.RAG.MaxContextTokens > 0 {
		counter, err := tokenizer.New(cfg.RAG.Encoding)
		if err != nil {
			// The budget is an optimization; run without it rather than fail.
			a.Logger.Warn("Token budget disabled", "encoding", cfg.RAG.Encoding, "err", err)
		} else {
			deps.Tokens = counter
		}
	}

	wf, err := rag.New(deps,
		rag.WithTopK(cfg.RAG.TopK),
		rag.WithMaxRelevanceChecks(cfg.RAG.MaxRelevanceChecks),
		rag.WithMaxContextTokens(cfg.RAG.MaxContextTokens),
		rag.WithLogger(a.Logger),
	)
	if err != nil {
		return nil, fmt.Errorf("build rag workflow: %w", err)
	}
	return wf, nil
}

func (a *App) loadCorpus(name, path string) (*corpus.Collection, error) {
	if path == "" {
		a.Logger.Warn("No corpus configured, retrieval will return nothing", "collection", name)
		return corpus.New(name), nil
	}
	c, err := corpus.Load(path)
	if err != nil {
		return nil, err
	}
	if c.Name == "" {
		c.Name = name
	}
	a.Logger.Info("Loaded corpus", "collection", name, "documents", c.Len(), "path", path)
	return c, nil
}

// Workflow returns a built workflow by name.
func (a *App) Workflow(name string) (*graph.Workflow, error) {
	if wf, ok := a.Workflows[name]; ok {
		return wf, nil
	}
	if reason, ok := a.Reasons[name]; ok {
		return nil, fmt.Errorf("%w: %s: %s", ErrWorkflowUnavailable, name, reason)
	}
	return nil, fmt.Errorf("%w: %s (known: %v)", ErrWorkflowUnavailable, name, a.WorkflowNames())
}

// WorkflowNames lists the built workflows, sorted.
func (a *App) WorkflowNames() []string {
	names := make([]string, 0, len(a.Workflows))
	for name := range a.Workflows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HTTPHandler returns the REST API router.
func (a *App) HTTPHandler() http.Handler {
	opts := []wfhttp.Option{wfhttp.WithStreams(a.Streams), wfhttp.WithLogger(a.Logger)}
	if a.Registry != nil {
		opts = append(opts, wfhttp.WithMetricsHandler(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{Registry: a.Registry})))
	}
	return wfhttp.NewHandler(a.Runner, a.Store, a.Workflows, opts...)
}

// MCPServer returns the MCP adapter over the same runner and store.
func (a *App) MCPServer() *mcp.Server {
	return mcp.NewServer(a.Runner, a.Store, a.Workflows)
}

// Serve runs the HTTP server until ctx is done, then shuts it down gracefully.
func (a *App) Serve(ctx context.Context) error {
	sc := a.Config.Server
	srv := &http.Server{
		Addr:              sc.Addr,
		Handler:           a.HTTPHandler(),
		ReadTimeout:       sc.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      sc.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("HTTP server listening", "addr", sc.Addr, "workflows", a.WorkflowNames())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.Logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), sc.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", sc.ShutdownTimeout, err)
		}
		return nil
	})
	return g.Wait()
}

// Ping checks backing services.
func (a *App) Ping(ctx context.Context) error {
	for _, ping := range a.pingers {
		if err := ping(ctx); err != nil {
			return fmt.Errorf("run store: %w", err)
		}
	}
	return nil
}

// Close releases backing services.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
