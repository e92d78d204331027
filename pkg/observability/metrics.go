package observability

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/wayfinder/pkg/domain"
)

// Metrics holds the engine collectors.
type Metrics struct {
	runs          *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	nodeVisits    *prometheus.CounterVec
	nodeDuration  *prometheus.HistogramVec
	routes        *prometheus.CounterVec
	forcedRetries *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Pass prometheus.NewRegistry() in tests to avoid global state.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of workflow invocations by outcome",
			},
			[]string{"workflow", "status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of workflow invocations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"workflow"},
		),
		nodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_visits_total",
				Help:      "Total number of node visits",
			},
			[]string{"workflow", "node_id"},
		),
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "node_duration_seconds",
				Help:      "Duration of node executions",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"workflow", "node_id"},
		),
		routes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "routes_total",
				Help:      "Total number of resolved transitions",
			},
			[]string{"workflow", "from", "to", "label"},
		),
		forcedRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forced_routes_total",
				Help:      "Transitions forced by a bounded retry ceiling",
			},
			[]string{"workflow", "from"},
		),
	}
	reg.MustRegister(m.runs, m.runDuration, m.nodeVisits, m.nodeDuration, m.routes, m.forcedRetries)
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunEnd: func(_ context.Context, e *domain.RunEvent) {
			status := string(domain.RunSucceeded)
			if e.Err != nil {
				status = string(domain.RunFailed)
			}
			m.runs.WithLabelValues(e.Workflow, status).Inc()
			m.runDuration.WithLabelValues(e.Workflow).Observe(e.Duration.Seconds())
		},
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.nodeVisits.WithLabelValues(e.Workflow, e.NodeID).Inc()
		},
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			m.nodeDuration.WithLabelValues(e.Workflow, e.NodeID).Observe(e.Duration.Seconds())
		},
		OnRoute: func(_ context.Context, e *domain.RouteEvent) {
			m.routes.WithLabelValues(e.Workflow, e.From, e.To, string(e.Label)).Inc()
			if e.Forced {
				m.forcedRetries.WithLabelValues(e.Workflow, e.From).Inc()
			}
		},
	}
}

// LoggingHooks logs every lifecycle event at debug level, and failed runs at warn.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			logger.DebugContext(ctx, "run_start", "run_id", e.RunID, "workflow", e.Workflow)
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "run_end", "run_id", e.RunID, "workflow", e.Workflow, "steps", e.Steps, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "run_end", "run_id", e.RunID, "workflow", e.Workflow, "steps", e.Steps, "duration", e.Duration)
		},
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter", "run_id", e.RunID, "node_id", e.NodeID, "step", e.Step)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_leave", "run_id", e.RunID, "node_id", e.NodeID, "changed", e.Changed, "duration", e.Duration)
		},
		OnRoute: func(ctx context.Context, e *domain.RouteEvent) {
			logger.DebugContext(ctx, "route",
				"run_id", e.RunID,
				"from", e.From,
				"to", e.To,
				"label", e.Label,
				"forced", e.Forced,
				"visits", e.Visits,
			)
		},
	}
}
