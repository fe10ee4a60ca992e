package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	// Tool metrics
	ToolExecutionsTotal   *prometheus.CounterVec
	ToolExecutionDuration *prometheus.HistogramVec
	ToolsRegistered       prometheus.Gauge

	// Agent metrics
	AgentRunsTotal       *prometheus.CounterVec
	AgentRunDuration     prometheus.Histogram
	AgentToolCallsTotal  prometheus.Counter
	LLMRequestsTotal     *prometheus.CounterVec
	LLMRetriesTotal      prometheus.Counter
	ReflectionsTotal     *prometheus.CounterVec
	MemorySnapshotsTotal prometheus.Counter
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		ToolExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_executions_total",
				Help: "Total number of tool executions",
			},
			[]string{"tool_name", "status"},
		),
		ToolExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool_name"},
		),
		ToolsRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tools_registered",
				Help: "Number of tools currently registered",
			},
		),

		AgentRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_runs_total",
				Help: "Total number of agent runs",
			},
			[]string{"status"},
		),
		AgentRunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agent_run_duration_seconds",
				Help:    "Duration of agent runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		AgentToolCallsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "agent_tool_calls_total",
				Help: "Total number of tool calls requested by the planner",
			},
		),
		LLMRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total number of LLM API requests",
			},
			[]string{"provider", "status"},
		),
		LLMRetriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "llm_retries_total",
				Help: "Total number of retried LLM API requests",
			},
		),
		ReflectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reflections_total",
				Help: "Total number of reflection passes",
			},
			[]string{"outcome"},
		),
		MemorySnapshotsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "memory_snapshots_total",
				Help: "Total number of memory snapshots written",
			},
		),
	}

	registry.MustRegister(
		m.ToolExecutionsTotal,
		m.ToolExecutionDuration,
		m.ToolsRegistered,
		m.AgentRunsTotal,
		m.AgentRunDuration,
		m.AgentToolCallsTotal,
		m.LLMRequestsTotal,
		m.LLMRetriesTotal,
		m.ReflectionsTotal,
		m.MemorySnapshotsTotal,
	)

	return m
}

// Handler returns an HTTP handler exposing the metrics registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
