// Package metrics is the one sanctioned piece of process-wide state (per
// Design Note "global singletons"): atomic counters exported as Prometheus
// gauges/counters. A Collector is constructed once and injected into every
// component that needs it, never reached via a package-level global.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the Prometheus instruments the core reports against.
type Collector struct {
	ModelCalls      *prometheus.CounterVec
	ModelFailures   *prometheus.CounterVec
	ToolInvocations *prometheus.CounterVec
	ToolFailures    *prometheus.CounterVec
	GuardFiltered   *prometheus.CounterVec
	SearchDuration  prometheus.Histogram
	SearchIterations prometheus.Histogram
}

// New registers and returns a Collector on the given registry. Pass a fresh
// prometheus.NewRegistry() in tests to avoid collisions with other Collectors.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		ModelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tot_model_calls_total",
			Help: "Model calls issued, by tier and task.",
		}, []string{"tier", "task"}),
		ModelFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tot_model_failures_total",
			Help: "Model call failures, by tier and kind.",
		}, []string{"tier", "kind"}),
		ToolInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tot_tool_invocations_total",
			Help: "Tool invocations, by tool name.",
		}, []string{"tool"}),
		ToolFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tot_tool_failures_total",
			Help: "Tool invocation failures, by tool name.",
		}, []string{"tool"}),
		GuardFiltered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tot_content_guard_filtered_total",
			Help: "Documents filtered by the content guard, by stage.",
		}, []string{"stage"}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tot_search_duration_seconds",
			Help:    "Wall time of a single ToT search.",
			Buckets: prometheus.DefBuckets,
		}),
		SearchIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tot_search_iterations",
			Help:    "Iteration count of a single ToT search.",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		}),
	}
	reg.MustRegister(
		c.ModelCalls, c.ModelFailures, c.ToolInvocations,
		c.ToolFailures, c.GuardFiltered, c.SearchDuration, c.SearchIterations,
	)
	return c
}

// NewNop returns a Collector registered against a private registry, for
// tests and contexts that don't export metrics anywhere.
func NewNop() *Collector {
	return New(prometheus.NewRegistry())
}
