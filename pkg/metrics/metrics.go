// Package metrics exposes Prometheus instrumentation for the screening
// engine. Collectors are registered on the default registry; serve them
// with promhttp.Handler on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ScreeningRunsTotal counts completed title/abstract screening runs.
	ScreeningRunsTotal prometheus.Counter

	// DecisionsTotal counts decisions recorded during screening runs,
	// partitioned by how the decision was made and what it was.
	DecisionsTotal *prometheus.CounterVec

	// ReasoningFallbacksTotal counts reasoning exchanges that collapsed
	// into the degraded unclear fallback.
	ReasoningFallbacksTotal prometheus.Counter

	// RecordsSkippedTotal counts records skipped because they already
	// held a current decision for the stage.
	RecordsSkippedTotal prometheus.Counter
)

func init() {
	ScreeningRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "screening_runs_total",
			Help: "Total number of completed title/abstract screening runs.",
		},
	)
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screening_decisions_total",
			Help: "Total number of screening decisions recorded.",
		},
		[]string{"method", "decision"},
	)
	ReasoningFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "screening_reasoning_fallbacks_total",
			Help: "Total number of reasoning calls that degraded to the unclear fallback.",
		},
	)
	RecordsSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "screening_records_skipped_total",
			Help: "Total number of records skipped because a current decision already existed.",
		},
	)

	prometheus.MustRegister(ScreeningRunsTotal, DecisionsTotal, ReasoningFallbacksTotal, RecordsSkippedTotal)
}
