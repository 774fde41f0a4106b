// Package metrics exposes the engine's diagnostics as Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Failures counts rejected candidate pitches.
	// Labels: reason (range, parallels, harmonic-interval, consonance, melodic-limit)
	Failures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voicelead",
			Subsystem: "engine",
			Name:      "failures_total",
			Help:      "Total number of rejected candidate pitches by reason",
		},
		[]string{"reason"},
	)

	// Exhaustions counts sessions that ran out of voice leadings.
	Exhaustions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "voicelead",
			Subsystem: "engine",
			Name:      "exhaustions_total",
			Help:      "Total number of voice-leading sessions that ran out of candidates",
		},
	)

	// Runs counts engine walks.
	// Labels: result (success, exhausted, ceiling)
	Runs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voicelead",
			Subsystem: "engine",
			Name:      "runs_total",
			Help:      "Total number of engine walks by result",
		},
		[]string{"result"},
	)

	// Searches counts minimal-displacement requests served over HTTP.
	Searches = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "voicelead",
			Subsystem: "http",
			Name:      "lead_requests_total",
			Help:      "Total number of voice-leading search requests",
		},
	)
)

func RecordFailure(reason string) {
	Failures.WithLabelValues(reason).Inc()
}

func RecordExhaustion() {
	Exhaustions.Inc()
}

func RecordRun(result string) {
	Runs.WithLabelValues(result).Inc()
}
