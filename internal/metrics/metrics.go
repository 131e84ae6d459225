// Package metrics declares the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BackendCalls counts plan generation attempts by backend and outcome
	// ("ok" or "error").
	BackendCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_backend_calls_total",
		Help: "Plan generation attempts by backend and outcome",
	}, []string{"backend", "outcome"})

	// Fallbacks counts plans served by the fallback backend.
	Fallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planner_fallbacks_total",
		Help: "Plans served by the fallback backend after a primary failure",
	})

	// BackfilledDays counts itinerary days filled in by post-processing.
	BackfilledDays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planner_backfilled_days_total",
		Help: "Empty itinerary days filled by post-processing",
	})

	// BookingsCreated counts simulated booking records by type and status.
	BookingsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Simulated booking records by type and status",
	}, []string{"type", "status"})

	// HTTPDuration observes request latency by route template and status.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}, []string{"method", "route", "status"})
)
