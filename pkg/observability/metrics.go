// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the einlass gateway.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "einlass_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "einlass_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// AuthOutcomesTotal counts gate decisions by outcome
	// (no_attempt, authenticated, rejected).
	AuthOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "einlass_auth_outcomes_total",
			Help: "Authentication gate outcomes",
		},
		[]string{"outcome"},
	)

	// ChallengesTotal counts 401 challenges issued to clients.
	ChallengesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "einlass_challenges_total",
			Help: "Authentication challenges issued",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AuthOutcomesTotal,
		ChallengesTotal,
	)
}
