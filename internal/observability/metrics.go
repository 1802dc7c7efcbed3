package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	requestsTotal       *prometheus.CounterVec
	latencySeconds      *prometheus.HistogramVec
	errorsTotal         *prometheus.CounterVec
	submissionsAccepted *prometheus.CounterVec
	leaderboardBuilds   *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examify_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "examify_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examify_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		submissionsAccepted = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examify_submissions_accepted_total",
			Help: "Exam submissions accepted, labelled official or practice.",
		}, []string{"classification"})

		leaderboardBuilds = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examify_leaderboard_builds_total",
			Help: "Leaderboard computations performed, by scope and view.",
		}, []string{"scope", "view"})

		prometheus.MustRegister(requestsTotal, latencySeconds, errorsTotal, submissionsAccepted, leaderboardBuilds)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return errorsTotal
}

// SubmissionsAccepted exposes the counter for accepted submissions.
func SubmissionsAccepted() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsAccepted
}

// LeaderboardBuilds exposes the counter for leaderboard computations.
func LeaderboardBuilds() *prometheus.CounterVec {
	RegisterMetrics()
	return leaderboardBuilds
}
