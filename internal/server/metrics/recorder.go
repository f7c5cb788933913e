// Package metrics exposes Prometheus counters for the index server.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// OutcomeSuccess labels operations that reached DONE.
const OutcomeSuccess = "success"

// Recorder holds the server's collectors. A nil *Recorder records nothing.
type Recorder struct {
	operations      *prometheus.CounterVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewRecorder builds the collectors and registers them with reg when reg is
// not nil. Tests pass nil to reuse a recorder without a registry.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	operations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pkgindex_package_operations_total",
			Help: "Package operations, by operation and outcome. The outcome is 'success' or the stage that failed.",
		}, []string{"operation", "outcome"})

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pkgindex_http_requests_total",
			Help: "HTTP requests served, by route pattern and status code.",
		}, []string{"route", "code"})

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pkgindex_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"})

	if reg != nil {
		reg.MustRegister(operations, requests, requestDuration)
	}

	return &Recorder{
		operations:      operations,
		requests:        requests,
		requestDuration: requestDuration,
	}
}

// ObserveOperation counts one finished package operation.
func (r *Recorder) ObserveOperation(operation, outcome string) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(operation, outcome).Inc()
}

// ObserveRequest counts one HTTP response and its latency.
func (r *Recorder) ObserveRequest(route string, code int, seconds float64) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	r.requestDuration.WithLabelValues(route).Observe(seconds)
}
