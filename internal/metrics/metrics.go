package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// HTTPRequestsTotal counts served requests by route pattern and status code.
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "interrogame",
		Subsystem: "api",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests served, labeled by route and status code.",
	}, []string{"route", "code"})

	// HTTPRequestDurationSeconds is the handler latency by route.
	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "interrogame",
		Subsystem: "api",
		Name:      "http_request_duration_seconds",
		Help:      "Time spent serving HTTP requests, labeled by route.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	}, []string{"route"})

	// BackendCallsTotal counts relay backend calls by attempt ("first"/"fallback")
	// and result ("ok"/"error"). Model names come from clients and are not labels.
	BackendCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "interrogame",
		Subsystem: "relay",
		Name:      "backend_calls_total",
		Help:      "Total number of inference backend chat calls, labeled by attempt and result.",
	}, []string{"attempt", "result"})

	// BackendCallDurationSeconds is the time one attempt takes, including the
	// wait for a backend slot.
	BackendCallDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "interrogame",
		Subsystem: "relay",
		Name:      "backend_call_duration_seconds",
		Help:      "Duration of inference backend chat calls, labeled by attempt.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 60, 120, 300},
	}, []string{"attempt"})

	// BackendInFlight is the number of backend calls holding a concurrency slot.
	BackendInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "interrogame",
		Subsystem: "relay",
		Name:      "backend_in_flight",
		Help:      "Current number of inference backend calls in flight.",
	})

	// FallbacksTotal counts retries with the default model, labeled by result.
	FallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "interrogame",
		Subsystem: "relay",
		Name:      "fallbacks_total",
		Help:      "Total number of default-model fallback attempts, labeled by result.",
	}, []string{"result"})

	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "interrogame",
		Subsystem: "api",
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	})
)

// Register registers relay metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			BackendCallsTotal,
			BackendCallDurationSeconds,
			BackendInFlight,
			FallbacksTotal,
			RateLimitedTotal,
		)
	})
}
