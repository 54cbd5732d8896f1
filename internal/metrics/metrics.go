// Package metrics exposes Prometheus collectors for the HTTP layer and the
// calculation flow.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Calculation outcomes.
const (
	OutcomeRecorded    = "recorded"
	OutcomeNotRecorded = "not_recorded"
	OutcomeInvalid     = "invalid"
)

// Metrics holds the collectors of one service instance.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter           *prometheus.CounterVec
	RequestDurationHistogram *prometheus.HistogramVec
	CalculationCounter       *prometheus.CounterVec
	HistoryFailureCounter    *prometheus.CounterVec
}

// New creates and registers the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDurationHistogram: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		CalculationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricing_calculations_total",
				Help: "Sale price calculations by outcome",
			},
			[]string{"outcome"},
		),
		HistoryFailureCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "calculation_history_failures_total",
				Help: "Calculation history storage failures by operation",
			},
			[]string{"op"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestCounter,
		m.RequestDurationHistogram,
		m.CalculationCounter,
		m.HistoryFailureCounter,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Calculation counts one calculation outcome.
func (m *Metrics) Calculation(outcome string) {
	m.CalculationCounter.WithLabelValues(outcome).Inc()
}

// HistoryFailure counts one storage failure.
func (m *Metrics) HistoryFailure(op string) {
	m.HistoryFailureCounter.WithLabelValues(op).Inc()
}

// Middleware records request count and latency labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.RequestCounter.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		m.RequestDurationHistogram.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
