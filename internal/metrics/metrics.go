// Package metrics provides Prometheus metrics for the API and LLM pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. Each instance carries its own
// registry so tests can construct it repeatedly.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	LLMCallsTotal   *prometheus.CounterVec
	LLMCallDuration *prometheus.HistogramVec
	LLMTokensTotal  *prometheus.CounterVec

	AlertRunsTotal     prometheus.Counter
	AlertFailuresTotal prometheus.Counter
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medpulse_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medpulse_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.LLMCallsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medpulse_llm_calls_total",
			Help: "Total number of LLM completions by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	m.LLMCallDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medpulse_llm_call_duration_seconds",
			Help:    "Duration of LLM completions in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"kind"},
	)

	m.LLMTokensTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medpulse_llm_tokens_total",
			Help: "Total LLM tokens consumed by kind and direction",
		},
		[]string{"kind", "direction"},
	)

	m.AlertRunsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "medpulse_alert_runs_total",
			Help: "Total number of batch alert runs",
		},
	)

	m.AlertFailuresTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "medpulse_alert_failures_total",
			Help: "Total number of per-user failures during batch alert runs",
		},
	)

	return m
}

// Handler serves this instance's registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one handled HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordLLMCall records one LLM completion with its token usage.
func (m *Metrics) RecordLLMCall(kind, status string, duration time.Duration, promptTokens, completionTokens int) {
	m.LLMCallsTotal.WithLabelValues(kind, status).Inc()
	m.LLMCallDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if promptTokens > 0 {
		m.LLMTokensTotal.WithLabelValues(kind, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.LLMTokensTotal.WithLabelValues(kind, "completion").Add(float64(completionTokens))
	}
}
