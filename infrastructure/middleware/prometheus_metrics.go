// Package middleware provides cross-cutting infrastructure for the
// evaluation pipeline, currently the Prometheus metrics collector.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/toolvet/toolvet/internal/ports"
)

// PrometheusMetrics implements ports.MetricsCollector on the global
// Prometheus registry. It tracks judge-call latency and token spend,
// check outcomes, and reliability-run durations for the recurring
// evaluation jobs.
type PrometheusMetrics struct {
	llmTokensUsed    *prometheus.CounterVec
	llmRequests      *prometheus.CounterVec
	llmLatency       *prometheus.HistogramVec
	checkResults     *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a collector and registers its metrics in
// the default registry. Call it once per process: promauto panics on
// duplicate registration.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		llmTokensUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Total tokens consumed by LLM judge calls.",
			},
			[]string{"model", "status", "token_type"},
		),
		llmRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total LLM judge requests by outcome.",
			},
			[]string{"model", "status"},
		),
		llmLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_latency_seconds",
				Help:    "Latency of LLM judge calls.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model", "status"},
		),
		checkResults: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evaluation_check_results_total",
				Help: "Check results by check ID and status.",
			},
			[]string{"check_id", "status"},
		),
		operationLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "evaluation_operation_duration_seconds",
				Help:    "Duration of evaluation operations such as tool runs.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		systemGauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "evaluation_state",
				Help: "Point-in-time evaluation state values.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency records an operation duration.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.operationLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCounter increments the counter matching the metric name.
// Unrecognized metrics are dropped rather than guessed at.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case "llm_tokens_total":
		pm.llmTokensUsed.WithLabelValues(
			labels["model"], labels["status"], labels["token_type"],
		).Add(value)
	case "llm_requests_total":
		pm.llmRequests.WithLabelValues(labels["model"], labels["status"]).Add(value)
	case "evaluation_check_results_total":
		pm.checkResults.WithLabelValues(labels["check_id"], labels["status"]).Add(value)
	}
}

// RecordGauge sets a point-in-time state value.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	pm.systemGauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram records a distribution observation.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	switch metric {
	case "llm_latency_seconds":
		pm.llmLatency.WithLabelValues(labels["model"], labels["status"]).Observe(value)
	default:
		pm.operationLatency.WithLabelValues(metric).Observe(value)
	}
}

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
