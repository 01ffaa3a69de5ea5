// Package observability provides Prometheus metrics and structured logging setup.
package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Collection metrics
	ItemsFetched  *prometheus.CounterVec
	FetchErrors   *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec

	// Analysis metrics
	ArticlesScored     prometheus.Counter
	CorrelationResults *prometheus.CounterVec
	RunsTotal          *prometheus.CounterVec
	RunDuration        *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
	WSClients         prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "newsimpact"
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ItemsFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "items_fetched_total",
			Help:      "Total number of articles or bars fetched by kind and source",
		}, []string{"kind", "source"}),
		FetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed fetches by kind, source and reason",
		}, []string{"kind", "source", "reason"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "fetch_duration_seconds",
			Help:      "Latency of upstream fetches",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"kind", "source"}),

		ArticlesScored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "articles_scored_total",
			Help:      "Total number of articles scored for sentiment",
		}),
		CorrelationResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "correlation_results_total",
			Help:      "Per-ticker correlation results by status",
		}, []string{"status"}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of analysis runs by mode and outcome",
		}, []string{"mode", "outcome"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Duration of analysis runs",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"mode"}),

		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last successful analysis run",
		}),
		WSClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "websocket_clients",
			Help:      "Number of connected websocket clients",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the underlying registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// ObserveFetch records the outcome of one upstream fetch.
func (m *Metrics) ObserveFetch(kind, source string, items int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(kind, source).Observe(elapsed.Seconds())
	if err != nil {
		m.FetchErrors.WithLabelValues(kind, source, errorReason(err)).Inc()
		return
	}
	m.ItemsFetched.WithLabelValues(kind, source).Add(float64(items))
}

// RecordScored adds n to the scored article counter.
func (m *Metrics) RecordScored(n int) {
	if m == nil {
		return
	}
	m.ArticlesScored.Add(float64(n))
}

// RecordResult counts one correlation result by status.
func (m *Metrics) RecordResult(status string) {
	if m == nil {
		return
	}
	m.CorrelationResults.WithLabelValues(status).Inc()
}

// RecordRun records a finished pipeline run.
func (m *Metrics) RecordRun(mode string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.RunDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	if err != nil {
		m.RunsTotal.WithLabelValues(mode, "error").Inc()
		return
	}
	m.RunsTotal.WithLabelValues(mode, "ok").Inc()
	m.LastSuccessfulRun.SetToCurrentTime()
}

// SetWSClients updates the websocket client gauge.
func (m *Metrics) SetWSClients(n int) {
	if m == nil {
		return
	}
	m.WSClients.Set(float64(n))
}

// reasonError lets errors name their metric label.
type reasonError interface {
	MetricReason() string
}

func errorReason(err error) string {
	var re reasonError
	if errors.As(err, &re) {
		return re.MetricReason()
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
