package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics holds the Prometheus collectors for the service. Each
// instance owns its registry, so tests can build as many as they like.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	NodesWritten  *prometheus.CounterVec
	NodesRejected *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
}

// NewPrometheusMetrics creates and registers the collectors under namespace
func NewPrometheusMetrics(namespace string) *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	m := &PrometheusMetrics{
		registry: registry,
		NodesWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nodes_written_total",
				Help:      "Memory nodes stored, by classification",
			},
			[]string{"classification"},
		),
		NodesRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nodes_rejected_total",
				Help:      "Memory node violations, by rule",
			},
			[]string{"reason"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Query duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"query", "status"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		m.NodesWritten,
		m.NodesRejected,
		m.QueryDuration,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// RecordRejection implements ports.Metrics
func (m *PrometheusMetrics) RecordRejection(_ context.Context, reason string) {
	m.NodesRejected.WithLabelValues(reason).Inc()
}

// RecordNodeWritten implements ports.Metrics
func (m *PrometheusMetrics) RecordNodeWritten(_ context.Context, classification string) {
	m.NodesWritten.WithLabelValues(classification).Inc()
}

// ObserveQuery implements the query bus metrics hook
func (m *PrometheusMetrics) ObserveQuery(queryType string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.QueryDuration.WithLabelValues(queryType, status).Observe(duration.Seconds())
}

// ObserveHTTP records one served request
func (m *PrometheusMetrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, http.StatusText(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}
