// Package metrics exposes ingestion and suggestion counters for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors of one process. Each instance owns its
// registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	ingested    *prometheus.CounterVec
	suggestions *prometheus.CounterVec
	confidence  prometheus.Histogram
	requests    *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "txledger",
			Name:      "ingest_events_total",
			Help:      "Ingest events by outcome status and reason.",
		}, []string{"status", "reason"}),
		suggestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "txledger",
			Name:      "suggestions_total",
			Help:      "Suggestion generation attempts by outcome.",
		}, []string{"outcome"}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "txledger",
			Name:      "suggestion_confidence",
			Help:      "Confidence of stored suggestions.",
			Buckets:   []float64{0.3, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95},
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "txledger",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}
	m.registry.MustRegister(m.ingested, m.suggestions, m.confidence, m.requests,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

// Nil-safe recorders: components built without metrics pass a nil *Metrics.

// ObserveIngest counts one ingest result.
func (m *Metrics) ObserveIngest(status, reason string) {
	if m == nil {
		return
	}
	m.ingested.WithLabelValues(status, reason).Inc()
}

// ObserveSuggestion counts one suggestion attempt. Stored suggestions also
// feed the confidence histogram.
func (m *Metrics) ObserveSuggestion(outcome string, confidence float64) {
	if m == nil {
		return
	}
	m.suggestions.WithLabelValues(outcome).Inc()
	if outcome == OutcomeCreated {
		m.confidence.Observe(confidence)
	}
}

// ObserveRequest counts one HTTP request.
func (m *Metrics) ObserveRequest(route, code string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, code).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Suggestion outcomes.
const (
	OutcomeCreated = "created"
	OutcomeFailed  = "failed"
)
