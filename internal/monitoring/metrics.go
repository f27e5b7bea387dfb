// Package monitoring exposes prometheus metrics for lookups, backend calls
// and batch jobs.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "domain"

// Metrics holds every collector the service records into. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	lookups        *prometheus.CounterVec
	lookupDuration prometheus.Histogram
	searchRequests *prometheus.CounterVec
	breakerState   *prometheus.GaugeVec
	aiRequests     *prometheus.CounterVec
	jobsSubmitted  prometheus.Counter
	rowsProcessed  *prometheus.CounterVec
}

// NewMetrics creates the collectors on a fresh registry together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Completed enrichments by verification status.",
		}, []string{"status"}),
		lookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Wall-clock duration of one enrichment.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}),
		searchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Metasearch requests by instance and outcome.",
		}, []string{"instance", "outcome"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "search_breaker_state",
			Help:      "Circuit breaker state per search instance (0 closed, 1 open, 2 half-open).",
		}, []string{"instance"}),
		aiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_requests_total",
			Help:      "Reasoning backend calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		jobsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_submitted_total",
			Help:      "Batch jobs accepted.",
		}),
		rowsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_rows_total",
			Help:      "Batch rows processed by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.lookups,
		m.lookupDuration,
		m.searchRequests,
		m.breakerState,
		m.aiRequests,
		m.jobsSubmitted,
		m.rowsProcessed,
	)
	return m
}

// Registry returns the underlying registry so callers can add collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveLookup records one finished enrichment.
func (m *Metrics) ObserveLookup(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(status).Inc()
	m.lookupDuration.Observe(d.Seconds())
}

// ObserveSearch records one metasearch request. Outcome is "ok", "error" or
// "skipped".
func (m *Metrics) ObserveSearch(instance, outcome string) {
	if m == nil {
		return
	}
	m.searchRequests.WithLabelValues(instance, outcome).Inc()
}

// SetBreakerState records the breaker state of a search instance.
func (m *Metrics) SetBreakerState(instance string, state int) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(instance).Set(float64(state))
}

// ObserveAI records one reasoning backend call.
func (m *Metrics) ObserveAI(provider, outcome string) {
	if m == nil {
		return
	}
	m.aiRequests.WithLabelValues(provider, outcome).Inc()
}

// JobSubmitted records an accepted batch job.
func (m *Metrics) JobSubmitted() {
	if m == nil {
		return
	}
	m.jobsSubmitted.Inc()
}

// ObserveRow records one processed batch row.
func (m *Metrics) ObserveRow(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.rowsProcessed.WithLabelValues(outcome).Inc()
}
