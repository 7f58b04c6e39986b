// Package prometheus exposes the application metric families on a private
// registry so tests never collide with the global default registry.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rankscope"

var (
	httpDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	providerDurationBuckets = []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60}
	analysisDurationBuckets = []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 120}
	candidateCountBuckets   = []float64{0, 10, 25, 50, 100, 250, 500, 1000}
)

// Metrics holds every metric family the binaries export.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP layer
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPActiveRequests  *prometheus.GaugeVec

	// Provider layer
	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec
	ProviderCostTotal       *prometheus.CounterVec

	// Analysis layer
	AnalysisRunsTotal   *prometheus.CounterVec
	AnalysisRunDuration *prometheus.HistogramVec
	GapCandidates       prometheus.Histogram
	OpportunitiesFound  *prometheus.GaugeVec

	// Infrastructure
	CacheHitsTotal      *prometheus.CounterVec
	CacheMissesTotal    *prometheus.CounterVec
	EventsPublishedTotal *prometheus.CounterVec
	EventsConsumedTotal  *prometheus.CounterVec
}

// NewMetrics registers all metric families on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests served.",
	}, []string{"method", "path", "status"})

	m.HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   httpDurationBuckets,
	}, []string{"method", "path"})

	m.HTTPActiveRequests = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_active_requests",
		Help:      "In-flight HTTP requests.",
	}, []string{"method"})

	m.ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_requests_total",
		Help:      "Upstream data-provider calls.",
	}, []string{"provider", "status"})

	m.ProviderRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_request_duration_seconds",
		Help:      "Upstream data-provider latency.",
		Buckets:   providerDurationBuckets,
	}, []string{"provider"})

	m.ProviderCostTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_cost_dollars_total",
		Help:      "Accumulated provider API spend in dollars.",
	}, []string{"provider"})

	m.AnalysisRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analysis_runs_total",
		Help:      "Gap analysis runs by terminal status.",
	}, []string{"status"})

	m.AnalysisRunDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "analysis_run_duration_seconds",
		Help:      "End-to-end gap analysis duration.",
		Buckets:   analysisDurationBuckets,
	}, []string{"target_domain"})

	m.GapCandidates = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gap_candidates",
		Help:      "Gap candidates surfaced per run.",
		Buckets:   candidateCountBuckets,
	})

	m.OpportunitiesFound = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "opportunities_found",
		Help:      "Opportunities found in the latest run, by category.",
	}, []string{"category"})

	m.CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_hits_total",
		Help:      "Cache hits.",
	}, []string{"cache"})

	m.CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_misses_total",
		Help:      "Cache misses.",
	}, []string{"cache"})

	m.EventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Events published to the message broker.",
	}, []string{"topic"})

	m.EventsConsumedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_consumed_total",
		Help:      "Events consumed from the message broker.",
	}, []string{"topic", "outcome"})

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPActiveRequests,
		m.ProviderRequestsTotal,
		m.ProviderRequestDuration,
		m.ProviderCostTotal,
		m.AnalysisRunsTotal,
		m.AnalysisRunDuration,
		m.GapCandidates,
		m.OpportunitiesFound,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.EventsPublishedTotal,
		m.EventsConsumedTotal,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry exposes the underlying registry for extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun records one finished analysis run.
func (m *Metrics) ObserveRun(targetDomain, status string, candidates int, duration time.Duration) {
	m.AnalysisRunsTotal.WithLabelValues(status).Inc()
	m.AnalysisRunDuration.WithLabelValues(targetDomain).Observe(duration.Seconds())
	m.GapCandidates.Observe(float64(candidates))
}

// SetCategoryCounts publishes the category breakdown of the latest run.
func (m *Metrics) SetCategoryCounts(counts map[string]int) {
	for category, n := range counts {
		m.OpportunitiesFound.WithLabelValues(category).Set(float64(n))
	}
}
