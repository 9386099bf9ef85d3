// Package observability exposes Prometheus metrics for the recomputation
// controller, the record source and the HTTP API.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	memoHits          prometheus.Counter
	memoMisses        prometheus.Counter
	viewComputes      *prometheus.CounterVec
	viewDuration      *prometheus.HistogramVec
	sourceDuration    *prometheus.HistogramVec
	sourceErrors      *prometheus.CounterVec
	recordCount       prometheus.Gauge
	loadFailures      prometheus.Counter
}

// NewMetrics registers every collector on reg. A nil reg gets a fresh
// registry so tests and multiple instances never collide.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		memoHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carbonlens_view_memo_hits_total",
			Help: "Views served from the controller memo.",
		}),
		memoMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carbonlens_view_memo_misses_total",
			Help: "View requests that required a recomputation.",
		}),
		viewComputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carbonlens_view_recomputations_total",
			Help: "Derived view recomputations by view.",
		}, []string{"view"}),
		viewDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "carbonlens_view_compute_seconds",
			Help:    "Histogram of derived view computation time by view.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}, []string{"view"}),
		sourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "carbonlens_source_request_seconds",
			Help:    "Histogram of upstream source request durations by endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		sourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carbonlens_source_errors_total",
			Help: "Upstream source request failures by endpoint.",
		}, []string{"endpoint"}),
		recordCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "carbonlens_records",
			Help: "Normalized records in the current set.",
		}),
		loadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carbonlens_load_failures_total",
			Help: "Record loads that left the controller unavailable.",
		}),
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.memoHits,
		m.memoMisses,
		m.viewComputes,
		m.viewDuration,
		m.sourceDuration,
		m.sourceErrors,
		m.recordCount,
		m.loadFailures,
	)

	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		duration := time.Since(start).Seconds()
		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(duration)
		}
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.memoHits.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.memoMisses.Inc()
}

func (m *Metrics) ViewComputed(view string, d time.Duration) {
	if m == nil {
		return
	}
	m.viewComputes.WithLabelValues(view).Inc()
	m.viewDuration.WithLabelValues(view).Observe(d.Seconds())
}

func (m *Metrics) RecordsLoaded(count int, ok bool) {
	if m == nil {
		return
	}
	m.recordCount.Set(float64(count))
	if !ok {
		m.loadFailures.Inc()
	}
}

func (m *Metrics) SourceRequest(endpoint string, d time.Duration, success bool) {
	if m == nil {
		return
	}
	m.sourceDuration.WithLabelValues(endpoint).Observe(d.Seconds())
	if !success {
		m.sourceErrors.WithLabelValues(endpoint).Inc()
	}
}
