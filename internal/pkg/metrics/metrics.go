package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the process registry and the collectors the BFF reports.
type Metrics struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	cacheResults     *prometheus.CounterVec
	skippedRecords   prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of calls to the reservation API",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		cacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "space_cache_results_total",
			Help: "Space list cache lookups by result",
		}, []string{"result"}),
		skippedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reservations_skipped_total",
			Help: "Reservations excluded from occupancy because their date could not be parsed",
		}),
	}

	registry.MustRegister(
		m.requestDuration,
		m.requestTotal,
		m.upstreamDuration,
		m.cacheResults,
		m.skippedRecords,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return m
}

func (m *Metrics) Handler() http.Handler {
	return m.handler
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveHTTPRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{"method": method, "path": path, "status": strconv.Itoa(status)}
	m.requestDuration.With(labels).Observe(d.Seconds())
	m.requestTotal.With(labels).Inc()
}

// ObserveUpstream records one reservation API call. status is 0 when the call
// failed before a response arrived.
func (m *Metrics) ObserveUpstream(operation string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamDuration.With(prometheus.Labels{"operation": operation, "status": strconv.Itoa(status)}).Observe(d.Seconds())
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.cacheResults.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cacheResults.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) SkippedRecords(n int) {
	if m != nil && n > 0 {
		m.skippedRecords.Add(float64(n))
	}
}
