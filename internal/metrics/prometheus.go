// Package metrics provides Prometheus metrics for the fiberscope service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns all service metrics. A nil *Manager is valid and records
// nothing.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	rendersTotal   *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	rejectedInputs *prometheus.CounterVec
	fibersLoaded   prometheus.Gauge
	fibersExcluded prometheus.Gauge

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Option configures a Manager
type Option func(*Manager)

// WithNamespace sets the metric namespace
func WithNamespace(ns string) Option {
	return func(m *Manager) { m.namespace = ns }
}

// WithHistogramBuckets sets the latency buckets
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) { m.histogramBuckets = buckets }
}

// WithRegistry registers metrics in reg instead of a fresh registry
func WithRegistry(reg *prometheus.Registry) Option {
	return func(m *Manager) { m.registry = reg }
}

// NewManager creates a manager with its own registry
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "fiberscope",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.rendersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "render",
		Name:      "total",
		Help:      "Number of spectrogram renders by output kind and outcome",
	}, []string{"kind", "outcome"})
	m.renderDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "render",
		Name:      "duration_seconds",
		Help:      "Render latency by output kind",
		Buckets:   m.histogramBuckets,
	}, []string{"kind"})
	m.rejectedInputs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "rejected_inputs_total",
		Help:      "User inputs rejected by validation",
	}, []string{"reason"})
	m.fibersLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "fibers_loaded",
		Help:      "Fibers available for rendering",
	})
	m.fibersExcluded = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "fibers_excluded",
		Help:      "Fibers excluded because of missing or inconsistent data",
	})
	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})
	m.httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route",
		Buckets:   m.histogramBuckets,
	}, []string{"method", "route"})

	m.registry.MustRegister(
		m.rendersTotal,
		m.renderDuration,
		m.rejectedInputs,
		m.fibersLoaded,
		m.fibersExcluded,
		m.httpRequests,
		m.httpRequestDuration,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the metrics in the Prometheus text format
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRender counts one render and its latency
func (m *Manager) RecordRender(kind string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.rendersTotal.WithLabelValues(kind, outcome).Inc()
	m.renderDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordRejected counts a rejected user input
func (m *Manager) RecordRejected(reason string) {
	if m == nil {
		return
	}
	m.rejectedInputs.WithLabelValues(reason).Inc()
}

// SetFibers records catalog sizes
func (m *Manager) SetFibers(loaded, excluded int) {
	if m == nil {
		return
	}
	m.fibersLoaded.Set(float64(loaded))
	m.fibersExcluded.Set(float64(excluded))
}

// RecordHTTPRequest counts one HTTP request
func (m *Manager) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
