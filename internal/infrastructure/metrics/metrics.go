// Package metrics exposes portal counters in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portal"

// Metrics owns a private registry so tests and multiple servers never collide
type Metrics struct {
	registry *prometheus.Registry

	extractions         *prometheus.CounterVec
	autosaveTransitions *prometheus.CounterVec
	autosaveWrites      *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// New registers every collector on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_requests_total",
			Help:      "Extraction calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		autosaveTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autosave_transitions_total",
			Help:      "Draft status transitions.",
		}, []string{"from", "to"}),
		autosaveWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autosave_writes_total",
			Help:      "Draft persistence writes by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		prometheus.NewGoCollector(),
		m.extractions,
		m.autosaveTransitions,
		m.autosaveWrites,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// RecordExtraction counts one extraction call
func (m *Metrics) RecordExtraction(operation, outcome string) {
	m.extractions.WithLabelValues(operation, outcome).Inc()
}

// RecordAutosaveTransition counts one draft status change
func (m *Metrics) RecordAutosaveTransition(from, to string) {
	m.autosaveTransitions.WithLabelValues(from, to).Inc()
}

// RecordAutosaveWrite counts one draft write
func (m *Metrics) RecordAutosaveWrite(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.autosaveWrites.WithLabelValues(result).Inc()
}

// Handler serves the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency per matched route
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
