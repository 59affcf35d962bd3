// Package metrics exposes Prometheus counters and histograms for the HTTP
// service and the mesh renderer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Collector owns a private registry so several collectors (one per test)
// never clash on metric names.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	meshRendersTotal   *prometheus.CounterVec
	meshRenderDuration prometheus.Histogram
	meshInFlight       prometheus.Gauge

	artifactsTotal *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector creates the metrics under namespace.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		logger:   logger.With(zap.String("component", "metrics")),

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		httpResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		meshRendersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mesh_renders_total",
				Help:      "Total number of mesh renders by outcome",
			},
			[]string{"outcome"}, // ok, unavailable, failed
		),
		meshRenderDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "mesh_render_duration_seconds",
				Help:      "Mesh render duration in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
		),
		meshInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "mesh_renders_in_flight",
				Help:      "Mesh renders currently running or waiting",
			},
		),

		artifactsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "artifacts_generated_total",
				Help:      "Total number of generated artifacts by format",
			},
			[]string{"format"},
		),
	}
}

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, responseSize int64) {
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// MeshStarted marks a render as in flight. The returned func records the
// outcome and must be called exactly once.
func (c *Collector) MeshStarted() func(outcome string) {
	start := time.Now()
	c.meshInFlight.Inc()
	return func(outcome string) {
		c.meshInFlight.Dec()
		c.meshRendersTotal.WithLabelValues(outcome).Inc()
		if outcome == "ok" {
			c.meshRenderDuration.Observe(time.Since(start).Seconds())
		}
		c.logger.Debug("mesh render recorded", zap.String("outcome", outcome))
	}
}

// RecordArtifact counts one generated artifact of the given format.
func (c *Collector) RecordArtifact(format string) {
	c.artifactsTotal.WithLabelValues(format).Inc()
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
