package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

// PrometheusMetrics provides metrics collection for the summary service
type PrometheusMetrics struct {
	// Chrome pool metrics
	chromePoolSize  prometheus.Gauge
	chromeAvailable prometheus.Gauge

	// Summary pipeline metrics
	summariesTotal   *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	pipelineDuration prometheus.Histogram

	// HTTP metrics
	httpRequests *prometheus.CounterVec

	// Error metrics
	errorsTotal *prometheus.CounterVec

	logger      *zap.Logger
	httpHandler func(*fasthttp.RequestCtx)
}

// NewPrometheusMetrics creates a new Prometheus-based metrics collector
func NewPrometheusMetrics(namespace string, logger *zap.Logger) *PrometheusMetrics {
	return NewPrometheusMetricsWithRegistry(namespace, prometheus.DefaultRegisterer, logger)
}

// NewPrometheusMetricsWithRegistry creates a new Prometheus-based metrics collector with custom registry
func NewPrometheusMetricsWithRegistry(namespace string, registerer prometheus.Registerer, logger *zap.Logger) *PrometheusMetrics {
	pm := &PrometheusMetrics{
		logger: logger,
	}

	// Chrome pool metrics
	pm.chromePoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ss",
		Name:      "chrome_pool_size",
		Help:      "Total number of Chrome instances in the pool",
	})

	pm.chromeAvailable = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ss",
		Name:      "chrome_available",
		Help:      "Number of available Chrome instances",
	})

	// Summary pipeline metrics
	pm.summariesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ss",
		Name:      "summaries_total",
		Help:      "Total number of summary requests",
	}, []string{"outcome"}) // outcome: summary, invalid_url, no_text, no_summary

	pm.stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "ss",
		Name:      "stage_duration_seconds",
		Help:      "Time spent in each pipeline stage",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
	}, []string{"stage"}) // stage: render, extract, summarize

	pm.pipelineDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "ss",
		Name:      "pipeline_duration_seconds",
		Help:      "End-to-end time spent producing a summary",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s to ~100s
	})

	// HTTP metrics
	pm.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ss",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by endpoint and status",
	}, []string{"endpoint", "status"})

	// Error metrics
	pm.errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ss",
		Name:      "errors_total",
		Help:      "Total errors by type",
	}, []string{"type"}) // type: validation, render, extract, summarize, timeout, internal

	// Register all metrics
	registerer.MustRegister(
		pm.chromePoolSize,
		pm.chromeAvailable,
		pm.summariesTotal,
		pm.stageDuration,
		pm.pipelineDuration,
		pm.httpRequests,
		pm.errorsTotal,
	)

	// Create HTTP handler
	gatherer, ok := registerer.(prometheus.Gatherer)
	if !ok {
		gatherer = prometheus.DefaultGatherer
	}
	pm.httpHandler = fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	logger.Info("Summary Service Prometheus metrics initialized")
	return pm
}

// UpdateChromePoolSize updates the Chrome pool size metric
func (pm *PrometheusMetrics) UpdateChromePoolSize(size float64) {
	pm.chromePoolSize.Set(size)
}

// UpdateChromeAvailable updates the available Chrome instances metric
func (pm *PrometheusMetrics) UpdateChromeAvailable(available float64) {
	pm.chromeAvailable.Set(available)
}

// RecordSummary records a summary request outcome
func (pm *PrometheusMetrics) RecordSummary(outcome string) {
	pm.summariesTotal.WithLabelValues(outcome).Inc()
}

// RecordStageDuration records time spent in a pipeline stage
func (pm *PrometheusMetrics) RecordStageDuration(stage string, seconds float64) {
	pm.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordPipelineDuration records end-to-end pipeline duration
func (pm *PrometheusMetrics) RecordPipelineDuration(seconds float64) {
	pm.pipelineDuration.Observe(seconds)
}

// RecordHTTPRequest records an HTTP request
func (pm *PrometheusMetrics) RecordHTTPRequest(endpoint, status string) {
	pm.httpRequests.WithLabelValues(endpoint, status).Inc()
}

// RecordError records an error by type
func (pm *PrometheusMetrics) RecordError(errorType string) {
	pm.errorsTotal.WithLabelValues(errorType).Inc()
}

// ServeHTTP serves Prometheus metrics via HTTP
func (pm *PrometheusMetrics) ServeHTTP(ctx *fasthttp.RequestCtx) {
	pm.httpHandler(ctx)
}
