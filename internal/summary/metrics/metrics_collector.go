package metrics

import (
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/jaykchen/scrape-web-summary/pkg/types"
)

// MetricsCollector centralizes all metrics recording for the summary service
type MetricsCollector struct {
	prometheus *PrometheusMetrics
	logger     *zap.Logger
}

// NewMetricsCollector creates a new MetricsCollector instance
func NewMetricsCollector(namespace string, logger *zap.Logger) *MetricsCollector {
	return &MetricsCollector{
		prometheus: NewPrometheusMetrics(namespace, logger),
		logger:     logger,
	}
}

// UpdateChromePoolSize updates the Chrome pool size metric
func (mc *MetricsCollector) UpdateChromePoolSize(size int) {
	mc.prometheus.UpdateChromePoolSize(float64(size))
}

// UpdateChromeAvailable updates the available Chrome instances metric
func (mc *MetricsCollector) UpdateChromeAvailable(available int) {
	mc.prometheus.UpdateChromeAvailable(float64(available))
}

// RecordOutcome records the final outcome of a summary request
func (mc *MetricsCollector) RecordOutcome(outcome types.Outcome) {
	mc.prometheus.RecordSummary(outcome.String())
}

// RecordStageDuration records time spent in a pipeline stage in seconds
func (mc *MetricsCollector) RecordStageDuration(stage string, seconds float64) {
	mc.prometheus.RecordStageDuration(stage, seconds)
}

// RecordPipelineDuration records end-to-end pipeline duration in seconds
func (mc *MetricsCollector) RecordPipelineDuration(seconds float64) {
	mc.prometheus.RecordPipelineDuration(seconds)
}

// RecordHTTPRequest records an HTTP request
func (mc *MetricsCollector) RecordHTTPRequest(endpoint, status string) {
	mc.prometheus.RecordHTTPRequest(endpoint, status)
}

// RecordValidationError records a URL validation error
func (mc *MetricsCollector) RecordValidationError() {
	mc.prometheus.RecordError("validation")
}

// RecordRenderError records a page render error
func (mc *MetricsCollector) RecordRenderError() {
	mc.prometheus.RecordError("render")
}

// RecordExtractError records a PDF text extraction error
func (mc *MetricsCollector) RecordExtractError() {
	mc.prometheus.RecordError("extract")
}

// RecordSummarizeError records a chat completion error
func (mc *MetricsCollector) RecordSummarizeError() {
	mc.prometheus.RecordError("summarize")
}

// RecordTimeoutError records a request timeout
func (mc *MetricsCollector) RecordTimeoutError() {
	mc.prometheus.RecordError("timeout")
}

// RecordInternalError records an internal error
func (mc *MetricsCollector) RecordInternalError() {
	mc.prometheus.RecordError("internal")
}

// ServeHTTP serves Prometheus metrics via HTTP
func (mc *MetricsCollector) ServeHTTP(ctx *fasthttp.RequestCtx) {
	mc.prometheus.ServeHTTP(ctx)
}
