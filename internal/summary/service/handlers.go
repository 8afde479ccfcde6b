package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/jaykchen/scrape-web-summary/internal/common/requestid"
	"github.com/jaykchen/scrape-web-summary/internal/render/chrome"
	"github.com/jaykchen/scrape-web-summary/internal/summary/metrics"
	"github.com/jaykchen/scrape-web-summary/internal/summary/pipeline"
	"github.com/jaykchen/scrape-web-summary/pkg/types"
)

// Failure bodies are part of the service contract - callers match on the
// exact strings, so every failure still answers 200 with plain text.
const (
	BodyInvalidURL = "parse target url failure"
	BodyNoText     = "failed to get text from webpage"
	BodyNoSummary  = "failed to create summary"
	BodyRootHint   = "not able to parse url"
)

// PipelineRunner runs the summary pipeline for one request
type PipelineRunner interface {
	Run(ctx context.Context, requestID, rawURL string) pipeline.Result
}

// ServerConfig holds per-request handler settings
type ServerConfig struct {
	RequestTimeout time.Duration // Hard limit for one summary request
}

// SummarizeRequest is the POST /api request body
type SummarizeRequest struct {
	URL string `json:"url"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status             string                `json:"status"`
	PoolSize           int                   `json:"pool_size"`
	AvailableInstances int                   `json:"available_instances"`
	ActiveInstances    int                   `json:"active_instances"`
	Uptime             types.Duration        `json:"uptime"`
	Instances          []chrome.InstanceInfo `json:"instances,omitempty"`
}

// outcomeBody maps a pipeline result to the plain-text response body
func outcomeBody(result pipeline.Result) string {
	switch result.Outcome {
	case types.OutcomeSummary:
		return result.Summary
	case types.OutcomeInvalidURL:
		return BodyInvalidURL
	case types.OutcomeNoText:
		return BodyNoText
	case types.OutcomeNoSummary:
		return BodyNoSummary
	default:
		return BodyNoSummary
	}
}

// HandleSummarize processes POST /api requests
func HandleSummarize(ctx *fasthttp.RequestCtx, runner PipelineRunner, metricsCollector *metrics.MetricsCollector, serverConfig *ServerConfig, logger *zap.Logger) {
	startTime := time.Now().UTC()

	// Upstream-supplied IDs are kept but prefixed, so resubmissions of the
	// same ID stay distinguishable in logs
	requestID := requestid.WithPrefix(string(ctx.Request.Header.Peek("X-Request-ID")))

	// A malformed body yields an empty URL, which fails validation in the
	// pipeline and produces the invalid-url body
	var req SummarizeRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		logger.Warn("Invalid request body",
			zap.String("request_id", requestID),
			zap.Error(err))
	}

	logger.Info("Starting summary request",
		zap.String("request_id", requestID),
		zap.String("url", req.URL))

	runCtx := context.Background()
	var cancel context.CancelFunc
	if serverConfig != nil && serverConfig.RequestTimeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, serverConfig.RequestTimeout)
		defer cancel()
	}

	result := runner.Run(runCtx, requestID, req.URL)

	duration := time.Since(startTime)

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("text/plain; charset=utf-8")
	ctx.SetBodyString(outcomeBody(result))
	if metricsCollector != nil {
		metricsCollector.RecordHTTPRequest("/api", "200")
	}

	if result.Outcome == types.OutcomeSummary {
		logger.Info("Summary request completed",
			zap.String("request_id", requestID),
			zap.String("url", req.URL),
			zap.String("outcome", result.Outcome.String()),
			zap.Int("summary_length", len(result.Summary)),
			zap.Duration("duration", duration))
	} else {
		logger.Warn("Summary request failed",
			zap.String("request_id", requestID),
			zap.String("url", req.URL),
			zap.String("outcome", result.Outcome.String()),
			zap.Duration("duration", duration))
	}
}

// HandleRoot answers GET / with a usage hint
func HandleRoot(ctx *fasthttp.RequestCtx, metricsCollector *metrics.MetricsCollector) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("text/plain; charset=utf-8")
	ctx.SetBodyString(BodyRootHint)
	if metricsCollector != nil {
		metricsCollector.RecordHTTPRequest("/", "200")
	}
}

// HandleHealth returns the current health status and pool statistics
func HandleHealth(ctx *fasthttp.RequestCtx, pool *chrome.ChromePool, metricsCollector *metrics.MetricsCollector, logger *zap.Logger) {
	resp := HealthResponse{
		Status: "ok",
	}

	if pool != nil {
		stats := pool.GetStats()
		resp.PoolSize = stats.TotalInstances
		resp.AvailableInstances = stats.AvailableInstances
		resp.ActiveInstances = stats.ActiveInstances
		resp.Uptime = types.Duration(stats.Uptime)
		resp.Instances = pool.InstancesInfo()
	}

	body, err := json.Marshal(resp)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(`{"status":"error"}`)
		ctx.SetContentType("application/json")
		if metricsCollector != nil {
			metricsCollector.RecordHTTPRequest("/health", "500")
			metricsCollector.RecordInternalError()
		}
		logger.Error("Failed to marshal health response", zap.Error(err))
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(body)
	ctx.SetContentType("application/json")
	if metricsCollector != nil {
		metricsCollector.RecordHTTPRequest("/health", "200")
	}
}
