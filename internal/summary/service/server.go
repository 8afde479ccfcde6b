package service

import (
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/jaykchen/scrape-web-summary/internal/render/chrome"
	"github.com/jaykchen/scrape-web-summary/internal/summary/metrics"
)

// CreateHTTPHandler creates the main HTTP request handler with routing
func CreateHTTPHandler(runner PipelineRunner, pool *chrome.ChromePool, metricsCollector *metrics.MetricsCollector, serverConfig *ServerConfig, logger *zap.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())
		method := string(ctx.Method())

		switch {
		case method == "POST" && path == "/api":
			HandleSummarize(ctx, runner, metricsCollector, serverConfig, logger)
		case method == "GET" && path == "/":
			HandleRoot(ctx, metricsCollector)
		case method == "GET" && path == "/health":
			HandleHealth(ctx, pool, metricsCollector, logger)
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
			ctx.SetBodyString("Not Found")
			if metricsCollector != nil {
				metricsCollector.RecordHTTPRequest(path, "404")
			}
		}
	}
}
