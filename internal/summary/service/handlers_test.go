package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/jaykchen/scrape-web-summary/internal/common/requestid"
	"github.com/jaykchen/scrape-web-summary/internal/summary/pipeline"
	"github.com/jaykchen/scrape-web-summary/pkg/types"
)

type fakeRunner struct {
	gotURL       string
	gotRequestID string
	hadDeadline  bool
	result       pipeline.Result
}

func (f *fakeRunner) Run(ctx context.Context, requestID, rawURL string) pipeline.Result {
	f.gotRequestID = requestID
	f.gotURL = rawURL
	_, f.hadDeadline = ctx.Deadline()
	return f.result
}

func newRequestCtx(method, path, body string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI(path)
	ctx.Request.Header.SetMethod(method)
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	return ctx
}

func newTestHandler(runner *fakeRunner) fasthttp.RequestHandler {
	serverConfig := &ServerConfig{RequestTimeout: 30 * time.Second}
	return CreateHTTPHandler(runner, nil, nil, serverConfig, zap.NewNop())
}

func TestHandleSummarizeSuccess(t *testing.T) {
	runner := &fakeRunner{result: pipeline.Result{
		Outcome: types.OutcomeSummary,
		Summary: "the article says things",
	}}
	handler := newTestHandler(runner)

	ctx := newRequestCtx("POST", "/api", `{"url":"https://example.com/news"}`)
	handler(ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "the article says things", string(ctx.Response.Body()))
	assert.Equal(t, "https://example.com/news", runner.gotURL)
	assert.NotEmpty(t, runner.gotRequestID)
	assert.True(t, runner.hadDeadline, "pipeline context should carry the request timeout")
}

func TestHandleSummarizeFailureBodies(t *testing.T) {
	tests := []struct {
		name     string
		outcome  types.Outcome
		wantBody string
	}{
		{"invalid url", types.OutcomeInvalidURL, "parse target url failure"},
		{"no text", types.OutcomeNoText, "failed to get text from webpage"},
		{"no summary", types.OutcomeNoSummary, "failed to create summary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{result: pipeline.Result{Outcome: tt.outcome}}
			handler := newTestHandler(runner)

			ctx := newRequestCtx("POST", "/api", `{"url":"https://example.com/"}`)
			handler(ctx)

			// Failures still answer 200 with a fixed plain-text body
			assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
			assert.Equal(t, tt.wantBody, string(ctx.Response.Body()))
		})
	}
}

func TestHandleSummarizeMalformedBody(t *testing.T) {
	runner := &fakeRunner{result: pipeline.Result{Outcome: types.OutcomeInvalidURL}}
	handler := newTestHandler(runner)

	ctx := newRequestCtx("POST", "/api", `{not json`)
	handler(ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "parse target url failure", string(ctx.Response.Body()))
	assert.Empty(t, runner.gotURL, "malformed body runs the pipeline with an empty URL")
}

func TestHandleSummarizeUpstreamRequestID(t *testing.T) {
	runner := &fakeRunner{result: pipeline.Result{Outcome: types.OutcomeSummary, Summary: "ok"}}
	handler := newTestHandler(runner)

	ctx := newRequestCtx("POST", "/api", `{"url":"https://example.com/"}`)
	ctx.Request.Header.Set("X-Request-ID", "upstream-42")
	handler(ctx)

	require.NotEmpty(t, runner.gotRequestID)
	assert.True(t, strings.HasSuffix(runner.gotRequestID, "-upstream-42"),
		"request ID %q should keep the upstream ID", runner.gotRequestID)
	assert.Len(t, runner.gotRequestID, requestid.PrefixLength+1+len("upstream-42"))
}

func TestHandleSummarizeGeneratesRequestID(t *testing.T) {
	runner := &fakeRunner{result: pipeline.Result{Outcome: types.OutcomeSummary, Summary: "ok"}}
	handler := newTestHandler(runner)

	ctx := newRequestCtx("POST", "/api", `{"url":"https://example.com/"}`)
	handler(ctx)

	// No upstream header: a fresh UUID is used
	assert.Len(t, runner.gotRequestID, 36)
}

func TestHandleRoot(t *testing.T) {
	handler := newTestHandler(&fakeRunner{})

	ctx := newRequestCtx("GET", "/", "")
	handler(ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "not able to parse url", string(ctx.Response.Body()))
}

func TestHandleHealth(t *testing.T) {
	handler := newTestHandler(&fakeRunner{})

	ctx := newRequestCtx("GET", "/health", "")
	handler(ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	// Uptime travels as a duration string and decodes back through the
	// shared Duration codec
	assert.Contains(t, string(ctx.Response.Body()), `"uptime":"0s"`)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Zero(t, resp.Uptime.ToDuration())
	assert.Empty(t, resp.Instances)
}

func TestRoutingNotFound(t *testing.T) {
	handler := newTestHandler(&fakeRunner{})

	tests := []struct {
		method string
		path   string
	}{
		{"GET", "/api"},
		{"POST", "/"},
		{"POST", "/health"},
		{"GET", "/unknown"},
		{"DELETE", "/api"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			ctx := newRequestCtx(tt.method, tt.path, "")
			handler(ctx)

			assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
			assert.Equal(t, "Not Found", string(ctx.Response.Body()))
		})
	}
}

func TestOutcomeBody(t *testing.T) {
	assert.Equal(t, "hello", outcomeBody(pipeline.Result{Outcome: types.OutcomeSummary, Summary: "hello"}))
	assert.Equal(t, BodyInvalidURL, outcomeBody(pipeline.Result{Outcome: types.OutcomeInvalidURL}))
	assert.Equal(t, BodyNoText, outcomeBody(pipeline.Result{Outcome: types.OutcomeNoText}))
	assert.Equal(t, BodyNoSummary, outcomeBody(pipeline.Result{Outcome: types.OutcomeNoSummary}))
}
