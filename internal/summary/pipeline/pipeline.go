package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jaykchen/scrape-web-summary/internal/common/urlutil"
	"github.com/jaykchen/scrape-web-summary/pkg/types"
)

// Renderer turns a target URL into a PDF snapshot of the page
type Renderer interface {
	RenderPDF(ctx context.Context, requestID, url string) ([]byte, error)
}

// Extractor pulls plain text out of a PDF document
type Extractor interface {
	Extract(doc []byte) (string, error)
}

// Summarizer produces a summary of the given article text
type Summarizer interface {
	Summarize(ctx context.Context, requestID, text string) (string, error)
}

// MetricsRecorder receives pipeline measurements. Satisfied by the metrics
// collector; may be nil when metrics are disabled.
type MetricsRecorder interface {
	RecordOutcome(outcome types.Outcome)
	RecordStageDuration(stage string, seconds float64)
	RecordPipelineDuration(seconds float64)
	RecordValidationError()
	RecordRenderError()
	RecordExtractError()
	RecordSummarizeError()
	RecordTimeoutError()
}

// Result is the terminal state of a summary request. Summary is only set
// when Outcome is OutcomeSummary.
type Result struct {
	Outcome types.Outcome
	Summary string
}

// Pipeline runs the validate -> render -> extract -> summarize sequence.
// Each stage failure maps to a distinct outcome; later stages never run
// after a failure.
type Pipeline struct {
	renderer    Renderer
	extractor   Extractor
	summarizer  Summarizer
	collector   MetricsRecorder
	logger      *zap.Logger
	tokenBudget int
}

// NewPipeline creates a summary pipeline. collector may be nil in tests.
func NewPipeline(renderer Renderer, extractor Extractor, summarizer Summarizer,
	tokenBudget int, collector MetricsRecorder, logger *zap.Logger,
) *Pipeline {
	if tokenBudget <= 0 {
		tokenBudget = DefaultTokenBudget
	}

	return &Pipeline{
		renderer:    renderer,
		extractor:   extractor,
		summarizer:  summarizer,
		collector:   collector,
		logger:      logger,
		tokenBudget: tokenBudget,
	}
}

// Run executes the pipeline for a single request
func (p *Pipeline) Run(ctx context.Context, requestID, rawURL string) Result {
	start := time.Now()
	defer func() {
		if p.collector != nil {
			p.collector.RecordPipelineDuration(time.Since(start).Seconds())
		}
	}()

	// Stage 1: validate
	target, err := urlutil.ValidateTargetURL(rawURL)
	if err != nil {
		p.logger.Warn("URL validation failed",
			zap.String("request_id", requestID),
			zap.String("stage", types.StageValidate),
			zap.String("url", rawURL),
			zap.Error(err))
		if p.collector != nil {
			p.collector.RecordValidationError()
		}
		return p.finish(types.OutcomeInvalidURL, "")
	}

	host := urlutil.ExtractHost(target.String())

	// Stage 2: render
	renderStart := time.Now()
	pdf, err := p.renderer.RenderPDF(ctx, requestID, target.String())
	p.recordStage(types.StageRender, renderStart)
	if err != nil {
		p.logger.Warn("Page render failed",
			zap.String("request_id", requestID),
			zap.String("stage", types.StageRender),
			zap.String("url", target.String()),
			zap.String("host", host),
			zap.Error(err))
		p.recordStageError(ctx, func() { p.collector.RecordRenderError() })
		return p.finish(types.OutcomeNoText, "")
	}

	// Stage 3: extract and bound
	extractStart := time.Now()
	text, err := p.extractor.Extract(pdf)
	p.recordStage(types.StageExtract, extractStart)
	if err != nil {
		p.logger.Warn("Text extraction failed",
			zap.String("request_id", requestID),
			zap.String("stage", types.StageExtract),
			zap.String("url", target.String()),
			zap.String("host", host),
			zap.Int("pdf_bytes", len(pdf)),
			zap.Error(err))
		p.recordStageError(ctx, func() { p.collector.RecordExtractError() })
		return p.finish(types.OutcomeNoText, "")
	}

	bounded := BoundTokens(text, p.tokenBudget)

	// Stage 4: summarize
	summarizeStart := time.Now()
	summary, err := p.summarizer.Summarize(ctx, requestID, bounded)
	p.recordStage(types.StageSummarize, summarizeStart)
	if err != nil {
		p.logger.Warn("Summarization failed",
			zap.String("request_id", requestID),
			zap.String("stage", types.StageSummarize),
			zap.String("url", target.String()),
			zap.String("host", host),
			zap.Int("text_length", len(bounded)),
			zap.Error(err))
		p.recordStageError(ctx, func() { p.collector.RecordSummarizeError() })
		return p.finish(types.OutcomeNoSummary, "")
	}

	p.logger.Info("Summary produced",
		zap.String("request_id", requestID),
		zap.String("url", target.String()),
		zap.String("host", host),
		zap.Int("summary_length", len(summary)),
		zap.Duration("duration", time.Since(start)))

	return p.finish(types.OutcomeSummary, summary)
}

func (p *Pipeline) recordStage(stage string, start time.Time) {
	if p.collector != nil {
		p.collector.RecordStageDuration(stage, time.Since(start).Seconds())
	}
}

// recordStageError records the stage-specific error counter, plus a timeout
// error when the failure happened under an expired request deadline
func (p *Pipeline) recordStageError(ctx context.Context, record func()) {
	if p.collector == nil {
		return
	}
	record()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		p.collector.RecordTimeoutError()
	}
}

func (p *Pipeline) finish(outcome types.Outcome, summary string) Result {
	if p.collector != nil {
		p.collector.RecordOutcome(outcome)
	}
	return Result{Outcome: outcome, Summary: summary}
}
