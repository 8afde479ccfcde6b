package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jaykchen/scrape-web-summary/internal/render/chrome"
	"github.com/jaykchen/scrape-web-summary/pkg/types"
)

// ChromeRenderer renders pages through a shared Chrome pool
type ChromeRenderer struct {
	pool              *chrome.ChromePool
	navigationTimeout time.Duration
	logger            *zap.Logger
}

// NewChromeRenderer wraps a Chrome pool as a pipeline Renderer
func NewChromeRenderer(pool *chrome.ChromePool, navigationTimeout time.Duration, logger *zap.Logger) *ChromeRenderer {
	return &ChromeRenderer{
		pool:              pool,
		navigationTimeout: navigationTimeout,
		logger:            logger,
	}
}

// RenderPDF acquires a Chrome instance, prints the page and releases the
// instance back to the pool
func (r *ChromeRenderer) RenderPDF(ctx context.Context, requestID, url string) ([]byte, error) {
	instance, err := r.pool.AcquireChrome(requestID)
	if err != nil {
		return nil, err
	}
	defer r.pool.ReleaseChrome(instance)

	req := &types.PrintRequest{
		RequestID: requestID,
		URL:       url,
		Timeout:   r.navigationTimeout,
	}

	result, err := instance.PrintPDF(ctx, req)
	if err != nil {
		return nil, err
	}

	return result.PDF, nil
}
