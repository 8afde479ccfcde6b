package chrome

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jaykchen/scrape-web-summary/pkg/types"
)

// Print parameters are fixed so rendering stays deterministic: portrait, no
// header/footer, no backgrounds, half scale on 11x17 paper with uniform
// 0.1-inch margins. Only the first two pages are kept.
const (
	printScale      = 0.5
	paperWidthInch  = 11.0
	paperHeightInch = 17.0
	pageMarginInch  = 0.1
	printPageRanges = "1-2"

	// lifecycle event that ends the navigation wait; network-idle heuristics
	// are deliberately not used
	navigationDoneEvent = "load"
)

// statusTracker follows document responses on the main frame so the final
// status survives redirects (http to https, trailing slash). The first
// document response fixes the main frame; later document responses on that
// frame overwrite earlier ones, leaving the end of the redirect chain.
type statusTracker struct {
	mainFrame  string
	statusCode int
	finalURL   string
}

func (st *statusTracker) observe(frameID string, resourceType network.ResourceType, statusCode int, url string) {
	if resourceType != network.ResourceTypeDocument {
		return
	}
	if st.mainFrame == "" {
		st.mainFrame = frameID
	}
	if frameID != st.mainFrame {
		return
	}
	st.statusCode = statusCode
	st.finalURL = url
}

// PrintPDF navigates a tab to the request URL, waits for the document load
// signal, and prints the first two pages to a PDF snapshot.
// Context cancellation is supported - the tab is torn down when ctx expires.
func (ci *ChromeInstance) PrintPDF(ctx context.Context, req *types.PrintRequest) (*types.PrintResult, error) {
	start := time.Now()

	// Create new tab context from browser context
	tabCtx, tabCancel := ci.GetContext()
	defer tabCancel()

	// Cancel tab when the request context times out or is cancelled
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	res := &types.PrintResult{
		RequestID: req.RequestID,
		ChromeID:  fmt.Sprintf("chrome-%d", ci.ID),
		Timestamp: start,
	}

	// Protects tracker access (event listener vs. main goroutine)
	var statusMu sync.Mutex
	tracker := &statusTracker{}

	err := chromedp.Run(tabCtx, ci.buildPrintTasks(req, res, tracker, &statusMu))

	res.RenderTime = time.Since(start)

	statusMu.Lock()
	res.StatusCode = tracker.statusCode
	res.FinalURL = tracker.finalURL
	statusMu.Unlock()

	// Hard timeout takes priority over whatever error the cancelled tab produced
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(ctx.Err(), context.Canceled) {
		return res, fmt.Errorf("hard timeout exceeded: %w", ctx.Err())
	}

	if err != nil {
		return res, err
	}

	if res.StatusCode >= 400 {
		return res, fmt.Errorf("%w: HTTP %d", ErrHTTPStatus, res.StatusCode)
	}

	if len(res.PDF) == 0 {
		return res, ErrEmptyDocument
	}

	res.PDFSize = len(res.PDF)

	ci.logger.Debug("Printed page to PDF",
		zap.String("request_id", req.RequestID),
		zap.Int("instance_id", ci.ID),
		zap.String("url", req.URL),
		zap.String("final_url", res.FinalURL),
		zap.Int("pdf_bytes", res.PDFSize),
		zap.Int("status_code", res.StatusCode),
		zap.Duration("render_time", res.RenderTime))

	return res, nil
}

// buildPrintTasks creates the chromedp task sequence for printing
func (ci *ChromeInstance) buildPrintTasks(req *types.PrintRequest, res *types.PrintResult, tracker *statusTracker, statusMu *sync.Mutex) chromedp.Tasks {
	return chromedp.Tasks{
		// Set up event listeners FIRST - before any CDP commands
		chromedp.ActionFunc(func(ctx context.Context) error {
			chromedp.ListenTarget(ctx, func(event interface{}) {
				ev, ok := event.(*network.EventResponseReceived)
				if !ok {
					return
				}
				statusMu.Lock()
				tracker.observe(string(ev.FrameID), ev.Type, int(ev.Response.Status), ev.Response.URL)
				statusMu.Unlock()
			})
			return nil
		}),

		network.Enable(),
		enableLifeCycle(),

		emulation.SetDeviceMetricsOverride(
			int64(ViewportWidth),
			int64(ViewportHeight),
			1.0,   // default device scale
			false, // tablet portrait, not mobile
		),

		ci.navigateAndWait(req),

		ci.printToPDF(req, res),

		page.Close(),
	}
}

// navigateAndWait navigates to the URL and waits for the document load
// lifecycle event. A wait timeout is fatal here - a partially loaded page
// would print a misleading snapshot.
func (ci *ChromeInstance) navigateAndWait(req *types.PrintRequest) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		frameID, loaderID, _, _, err := page.Navigate(req.URL).Do(ctx)
		if err != nil {
			return errors.Join(ErrNavigateFailed, err)
		}

		err = waitForEvent(ctx, navigationDoneEvent, string(frameID), string(loaderID), req.Timeout)
		if err != nil {
			ci.logger.Debug("Navigation wait failed",
				zap.String("request_id", req.RequestID),
				zap.Int("instance_id", ci.ID),
				zap.String("url", req.URL),
				zap.Duration("timeout", req.Timeout),
				zap.Error(err))
			return err
		}

		return nil
	}
}

// waitForEvent waits for a specific page lifecycle event matching frameID and loaderID
func waitForEvent(ctx context.Context, eventName, frameID, loaderID string, timeout time.Duration) error {
	ch := make(chan struct{})

	listenerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	chromedp.ListenTarget(listenerCtx, func(ev interface{}) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok {
			// Match both frameID AND loaderID to track the correct navigation
			if string(e.FrameID) == frameID && string(e.LoaderID) == loaderID && string(e.Name) == eventName {
				cancel()
				close(ch)
			}
		}
	})

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeout):
		return ErrWaitTimeout
	}
}

// pageRangeRejected reports whether Chrome refused to print because the page
// range falls outside the document (single-page documents vs. "1-2")
func pageRangeRejected(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "range")
}

// printToPDF runs Page.printToPDF with the fixed print parameters.
// A rejected page range gets one retry without the range restriction.
func (ci *ChromeInstance) printToPDF(req *types.PrintRequest, res *types.PrintResult) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		buf, _, err := printParams().WithPageRanges(printPageRanges).Do(ctx)
		if pageRangeRejected(err) {
			ci.logger.Debug("Page range rejected, printing full document",
				zap.String("request_id", req.RequestID),
				zap.Int("instance_id", ci.ID),
				zap.Error(err))
			buf, _, err = printParams().Do(ctx)
		}
		if err != nil {
			return errors.Join(ErrPrintFailed, err)
		}

		res.PDF = buf
		return nil
	}
}

// printParams builds the fixed Page.printToPDF parameter set
func printParams() *page.PrintToPDFParams {
	return page.PrintToPDF().
		WithLandscape(false).
		WithDisplayHeaderFooter(false).
		WithPrintBackground(false).
		WithScale(printScale).
		WithPaperWidth(paperWidthInch).
		WithPaperHeight(paperHeightInch).
		WithMarginTop(pageMarginInch).
		WithMarginBottom(pageMarginInch).
		WithMarginLeft(pageMarginInch).
		WithMarginRight(pageMarginInch).
		WithPreferCSSPageSize(false)
}

// enableLifeCycle enables page lifecycle events
func enableLifeCycle() chromedp.ActionFunc {
	return func(ctx context.Context) error {
		if err := page.Enable().Do(ctx); err != nil {
			return err
		}
		return page.SetLifecycleEventsEnabled(true).Do(ctx)
	}
}
