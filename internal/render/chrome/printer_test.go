package chrome

import (
	"context"
	"errors"
	"testing"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
)

func TestStatusTrackerFollowsRedirects(t *testing.T) {
	type response struct {
		frameID      string
		resourceType network.ResourceType
		status       int
		url          string
	}

	tests := []struct {
		name       string
		responses  []response
		wantStatus int
		wantURL    string
	}{
		{
			name: "single document response",
			responses: []response{
				{"frame-1", network.ResourceTypeDocument, 200, "https://example.com/"},
			},
			wantStatus: 200,
			wantURL:    "https://example.com/",
		},
		{
			name: "http to https redirect keeps final response",
			responses: []response{
				{"frame-1", network.ResourceTypeDocument, 301, "http://example.com/"},
				{"frame-1", network.ResourceTypeDocument, 200, "https://example.com/"},
			},
			wantStatus: 200,
			wantURL:    "https://example.com/",
		},
		{
			name: "error page behind redirect is not masked",
			responses: []response{
				{"frame-1", network.ResourceTypeDocument, 302, "http://example.com/old"},
				{"frame-1", network.ResourceTypeDocument, 404, "https://example.com/new"},
			},
			wantStatus: 404,
			wantURL:    "https://example.com/new",
		},
		{
			name: "iframe document responses are ignored",
			responses: []response{
				{"frame-1", network.ResourceTypeDocument, 200, "https://example.com/"},
				{"frame-2", network.ResourceTypeDocument, 500, "https://ads.example.com/frame"},
			},
			wantStatus: 200,
			wantURL:    "https://example.com/",
		},
		{
			name: "subresource responses are ignored",
			responses: []response{
				{"frame-1", network.ResourceTypeDocument, 200, "https://example.com/"},
				{"frame-1", network.ResourceTypeStylesheet, 404, "https://example.com/missing.css"},
				{"frame-1", network.ResourceTypeImage, 403, "https://example.com/hero.png"},
			},
			wantStatus: 200,
			wantURL:    "https://example.com/",
		},
		{
			name:       "no document response leaves zero status",
			responses:  nil,
			wantStatus: 0,
			wantURL:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := &statusTracker{}
			for _, r := range tt.responses {
				tracker.observe(r.frameID, r.resourceType, r.status, r.url)
			}
			assert.Equal(t, tt.wantStatus, tracker.statusCode)
			assert.Equal(t, tt.wantURL, tracker.finalURL)
		})
	}
}

func TestPageRangeRejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "range exceeds page count", err: errors.New("Page range exceeds page count"), want: true},
		{name: "range syntax error", err: errors.New("Page range syntax error"), want: true},
		{name: "uppercase mixed", err: errors.New("Invalid Page RANGE given"), want: true},
		{name: "print failure unrelated to range", err: errors.New("Printing failed"), want: false},
		{name: "navigation error", err: errors.New("net::ERR_ABORTED"), want: false},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pageRangeRejected(tt.err))
		})
	}
}

func TestPrintParams(t *testing.T) {
	params := printParams()

	assert.False(t, params.Landscape)
	assert.False(t, params.DisplayHeaderFooter)
	assert.False(t, params.PrintBackground)
	assert.False(t, params.PreferCSSPageSize)
	assert.Equal(t, printScale, params.Scale)
	assert.Equal(t, float64(paperWidthInch), params.PaperWidth)
	assert.Equal(t, float64(paperHeightInch), params.PaperHeight)
	assert.Equal(t, float64(pageMarginInch), params.MarginTop)
	assert.Equal(t, float64(pageMarginInch), params.MarginBottom)
	assert.Equal(t, float64(pageMarginInch), params.MarginLeft)
	assert.Equal(t, float64(pageMarginInch), params.MarginRight)
	assert.Empty(t, params.PageRanges)

	withRange := printParams().WithPageRanges(printPageRanges)
	assert.Equal(t, "1-2", withRange.PageRanges)
}

func TestChromeStatusString(t *testing.T) {
	assert.Equal(t, "idle", ChromeStatusIdle.String())
	assert.Equal(t, "printing", ChromeStatusPrinting.String())
	assert.Equal(t, "restarting", ChromeStatusRestarting.String())
	assert.Equal(t, "dead", ChromeStatusDead.String())
	assert.Equal(t, "unknown", ChromeStatus(99).String())
}
