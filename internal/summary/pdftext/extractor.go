package pdftext

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
	"go.uber.org/zap"
)

var (
	ErrLibraryUnavailable = errors.New("pdfium library unavailable")
	ErrOpenDocument       = errors.New("failed to open PDF document")
	ErrPageText           = errors.New("failed to read page text")
)

// Config controls the pdfium worker pool
type Config struct {
	MinIdle        int
	MaxIdle        int
	MaxTotal       int
	AcquireTimeout time.Duration
}

// DefaultConfig returns pool settings suitable for a single service process
func DefaultConfig() Config {
	return Config{
		MinIdle:        1,
		MaxIdle:        2,
		MaxTotal:       4,
		AcquireTimeout: 30 * time.Second,
	}
}

// Extractor pulls plain text out of PDF documents using a pool of
// WebAssembly pdfium workers. The engine is embedded, so no shared
// library needs to be present on the host.
type Extractor struct {
	pool   pdfium.Pool
	config Config
	logger *zap.Logger
}

// NewExtractor initializes the pdfium worker pool
func NewExtractor(config Config, logger *zap.Logger) (*Extractor, error) {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  config.MinIdle,
		MaxIdle:  config.MaxIdle,
		MaxTotal: config.MaxTotal,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLibraryUnavailable, err)
	}

	logger.Info("PDF text extractor initialized",
		zap.Int("min_idle", config.MinIdle),
		zap.Int("max_idle", config.MaxIdle),
		zap.Int("max_total", config.MaxTotal))

	return &Extractor{
		pool:   pool,
		config: config,
		logger: logger,
	}, nil
}

// Extract returns the text of every page in the document, joined with a
// single space. Any unreadable page fails the whole extraction - a summary
// built from silently truncated text would be misleading.
func (e *Extractor) Extract(doc []byte) (string, error) {
	instance, err := e.pool.GetInstance(e.config.AcquireTimeout)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLibraryUnavailable, err)
	}
	defer instance.Close()

	pdfDoc, err := instance.OpenDocument(&requests.OpenDocument{
		File: &doc,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOpenDocument, err)
	}
	defer instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: pdfDoc.Document,
	})

	pageCount, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: pdfDoc.Document,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOpenDocument, err)
	}

	var pages []string
	for i := 0; i < pageCount.PageCount; i++ {
		pageText, err := instance.GetPageText(&requests.GetPageText{
			Page: requests.Page{
				ByIndex: &requests.PageByIndex{
					Document: pdfDoc.Document,
					Index:    i,
				},
			},
		})
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrPageText, i, err)
		}
		pages = append(pages, pageText.Text)
	}

	text := joinPageTexts(pages)

	e.logger.Debug("Extracted text from PDF",
		zap.Int("pages", pageCount.PageCount),
		zap.Int("text_length", len(text)))

	return text, nil
}

// joinPageTexts joins page texts in document order with a single space
func joinPageTexts(pages []string) string {
	return strings.Join(pages, " ")
}

// Close shuts down the pdfium worker pool
func (e *Extractor) Close() error {
	return e.pool.Close()
}
