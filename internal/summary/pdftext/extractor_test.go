package pdftext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()

	config := Config{
		MinIdle:        1,
		MaxIdle:        1,
		MaxTotal:       1,
		AcquireTimeout: 10 * time.Second,
	}

	extractor, err := NewExtractor(config, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = extractor.Close()
	})

	return extractor
}

func TestExtractRejectsInvalidDocument(t *testing.T) {
	extractor := newTestExtractor(t)

	_, err := extractor.Extract([]byte("this is not a pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOpenDocument)
}

func TestExtractRejectsEmptyDocument(t *testing.T) {
	extractor := newTestExtractor(t)

	_, err := extractor.Extract(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOpenDocument)
}

func TestJoinPageTexts(t *testing.T) {
	assert.Equal(t, "", joinPageTexts(nil))
	assert.Equal(t, "first", joinPageTexts([]string{"first"}))
	assert.Equal(t, "first second", joinPageTexts([]string{"first", "second"}))
	assert.Equal(t, "a b c", joinPageTexts([]string{"a", "b", "c"}))
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 1, config.MinIdle)
	assert.Equal(t, 2, config.MaxIdle)
	assert.Equal(t, 4, config.MaxTotal)
	assert.Equal(t, 30*time.Second, config.AcquireTimeout)
}
