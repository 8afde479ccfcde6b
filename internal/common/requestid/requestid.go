package requestid

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// PrefixLength is the length of the random per-request prefix
const PrefixLength = 5

// New creates a unique request ID for a summary request
func New() string {
	return uuid.New().String()
}

// WithPrefix prepends 5 random hex characters to an upstream-supplied ID so
// repeated submissions of the same ID stay distinguishable in logs.
func WithPrefix(upstreamID string) string {
	if upstreamID == "" {
		return New()
	}
	return randomPrefix() + "-" + upstreamID
}

// randomPrefix creates a 5-character random hex string using crypto/rand
func randomPrefix() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to UUID-based prefix if crypto/rand fails
		return uuid.New().String()[:PrefixLength]
	}
	return hex.EncodeToString(bytes)[:PrefixLength]
}
