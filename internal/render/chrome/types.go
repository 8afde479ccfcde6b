package chrome

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ChromeStatus represents the current state of a Chrome instance
type ChromeStatus int

const (
	// ChromeStatusIdle indicates the instance is ready for printing
	ChromeStatusIdle ChromeStatus = iota
	// ChromeStatusPrinting indicates the instance is currently processing a request
	ChromeStatusPrinting
	// ChromeStatusRestarting indicates the instance is being restarted
	ChromeStatusRestarting
	// ChromeStatusDead indicates the instance has crashed or been terminated
	ChromeStatusDead
)

// String returns the string representation of ChromeStatus
func (s ChromeStatus) String() string {
	switch s {
	case ChromeStatusIdle:
		return "idle"
	case ChromeStatusPrinting:
		return "printing"
	case ChromeStatusRestarting:
		return "restarting"
	case ChromeStatusDead:
		return "dead"
	default:
		return "unknown"
	}
}

// ChromeInstance represents a single Chrome browser instance
type ChromeInstance struct {
	ID              int                // Immutable
	ctx             context.Context    // Immutable after creation
	cancel          context.CancelFunc // Immutable after creation
	allocatorCtx    context.Context    // Immutable after creation
	allocatorCancel context.CancelFunc // Immutable after creation
	createdAt       time.Time          // Immutable after creation
	logger          *zap.Logger        // Immutable
	browserVersion  string             // Immutable after creation (e.g., "Chrome/120.0.6099.109")

	// Mutable fields - protected by atomic operations
	status           int32 // ChromeStatus as int32
	requestsDone     int32
	lastUsedNano     int64  // Unix nanoseconds
	currentRequestID string // Set by AcquireChrome, cleared by ReleaseChrome
}

// InstanceInfo is a point-in-time view of one pool instance, reported by the
// health endpoint
type InstanceInfo struct {
	ID             int       `json:"id"`
	Status         string    `json:"status"`
	RequestsDone   int32     `json:"requests_done"`
	LastUsed       time.Time `json:"last_used"`
	BrowserVersion string    `json:"browser_version"`
}

// PoolStats represents statistics about the Chrome pool
type PoolStats struct {
	TotalInstances     int
	AvailableInstances int
	ActiveInstances    int
	TotalPrints        int64
	TotalRestarts      int64
	Uptime             time.Duration
}
