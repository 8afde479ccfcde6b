package chrome

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// PoolObserver receives pool occupancy updates after every acquire/release.
// Implemented by the metrics collector; nil observers are allowed in tests.
type PoolObserver interface {
	UpdateChromePoolSize(size int)
	UpdateChromeAvailable(available int)
}

// ChromePool manages a pool of Chrome instances with a simple FIFO queue
type ChromePool struct {
	config        *Config
	logger        *zap.Logger
	instances     []*ChromeInstance
	queue         chan int           // FIFO queue of available instance IDs
	mu            sync.RWMutex       // Protects instances slice
	activeTabs    atomic.Int32       // Number of currently active prints
	totalPrints   atomic.Int64       // Total prints processed
	totalRestarts atomic.Int64       // Total instance restarts
	createdAt     time.Time          // Pool creation time
	ctx           context.Context    // Pool context
	cancel        context.CancelFunc // Cancel function
	observer      PoolObserver
	poolSize      int
}

// NewChromePool creates a new Chrome pool with the specified configuration
func NewChromePool(config *Config, observer PoolObserver, logger *zap.Logger) (*ChromePool, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	poolSize := config.CalculatePoolSize()
	logger.Info("Initializing Chrome pool",
		zap.Int("pool_size", poolSize))

	ctx, cancel := context.WithCancel(context.Background())

	pool := &ChromePool{
		config:    config,
		logger:    logger,
		instances: make([]*ChromeInstance, poolSize),
		queue:     make(chan int, poolSize),
		createdAt: time.Now().UTC(),
		ctx:       ctx,
		cancel:    cancel,
		observer:  observer,
		poolSize:  poolSize,
	}

	// Create all Chrome instances
	for i := 0; i < poolSize; i++ {
		instance, err := NewChromeInstance(i, config, logger)
		if err != nil {
			// Cleanup already created instances
			pool.Shutdown()
			return nil, fmt.Errorf("failed to create Chrome instance %d: %w", i, err)
		}

		pool.instances[i] = instance
		pool.queue <- i // Add to available queue
	}

	pool.notifyObserver()

	logger.Info("Chrome pool initialized successfully",
		zap.Int("instances", poolSize))

	return pool, nil
}

// AcquireChrome acquires a Chrome instance from the pool (blocking)
func (p *ChromePool) AcquireChrome(requestID string) (*ChromeInstance, error) {
	select {
	case <-p.ctx.Done():
		return nil, ErrPoolShutdown
	case instanceID := <-p.queue:
		// Double-check if shutdown happened while we were waiting on queue
		select {
		case <-p.ctx.Done():
			// Return instance to queue and fail
			select {
			case p.queue <- instanceID:
			default:
			}
			return nil, ErrPoolShutdown
		default:
		}

		p.activeTabs.Add(1)

		p.mu.RLock()
		instance := p.instances[instanceID]
		p.mu.RUnlock()

		// Check if instance is alive
		if !instance.IsAlive() {
			p.logger.Warn("Chrome instance is dead, restarting",
				zap.String("request_id", requestID),
				zap.Int("instance_id", instanceID),
				zap.Int32("requests_done", instance.GetRequestsDone()))

			// Attempt restart
			if err := instance.Restart(p.config); err != nil {
				p.logger.Error("Failed to restart dead instance",
					zap.String("request_id", requestID),
					zap.Int("instance_id", instanceID),
					zap.Error(err))
				// Return to queue with select to avoid panic during shutdown
				select {
				case p.queue <- instanceID:
				case <-p.ctx.Done():
					// Shutting down, don't return to queue
				}
				p.activeTabs.Add(-1)
				return nil, fmt.Errorf("%w: instance %d", ErrInstanceDead, instanceID)
			}
			p.totalRestarts.Add(1)
		}

		// Check if instance should be restarted based on policies
		if instance.ShouldRestart(p.config) {
			p.logger.Info("Chrome instance needs restart based on policy",
				zap.String("request_id", requestID),
				zap.Int("instance_id", instanceID),
				zap.Int32("requests_done", instance.GetRequestsDone()),
				zap.Duration("age", instance.Age()))

			if err := instance.Restart(p.config); err != nil {
				p.logger.Error("Failed to restart instance",
					zap.String("request_id", requestID),
					zap.Int("instance_id", instanceID),
					zap.Error(err))
				// Continue with current instance despite restart failure
			} else {
				p.totalRestarts.Add(1)
			}
		}

		instance.SetStatus(ChromeStatusPrinting)
		instance.currentRequestID = requestID

		p.logger.Debug("Chrome instance acquired",
			zap.String("request_id", requestID),
			zap.Int("instance_id", instanceID),
			zap.Int32("active_tabs", p.activeTabs.Load()),
			zap.Int("pool_size", p.poolSize))

		p.notifyObserver()

		return instance, nil
	}
}

// ReleaseChrome returns a Chrome instance back to the pool
func (p *ChromePool) ReleaseChrome(instance *ChromeInstance) {
	requestID := instance.currentRequestID
	instance.SetStatus(ChromeStatusIdle)
	instance.IncrementRequests()
	p.totalPrints.Add(1)

	// Clear request ID BEFORE returning to queue to avoid race condition
	instance.currentRequestID = ""

	p.activeTabs.Add(-1)

	// Return to queue with select to avoid panic if shutting down
	select {
	case p.queue <- instance.ID:
		p.logger.Debug("Chrome instance released",
			zap.String("request_id", requestID),
			zap.Int("instance_id", instance.ID),
			zap.Int32("requests_done", instance.GetRequestsDone()),
			zap.Int32("active_tabs", p.activeTabs.Load()))
	case <-p.ctx.Done():
		// Pool shutting down, discard instance
		p.logger.Debug("Discarding instance during shutdown",
			zap.String("request_id", requestID),
			zap.Int("instance_id", instance.ID))
	default:
		// Queue full - should never happen, indicates bug
		p.logger.Error("Queue full when returning instance - possible leak",
			zap.String("request_id", requestID),
			zap.Int("instance_id", instance.ID),
			zap.Int("queue_len", len(p.queue)))
	}

	p.notifyObserver()
}

// notifyObserver pushes current pool occupancy to the observer if present
func (p *ChromePool) notifyObserver() {
	if p.observer == nil {
		return
	}

	stats := p.GetStats()
	p.observer.UpdateChromePoolSize(stats.TotalInstances)
	p.observer.UpdateChromeAvailable(stats.TotalInstances - stats.ActiveInstances)
}

// GetStats returns current pool statistics
func (p *ChromePool) GetStats() PoolStats {
	p.mu.RLock()
	totalInstances := len(p.instances)
	p.mu.RUnlock()

	return PoolStats{
		TotalInstances:     totalInstances,
		AvailableInstances: len(p.queue),
		ActiveInstances:    int(p.activeTabs.Load()),
		TotalPrints:        p.totalPrints.Load(),
		TotalRestarts:      p.totalRestarts.Load(),
		Uptime:             time.Since(p.createdAt),
	}
}

// Shutdown gracefully shuts down all Chrome instances with default timeout
func (p *ChromePool) Shutdown() error {
	return p.ShutdownWithTimeout(p.config.ShutdownTimeout)
}

// ShutdownWithTimeout gracefully shuts down all Chrome instances with custom timeout
func (p *ChromePool) ShutdownWithTimeout(timeout time.Duration) error {
	p.logger.Info("Initiating Chrome pool shutdown",
		zap.Duration("timeout", timeout),
		zap.Int32("active_prints", p.activeTabs.Load()))

	p.cancel()

	stats := p.GetStats()
	p.logger.Info("Shutdown initiated - waiting for active prints to complete",
		zap.Int("active_prints", stats.ActiveInstances),
		zap.Int("total_instances", stats.TotalInstances))

	gracefulComplete := p.waitForActivePrints(timeout)

	if gracefulComplete {
		p.logger.Info("All active prints completed gracefully")
	} else {
		p.logger.Warn("Shutdown timeout exceeded, forcing termination",
			zap.Int32("stuck_prints", p.activeTabs.Load()))
	}

	p.mu.Lock()
	var errs []error
	for i, instance := range p.instances {
		if instance == nil {
			continue
		}

		if err := instance.Terminate(); err != nil {
			p.logger.Error("Error terminating instance",
				zap.Int("instance_id", i),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	p.mu.Unlock()

	// Note: We don't close the queue to avoid panics on send
	// The queue becomes irrelevant after context cancellation

	finalStats := p.GetStats()
	p.logger.Info("Chrome pool shut down",
		zap.Int64("total_prints", finalStats.TotalPrints),
		zap.Int64("total_restarts", finalStats.TotalRestarts),
		zap.Duration("uptime", finalStats.Uptime))

	if len(errs) > 0 {
		return fmt.Errorf("encountered %d errors during shutdown", len(errs))
	}

	return nil
}

// waitForActivePrints waits for all active prints to complete with timeout
// Returns true if all prints completed, false if timeout was reached
func (p *ChromePool) waitForActivePrints(timeout time.Duration) bool {
	deadline := time.Now().UTC().Add(timeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if p.activeTabs.Load() == 0 {
			return true
		}

		<-ticker.C
		if time.Now().UTC().After(deadline) {
			return false
		}
	}
}

// PoolSize returns the total number of Chrome instances in the pool
func (p *ChromePool) PoolSize() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.instances)
}

// AvailableInstances returns the number of available Chrome instances
func (p *ChromePool) AvailableInstances() int {
	return len(p.queue)
}

// InstancesInfo returns a snapshot of every instance in the pool
func (p *ChromePool) InstancesInfo() []InstanceInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()

	infos := make([]InstanceInfo, 0, len(p.instances))
	for _, instance := range p.instances {
		if instance == nil {
			continue
		}
		infos = append(infos, instance.Info())
	}
	return infos
}
