package coordinator

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/einvoice-sync/lhdn-sync-server/internal/sync/freshness"
)

const (
	// DefaultInterval is the base interval between background checks
	DefaultInterval = 5 * time.Minute
	// DefaultJitter is the maximum random offset applied to the interval
	DefaultJitter = 30 * time.Second
)

// DocumentSyncer serves documents, syncing live when storage is stale
//
//go:generate mockgen -destination=mocks/mock_document_syncer.go -package=mocks github.com/einvoice-sync/lhdn-sync-server/internal/sync/coordinator DocumentSyncer
type DocumentSyncer interface {
	GetDocuments(ctx context.Context, forceRefresh bool) (*freshness.Result, error)
}

// Coordinator manages background synchronization scheduling
type Coordinator interface {
	// Start begins background sync coordination.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops the coordinator
	Stop() error
}

type defaultCoordinator struct {
	syncer   DocumentSyncer
	interval time.Duration
	jitter   time.Duration

	// Lifecycle management
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithJitter sets the maximum random offset applied to each interval
func WithJitter(jitter time.Duration) Option {
	return func(c *defaultCoordinator) {
		if jitter >= 0 {
			c.jitter = jitter
		}
	}
}

// New creates a new coordinator. A non-positive interval uses DefaultInterval.
func New(syncer DocumentSyncer, interval time.Duration, opts ...Option) Coordinator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	c := &defaultCoordinator{
		syncer:   syncer,
		interval: interval,
		jitter:   DefaultJitter,
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	// Jitter never exceeds half the interval so ticks stay positive
	c.jitter = min(c.jitter, c.interval/2)

	return c
}

// calculatePollingInterval returns base with a random offset in [-jitter, +jitter)
// so that instances started together drift apart.
func calculatePollingInterval(base, jitter time.Duration) time.Duration {
	if jitter <= 0 {
		return base
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for polling jitter
	jitterOffset := time.Duration(rand.Int64N(int64(2*jitter))) - jitter
	return base + jitterOffset
}

// Start begins background sync coordination
func (c *defaultCoordinator) Start(ctx context.Context) error {
	coordCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelFunc = cancel
	c.mu.Unlock()
	defer func() {
		close(c.done)
		slog.Info("Background sync coordinator shutting down")
	}()

	pollingInterval := calculatePollingInterval(c.interval, c.jitter)
	slog.Info("Starting background sync coordinator",
		"base_interval", c.interval,
		"actual_interval", pollingInterval)

	ticker := time.NewTicker(pollingInterval)
	defer ticker.Stop()

	// Perform initial sync check
	c.runOnce(coordCtx)

	for {
		select {
		case <-ticker.C:
			c.runOnce(coordCtx)

			// Recalculate interval with new jitter for next iteration
			ticker.Reset(calculatePollingInterval(c.interval, c.jitter))
		case <-coordCtx.Done():
			slog.Info("Sync coordinator stopping")
			return nil
		}
	}
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()

	if cancel != nil {
		slog.Info("Stopping sync coordinator")
		cancel()
		// Wait for coordinator to finish
		<-c.done
	}
	return nil
}

// runOnce asks for documents without forcing, which syncs only when storage is stale
func (c *defaultCoordinator) runOnce(ctx context.Context) {
	res, err := c.syncer.GetDocuments(ctx, false)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("Background sync failed", "error", err)
		return
	}

	switch res.Source {
	case freshness.SourceFallback:
		slog.Warn("Background sync failed, storage kept as is",
			"records", len(res.Records),
			"error", res.Err)
	case freshness.SourceLive:
		attrs := []any{"records", len(res.Records)}
		if res.Reconcile != nil {
			attrs = append(attrs,
				"succeeded", res.Reconcile.SuccessCount,
				"failed", res.Reconcile.ErrorCount)
		}
		slog.Info("Background sync completed", attrs...)
	default:
		slog.Debug("Storage is fresh, background sync skipped", "records", len(res.Records))
	}
}
