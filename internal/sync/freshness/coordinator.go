// Package freshness decides whether a document request is served from storage
// or triggers a live synchronization against the LHDN API.
package freshness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/einvoice-sync/lhdn-sync-server/internal/documents"
	"github.com/einvoice-sync/lhdn-sync-server/internal/lock"
	"github.com/einvoice-sync/lhdn-sync-server/internal/otel"
	"github.com/einvoice-sync/lhdn-sync-server/internal/store"
	docsync "github.com/einvoice-sync/lhdn-sync-server/internal/sync"
	"github.com/einvoice-sync/lhdn-sync-server/internal/sync/writer"
	"github.com/einvoice-sync/lhdn-sync-server/internal/telemetry"
)

// Coordinator defaults
const (
	DefaultThreshold   = 15 * time.Minute
	DefaultSyncTimeout = 10 * time.Minute
	DefaultListLimit   = 1000
	DefaultTenant      = "default"
)

// Source tells where the records of a Result came from
type Source string

// Result sources
const (
	SourceCache    Source = "cache"
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// Result is the answer to a document request
type Result struct {
	Records []*documents.Record
	Source  Source
	// Err is set on fallback results and carries the live sync failure
	Err error
	// Reconcile is set on live results
	Reconcile *writer.Result
	// SyncedAt is when the served data was last synchronized, if known
	SyncedAt *time.Time
}

// Fetcher retrieves the full remote document set
type Fetcher interface {
	FetchAll(ctx context.Context) ([]*documents.Record, error)
}

// Reconciler persists a fetched document set
type Reconciler interface {
	Reconcile(ctx context.Context, records []*documents.Record, fetchedAt time.Time) *writer.Result
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithTenant sets the tenant whose documents are coordinated
func WithTenant(tenant string) Option {
	return func(c *Coordinator) {
		if tenant != "" {
			c.tenant = tenant
		}
	}
}

// WithThreshold sets how long a completed sync keeps storage fresh
func WithThreshold(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.threshold = d
		}
	}
}

// WithSyncTimeout bounds a single live sync
func WithSyncTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.syncTimeout = d
		}
	}
}

// WithListLimit caps the number of records served from storage
func WithListLimit(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.listLimit = n
		}
	}
}

// WithLocker enables a cross-instance lease around live syncs
func WithLocker(l lock.Locker) Option {
	return func(c *Coordinator) {
		c.locker = l
	}
}

// WithLockTTL sets how long a lease survives a crashed holder.
// The lease never expires before the sync timeout.
func WithLockTTL(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.lockTTL = d
		}
	}
}

// WithClock replaces the time source, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m *telemetry.SyncMetrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithTracer sets the OpenTelemetry tracer
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Coordinator) {
		c.tracer = tracer
	}
}

// Coordinator serves document requests from storage while it is fresh and
// otherwise runs at most one live sync per tenant at a time.
type Coordinator struct {
	store      store.Store
	fetcher    Fetcher
	reconciler Reconciler
	locker     lock.Locker
	lockTTL    time.Duration

	tenant      string
	threshold   time.Duration
	syncTimeout time.Duration
	listLimit   int

	flights singleflight.Group
	now     func() time.Time
	metrics *telemetry.SyncMetrics
	tracer  trace.Tracer
}

// New creates a Coordinator
func New(st store.Store, fetcher Fetcher, reconciler Reconciler, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:       st,
		fetcher:     fetcher,
		reconciler:  reconciler,
		tenant:      DefaultTenant,
		threshold:   DefaultThreshold,
		syncTimeout: DefaultSyncTimeout,
		listLimit:   DefaultListLimit,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tenant returns the tenant this coordinator serves
func (c *Coordinator) Tenant() string {
	return c.tenant
}

// GetDocuments returns the tenant's documents. Unless forceRefresh is set,
// storage is served while the last completed sync is younger than the
// threshold. Otherwise a live sync runs; concurrent callers share it.
//
// A caller whose context ends stops waiting, but the sync it joined keeps
// running until the sync timeout. When the live sync fails, stored records are
// returned with Source fallback and Err set. The error is returned as is only
// when there is nothing stored to fall back to.
func (c *Coordinator) GetDocuments(ctx context.Context, forceRefresh bool) (*Result, error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "freshness.Coordinator.GetDocuments",
		trace.WithAttributes(
			otel.AttrTenant.String(c.tenant),
			otel.AttrForce.Bool(forceRefresh),
		),
	)
	defer span.End()

	if !forceRefresh {
		res, err := c.fromCacheIfFresh(ctx)
		if err != nil {
			otel.RecordError(span, err)
			return nil, err
		}
		if res != nil {
			span.SetAttributes(otel.AttrSource.String(string(res.Source)))
			return res, nil
		}
	}

	// The flight outlives callers that give up waiting
	flightCtx := context.WithoutCancel(ctx)
	for {
		ch := c.flights.DoChan(c.tenant, func() (any, error) {
			return c.syncLive(flightCtx, forceRefresh)
		})

		select {
		case <-ctx.Done():
			otel.RecordError(span, ctx.Err())
			return nil, ctx.Err()
		case r := <-ch:
			if r.Err != nil {
				otel.RecordError(span, r.Err)
				return nil, r.Err
			}
			res := r.Val.(*Result)
			// A forced caller that joined a non-forced flight which found
			// storage fresh has not seen a fetch yet
			if forceRefresh && res.Source == SourceCache {
				slog.Debug("Forced request joined a cache flight, syncing again", "tenant", c.tenant)
				continue
			}
			span.SetAttributes(
				otel.AttrSource.String(string(res.Source)),
				otel.AttrResultCount.Int(len(res.Records)),
				attribute.Bool("sync.shared", r.Shared),
			)
			return res, nil
		}
	}
}

// fromCacheIfFresh returns stored records when the last completed sync is
// within the threshold, or nil when a live sync is needed.
func (c *Coordinator) fromCacheIfFresh(ctx context.Context) (*Result, error) {
	last, fresh := c.lastFreshSync(ctx)
	if !fresh {
		return nil, nil
	}

	start := c.now()
	records, err := c.store.ListDocuments(ctx, c.listLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored documents: %w", err)
	}
	c.metrics.RecordSyncDuration(ctx, c.tenant, string(SourceCache), c.now().Sub(start), true)

	slog.Debug("Serving documents from storage",
		"tenant", c.tenant,
		"records", len(records),
		"last_sync", last.FinishedAt)

	return &Result{
		Records:  records,
		Source:   SourceCache,
		SyncedAt: last.FinishedAt,
	}, nil
}

// lastFreshSync reports whether the last completed sync is within the threshold.
// Storage errors count as stale so that a live sync is attempted.
func (c *Coordinator) lastFreshSync(ctx context.Context) (*store.SyncRun, bool) {
	last, err := c.store.LastCompletedSync(ctx, c.tenant)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Warn("Failed to read last completed sync, treating storage as stale",
				"tenant", c.tenant,
				"error", err)
		}
		return nil, false
	}
	if last.FinishedAt == nil {
		return nil, false
	}
	return last, c.now().Sub(*last.FinishedAt) < c.threshold
}

// syncLive runs inside the single flight
func (c *Coordinator) syncLive(ctx context.Context, forceRefresh bool) (*Result, error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "freshness.Coordinator.syncLive",
		trace.WithAttributes(otel.AttrTenant.String(c.tenant)),
	)
	defer span.End()

	syncCtx, cancel := context.WithTimeout(ctx, c.syncTimeout)
	defer cancel()

	start := c.now()

	if c.locker != nil {
		lease, err := c.locker.TryAcquire(syncCtx, leaseKey(c.tenant), max(c.lockTTL, c.syncTimeout))
		switch {
		case errors.Is(err, lock.ErrLockHeld):
			slog.Info("Live sync already running elsewhere, serving storage", "tenant", c.tenant)
			held := &docsync.Error{
				Err:     err,
				Message: "live sync already in progress on another instance",
				Reason:  docsync.ReasonLockHeld,
			}
			return c.fallback(ctx, held, start)
		case err != nil:
			// Proceed unlocked: the upsert is idempotent and last-writer-wins
			slog.Warn("Failed to acquire sync lease, syncing without it",
				"tenant", c.tenant,
				"error", err)
		default:
			defer func() {
				if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
					slog.Warn("Failed to release sync lease", "tenant", c.tenant, "error", err)
				}
			}()
		}
	}

	if !forceRefresh {
		if res, err := c.fromCacheIfFresh(syncCtx); err == nil && res != nil {
			return res, nil
		}
	}

	run, err := c.store.StartSyncRun(syncCtx, c.tenant, start)
	if err != nil {
		otel.RecordError(span, err)
		startErr := &docsync.Error{
			Err:     err,
			Message: fmt.Sprintf("failed to record sync run start: %v", err),
			Reason:  docsync.ReasonStorageFailed,
		}
		return c.fallback(ctx, startErr, start)
	}

	c.appendLog(ctx, store.LevelInfo, "sync.start", "Live sync started", map[string]any{
		"sync_run_id": run.ID.String(),
		"forced":      forceRefresh,
	})

	records, fetchErr := c.fetcher.FetchAll(syncCtx)
	if fetchErr != nil {
		otel.RecordError(span, fetchErr)
		c.finishRun(ctx, run, 0, 0, 0, fetchErr)
		c.metrics.RecordSyncDuration(ctx, c.tenant, string(SourceLive), c.now().Sub(start), false)
		c.appendLog(ctx, store.LevelError, "sync.failed", "Live sync failed", map[string]any{
			"sync_run_id": run.ID.String(),
			"reason":      docsync.ReasonFor(fetchErr),
			"error":       fetchErr.Error(),
			"duration_ms": c.now().Sub(start).Milliseconds(),
		})
		return c.fallback(ctx, fetchErr, start)
	}

	fetchedAt := c.now()
	summary := c.reconciler.Reconcile(syncCtx, records, fetchedAt)

	var runErr error
	if len(records) > 0 && summary.ErrorCount == len(records) {
		runErr = &docsync.Error{
			Err:     errors.Join(summary.Errors...),
			Message: fmt.Sprintf("all %d fetched documents failed to persist", len(records)),
			Reason:  docsync.ReasonStorageFailed,
		}
	}
	c.finishRun(ctx, run, len(records), summary.SuccessCount, summary.ErrorCount, runErr)

	duration := c.now().Sub(start)
	c.metrics.RecordSyncDuration(ctx, c.tenant, string(SourceLive), duration, runErr == nil)

	level := store.LevelInfo
	if summary.ErrorCount > 0 {
		level = store.LevelWarn
	}
	c.appendLog(ctx, level, "sync.complete", "Live sync reconciled", map[string]any{
		"sync_run_id": run.ID.String(),
		"fetched":     len(records),
		"succeeded":   summary.SuccessCount,
		"failed":      summary.ErrorCount,
		"stale":       summary.Stale,
		"duration_ms": duration.Milliseconds(),
	})

	slog.Info("Live sync completed",
		"tenant", c.tenant,
		"fetched", len(records),
		"succeeded", summary.SuccessCount,
		"failed", summary.ErrorCount,
		"duration", duration)

	return &Result{
		Records:   records,
		Source:    SourceLive,
		Reconcile: summary,
		SyncedAt:  &fetchedAt,
	}, nil
}

// fallback serves stored records after a failed live sync. With nothing
// stored, cause is returned unchanged.
func (c *Coordinator) fallback(ctx context.Context, cause error, start time.Time) (*Result, error) {
	records, err := c.store.ListDocuments(ctx, c.listLimit)
	if err != nil {
		slog.Error("Live sync failed and storage is unreadable",
			"tenant", c.tenant,
			"error", cause,
			"storage_error", err)
		return nil, cause
	}
	if len(records) == 0 {
		slog.Error("Live sync failed and storage is empty", "tenant", c.tenant, "error", cause)
		return nil, cause
	}

	c.metrics.RecordSyncDuration(ctx, c.tenant, string(SourceFallback), c.now().Sub(start), false)
	c.appendLog(ctx, store.LevelWarn, "sync.fallback", "Serving stored documents after live sync failure", map[string]any{
		"reason":  docsync.ReasonFor(cause),
		"error":   cause.Error(),
		"records": len(records),
	})
	slog.Warn("Serving stored documents after live sync failure",
		"tenant", c.tenant,
		"records", len(records),
		"error", cause)

	res := &Result{
		Records: records,
		Source:  SourceFallback,
		Err:     cause,
	}
	if last, err := c.store.LastCompletedSync(ctx, c.tenant); err == nil {
		res.SyncedAt = last.FinishedAt
	}
	return res, nil
}

func (c *Coordinator) finishRun(ctx context.Context, run *store.SyncRun, fetched, succeeded, failed int, runErr error) {
	finished := c.now()
	run.FinishedAt = &finished
	run.RecordsFetched = fetched
	run.RecordsSucceeded = succeeded
	run.RecordsFailed = failed
	run.Status = store.SyncRunCompleted
	if runErr != nil {
		run.Status = store.SyncRunFailed
		run.ErrorReason = docsync.ReasonFor(runErr)
		run.ErrorMessage = runErr.Error()
	}

	if err := c.store.FinishSyncRun(ctx, run); err != nil {
		slog.Error("Failed to record sync run result",
			"tenant", c.tenant,
			"sync_run_id", run.ID,
			"error", err)
	}
}

func (c *Coordinator) appendLog(ctx context.Context, level, operation, message string, details map[string]any) {
	entry := &store.LogEntry{
		Tenant:    c.tenant,
		Level:     level,
		Operation: operation,
		Message:   message,
		Details:   details,
		CreatedAt: c.now(),
	}
	if err := c.store.AppendLog(ctx, entry); err != nil {
		slog.Warn("Failed to append operational log", "operation", operation, "error", err)
	}
}

func leaseKey(tenant string) string {
	return "lhdn-sync:" + tenant
}
