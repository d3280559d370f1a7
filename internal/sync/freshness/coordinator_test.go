package freshness

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/einvoice-sync/lhdn-sync-server/internal/documents"
	"github.com/einvoice-sync/lhdn-sync-server/internal/lock"
	lockmocks "github.com/einvoice-sync/lhdn-sync-server/internal/lock/mocks"
	"github.com/einvoice-sync/lhdn-sync-server/internal/store"
	"github.com/einvoice-sync/lhdn-sync-server/internal/store/mocks"
	docsync "github.com/einvoice-sync/lhdn-sync-server/internal/sync"
	"github.com/einvoice-sync/lhdn-sync-server/internal/sync/writer"
)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   atomic.Int32
	records []*documents.Record
	err     error
	gate    chan struct{}
	ctxErr  error
}

func (f *fakeFetcher) FetchAll(ctx context.Context) ([]*documents.Record, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErr = ctx.Err()
	return f.records, f.err
}

func (f *fakeFetcher) set(records []*documents.Record, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records, f.err = records, err
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func docs(uuids ...string) []*documents.Record {
	out := make([]*documents.Record, len(uuids))
	for i, id := range uuids {
		out[i] = &documents.Record{UUID: id, Status: documents.StatusSubmitted}
	}
	return out
}

func openStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newCoordinator(st store.Store, f Fetcher, clk *clock, opts ...Option) *Coordinator {
	opts = append([]Option{WithClock(clk.Now), WithTenant("acme")}, opts...)
	return New(st, f, writer.New(st), opts...)
}

func TestGetDocuments_LiveThenCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := openStore(t)
	clk := newClock()
	f := &fakeFetcher{records: docs("A", "B")}
	c := newCoordinator(st, f, clk)

	res, err := c.GetDocuments(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, res.Source)
	assert.Len(t, res.Records, 2)
	require.NotNil(t, res.Reconcile)
	assert.Equal(t, 2, res.Reconcile.SuccessCount)

	clk.Advance(5 * time.Minute)
	res, err = c.GetDocuments(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, res.Source)
	assert.Len(t, res.Records, 2)
	require.NotNil(t, res.SyncedAt)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestGetDocuments_ThresholdExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := openStore(t)
	clk := newClock()
	f := &fakeFetcher{records: docs("A")}
	c := newCoordinator(st, f, clk, WithThreshold(15*time.Minute))

	_, err := c.GetDocuments(ctx, false)
	require.NoError(t, err)

	clk.Advance(15 * time.Minute)
	res, err := c.GetDocuments(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, res.Source, "a sync exactly one threshold old is stale")
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestGetDocuments_ForceBypassesCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := openStore(t)
	clk := newClock()
	f := &fakeFetcher{records: docs("A")}
	c := newCoordinator(st, f, clk)

	_, err := c.GetDocuments(ctx, false)
	require.NoError(t, err)

	clk.Advance(time.Second)
	f.set(docs("A", "B", "C"), nil)
	res, err := c.GetDocuments(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, res.Source)
	assert.Len(t, res.Records, 3)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestGetDocuments_FallbackOnFetchFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := openStore(t)
	clk := newClock()
	f := &fakeFetcher{records: docs("A", "B")}
	c := newCoordinator(st, f, clk)

	_, err := c.GetDocuments(ctx, false)
	require.NoError(t, err)

	exhausted := &docsync.FetchExhaustedError{Failures: 3, Page: 2, LastErr: errors.New("503")}
	f.set(nil, exhausted)
	clk.Advance(time.Minute)

	res, err := c.GetDocuments(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Len(t, res.Records, 2)
	require.ErrorIs(t, res.Err, docsync.ErrFetchExhausted)
	require.NotNil(t, res.SyncedAt)

	logs, err := st.ListLogs(ctx, "acme", 10)
	require.NoError(t, err)
	var ops []string
	for _, l := range logs {
		ops = append(ops, l.Operation)
	}
	assert.Contains(t, ops, "sync.failed")
	assert.Contains(t, ops, "sync.fallback")

	// The failed run does not refresh storage
	last, err := st.LastCompletedSync(ctx, "acme")
	require.NoError(t, err)
	assert.True(t, last.FinishedAt.Equal(clk.Now().Add(-time.Minute)))
}

func TestGetDocuments_EmptyStorePropagatesError(t *testing.T) {
	t.Parallel()

	st := openStore(t)
	cause := &docsync.FetchExhaustedError{Failures: 3, Page: 1, LastErr: errors.New("timeout")}
	f := &fakeFetcher{err: cause}
	c := newCoordinator(st, f, newClock())

	res, err := c.GetDocuments(context.Background(), false)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Same(t, cause, err)
}

func TestGetDocuments_SingleFlight(t *testing.T) {
	t.Parallel()

	st := openStore(t)
	f := &fakeFetcher{records: docs("A"), gate: make(chan struct{})}
	c := newCoordinator(st, f, newClock())

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*Result, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = c.GetDocuments(context.Background(), true)
		}()
	}

	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	// Give the remaining callers time to join the flight
	time.Sleep(50 * time.Millisecond)
	close(f.gate)
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, SourceLive, results[i].Source)
	}
}

func TestGetDocuments_CallerCancelDoesNotAbortSync(t *testing.T) {
	t.Parallel()

	st := openStore(t)
	f := &fakeFetcher{records: docs("A", "B"), gate: make(chan struct{})}
	c := newCoordinator(st, f, newClock())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.GetDocuments(ctx, false)
		done <- err
	}()

	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	close(f.gate)
	require.Eventually(t, func() bool {
		stored, err := st.ListDocuments(context.Background(), 10)
		return err == nil && len(stored) == 2
	}, 2*time.Second, 10*time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.NoError(t, f.ctxErr)
}

func TestGetDocuments_LockHeldElsewhere(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := openStore(t)
	clk := newClock()
	locker := lock.NewLocalLocker()
	f := &fakeFetcher{records: docs("A")}
	c := newCoordinator(st, f, clk, WithLocker(locker))

	_, err := c.GetDocuments(ctx, false)
	require.NoError(t, err)

	// Another instance holds the lease
	_, err = locker.TryAcquire(ctx, leaseKey("acme"), time.Hour)
	require.NoError(t, err)

	res, err := c.GetDocuments(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, docsync.ReasonLockHeld, docsync.ReasonFor(res.Err))
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestGetDocuments_LeaseReleasedAfterSync(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := openStore(t)
	locker := lock.NewLocalLocker()
	c := newCoordinator(st, &fakeFetcher{records: docs("A")}, newClock(), WithLocker(locker))

	_, err := c.GetDocuments(ctx, true)
	require.NoError(t, err)

	lease, err := locker.TryAcquire(ctx, leaseKey("acme"), time.Minute)
	require.NoError(t, err)
	require.NoError(t, lease.Release(ctx))
}

func TestGetDocuments_LeaseTTLCoversSyncTimeout(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	ctx := context.Background()
	st := openStore(t)

	lease := lockmocks.NewMockLease(ctrl)
	lease.EXPECT().Release(gomock.Any()).Return(nil)
	locker := lockmocks.NewMockLocker(ctrl)
	locker.EXPECT().
		TryAcquire(gomock.Any(), leaseKey("acme"), 45*time.Minute).
		Return(lease, nil)

	c := newCoordinator(st, &fakeFetcher{records: docs("A")}, newClock(),
		WithLocker(locker),
		WithLockTTL(10*time.Minute),
		WithSyncTimeout(45*time.Minute))

	res, err := c.GetDocuments(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, res.Source)
}

func TestGetDocuments_LockBackendErrorSyncsUnlocked(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	ctx := context.Background()
	st := openStore(t)

	locker := lockmocks.NewMockLocker(ctrl)
	locker.EXPECT().
		TryAcquire(gomock.Any(), leaseKey("acme"), gomock.Any()).
		Return(nil, errors.New("redis: connection refused"))

	f := &fakeFetcher{records: docs("A", "B")}
	c := newCoordinator(st, f, newClock(), WithLocker(locker))

	res, err := c.GetDocuments(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, res.Source)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestGetDocuments_AllRecordsFailMarksRunFailed(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	clk := newClock()
	boom := errors.New("disk full")

	st.EXPECT().StartSyncRun(gomock.Any(), "acme", clk.Now()).
		Return(&store.SyncRun{Tenant: "acme", Status: store.SyncRunInProgress, StartedAt: clk.Now()}, nil)
	st.EXPECT().AppendLog(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	st.EXPECT().UpsertDocument(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, boom).Times(2)
	st.EXPECT().FinishSyncRun(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, run *store.SyncRun) error {
			assert.Equal(t, store.SyncRunFailed, run.Status)
			assert.Equal(t, docsync.ReasonStorageFailed, run.ErrorReason)
			assert.Equal(t, 2, run.RecordsFetched)
			assert.Equal(t, 2, run.RecordsFailed)
			return nil
		})

	c := newCoordinator(st, &fakeFetcher{records: docs("A", "B")}, clk)
	res, err := c.GetDocuments(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, res.Source)
	assert.Equal(t, 2, res.Reconcile.ErrorCount)
}

func TestGetDocuments_StartSyncRunFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		stored     []*documents.Record
		wantSource Source
		wantErr    bool
	}{
		{
			name:       "stored records are served",
			stored:     docs("A", "B", "C"),
			wantSource: SourceFallback,
		},
		{
			name:    "empty store propagates the error",
			stored:  []*documents.Record{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			st := mocks.NewMockStore(ctrl)
			st.EXPECT().StartSyncRun(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))
			st.EXPECT().ListDocuments(gomock.Any(), gomock.Any()).Return(tt.stored, nil)
			st.EXPECT().AppendLog(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
			st.EXPECT().LastCompletedSync(gomock.Any(), "acme").Return(nil, store.ErrNotFound).AnyTimes()

			f := &fakeFetcher{}
			c := newCoordinator(st, f, newClock())
			res, err := c.GetDocuments(context.Background(), true)
			assert.Zero(t, f.calls.Load())

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, docsync.ReasonStorageFailed, docsync.ReasonFor(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, res.Source)
			assert.Len(t, res.Records, len(tt.stored))
			require.Error(t, res.Err)
			assert.Equal(t, docsync.ReasonStorageFailed, docsync.ReasonFor(res.Err))
		})
	}
}

func TestGetDocuments_ForcedCallerJoiningCacheFlightSyncs(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	ctx := context.Background()
	st := openStore(t)
	clk := newClock()

	lease := lockmocks.NewMockLease(ctrl)
	lease.EXPECT().Release(gomock.Any()).Return(nil).AnyTimes()

	entered := make(chan struct{})
	gate := make(chan struct{})
	locker := lockmocks.NewMockLocker(ctrl)
	locker.EXPECT().
		TryAcquire(gomock.Any(), leaseKey("acme"), gomock.Any()).
		DoAndReturn(func(context.Context, string, time.Duration) (lock.Lease, error) {
			close(entered)
			<-gate
			return lease, nil
		})
	locker.EXPECT().
		TryAcquire(gomock.Any(), leaseKey("acme"), gomock.Any()).
		Return(lease, nil).
		AnyTimes()

	f := &fakeFetcher{records: docs("A", "B")}
	c := newCoordinator(st, f, clk, WithLocker(locker))

	plainDone := make(chan *Result, 1)
	go func() {
		res, err := c.GetDocuments(ctx, false)
		assert.NoError(t, err)
		plainDone <- res
	}()
	<-entered

	// Another instance completes a sync while the first flight waits on the lease
	other := newCoordinator(st, &fakeFetcher{records: docs("A")}, clk)
	_, err := other.GetDocuments(ctx, true)
	require.NoError(t, err)

	forcedDone := make(chan *Result, 1)
	go func() {
		res, err := c.GetDocuments(ctx, true)
		assert.NoError(t, err)
		forcedDone <- res
	}()
	time.Sleep(50 * time.Millisecond)
	close(gate)

	plain := <-plainDone
	require.NotNil(t, plain)
	assert.Equal(t, SourceCache, plain.Source)

	forced := <-forcedDone
	require.NotNil(t, forced)
	assert.Equal(t, SourceLive, forced.Source)
	assert.Len(t, forced.Records, 2)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestGetDocuments_UnreadableFreshnessGoesLive(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	clk := newClock()

	st.EXPECT().LastCompletedSync(gomock.Any(), "acme").Return(nil, errors.New("timeout")).Times(2)
	st.EXPECT().StartSyncRun(gomock.Any(), "acme", gomock.Any()).Return(&store.SyncRun{Tenant: "acme"}, nil)
	st.EXPECT().AppendLog(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	st.EXPECT().FinishSyncRun(gomock.Any(), gomock.Any()).Return(nil)

	c := newCoordinator(st, &fakeFetcher{}, clk)
	res, err := c.GetDocuments(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, res.Source)
	assert.Empty(t, res.Records)
}
