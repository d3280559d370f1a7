package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := NewLocalLocker()
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	l.nowFunc = func() time.Time { return now }

	lease, err := l.TryAcquire(ctx, "acme", time.Minute)
	require.NoError(t, err)

	_, err = l.TryAcquire(ctx, "acme", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)

	// Keys are independent
	other, err := l.TryAcquire(ctx, "other", time.Minute)
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, lease.Release(ctx))
	again, err := l.TryAcquire(ctx, "acme", time.Minute)
	require.NoError(t, err)

	// Releasing a stale lease does not drop the current holder
	require.NoError(t, lease.Release(ctx))
	_, err = l.TryAcquire(ctx, "acme", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)
	require.NoError(t, again.Release(ctx))
}

func TestLocalLocker_Expiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := NewLocalLocker()
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	l.nowFunc = func() time.Time { return now }

	_, err := l.TryAcquire(ctx, "acme", time.Minute)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = l.TryAcquire(ctx, "acme", time.Minute)
	assert.NoError(t, err, "expired lease should be taken over")
}

func TestLocalLocker_Concurrent(t *testing.T) {
	t.Parallel()

	l := NewLocalLocker()
	var (
		wg       sync.WaitGroup
		acquired atomic.Int32
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.TryAcquire(context.Background(), "acme", time.Minute); err == nil {
				acquired.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), acquired.Load())
}

func TestNew_DefaultsToLocal(t *testing.T) {
	t.Parallel()

	locker, closeFn, err := New(context.Background(), nil)
	require.NoError(t, err)
	assert.IsType(t, &LocalLocker{}, locker)
	assert.NoError(t, closeFn())
}
