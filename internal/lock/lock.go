// Package lock provides leases that keep a live sync exclusive, either within
// one process or across every instance sharing a Redis server.
package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// ErrLockHeld is returned when the lease is held by someone else
var ErrLockHeld = errors.New("lock is held by another owner")

//go:generate mockgen -destination=mocks/mock_locker.go -package=mocks -source=lock.go Locker,Lease

// Locker hands out expiring, exclusive leases by key
type Locker interface {
	// TryAcquire takes the lease for key without waiting.
	// Returns ErrLockHeld when another owner holds it.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// Lease is a held lock. Releasing an expired or already released lease is a no-op.
type Lease interface {
	Release(ctx context.Context) error
}

func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// LocalLocker is an in-process Locker for single-instance deployments
type LocalLocker struct {
	mu      sync.Mutex
	held    map[string]localEntry
	nowFunc func() time.Time
}

type localEntry struct {
	token   string
	expires time.Time
}

var _ Locker = (*LocalLocker)(nil)

// NewLocalLocker creates an in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		held:    make(map[string]localEntry),
		nowFunc: time.Now,
	}
}

// TryAcquire implements Locker
func (l *LocalLocker) TryAcquire(_ context.Context, key string, ttl time.Duration) (Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	if e, ok := l.held[key]; ok && now.Before(e.expires) {
		return nil, ErrLockHeld
	}

	token := newToken()
	l.held[key] = localEntry{token: token, expires: now.Add(ttl)}
	return &localLease{locker: l, key: key, token: token}, nil
}

type localLease struct {
	locker *LocalLocker
	key    string
	token  string
}

func (l *localLease) Release(_ context.Context) error {
	l.locker.mu.Lock()
	defer l.locker.mu.Unlock()

	if e, ok := l.locker.held[l.key]; ok && e.token == l.token {
		delete(l.locker.held, l.key)
	}
	return nil
}
