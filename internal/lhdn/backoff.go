package lhdn

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// exponentialJitter yields min(maxDelay, baseDelay*2^attempt) plus a random
// jitter in [0, baseDelay), and backoff.Stop once maxRetries delays were issued.
type exponentialJitter struct {
	baseDelay  time.Duration
	maxDelay   time.Duration
	maxRetries int
	attempt    int
	jitter     func(time.Duration) time.Duration
}

var _ backoff.BackOff = (*exponentialJitter)(nil)

func newExponentialJitter(baseDelay, maxDelay time.Duration, maxRetries int) *exponentialJitter {
	return &exponentialJitter{
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
		maxRetries: maxRetries,
		jitter:     randomJitter,
	}
}

// NextBackOff returns the delay before the next retry
func (b *exponentialJitter) NextBackOff() time.Duration {
	if b.attempt >= b.maxRetries {
		return backoff.Stop
	}

	delay := b.maxDelay
	// Guard the shift against overflow on large attempt counts
	if b.attempt < 32 {
		if d := b.baseDelay << b.attempt; d > 0 && d < b.maxDelay {
			delay = d
		}
	}
	b.attempt++

	return delay + b.jitter(b.baseDelay)
}

// Reset restarts the sequence
func (b *exponentialJitter) Reset() {
	b.attempt = 0
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return rand.N(limit)
}

// Sleeper blocks for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
