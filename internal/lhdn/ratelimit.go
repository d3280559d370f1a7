package lhdn

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Rate-limit response headers
const (
	HeaderRateLimitRemaining = "x-rate-limit-remaining"
	HeaderRateLimitReset     = "x-rate-limit-reset"
	HeaderRetryAfter         = "Retry-After"
)

// RateLimitState tracks the remaining request budget reported by the API.
// One instance is scoped to a single orchestration run and shared by every page
// request in that run.
type RateLimitState struct {
	mu        sync.Mutex
	remaining int
	known     bool
	reset     time.Time
}

// NewRateLimitState returns a state with an unknown budget
func NewRateLimitState() *RateLimitState {
	return &RateLimitState{}
}

// Update records the budget advertised by response headers
func (s *RateLimitState) Update(h http.Header, now time.Time) {
	if h == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v := strings.TrimSpace(h.Get(HeaderRateLimitRemaining)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.remaining = n
			s.known = true
		}
	}
	if reset, ok := parseReset(h.Get(HeaderRateLimitReset), now); ok {
		s.reset = reset
	}
}

// Exhaust marks the budget as spent after a 429. The reset comes from
// Retry-After, then x-rate-limit-reset, then now+fallback.
func (s *RateLimitState) Exhaust(h http.Header, now time.Time, fallback time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remaining = 0
	s.known = true

	if h != nil {
		if reset, ok := parseRetryAfter(h.Get(HeaderRetryAfter), now); ok {
			s.reset = reset
			return
		}
		if reset, ok := parseReset(h.Get(HeaderRateLimitReset), now); ok {
			s.reset = reset
			return
		}
	}
	s.reset = now.Add(fallback)
}

// WaitDuration returns how long a caller must wait before the next request.
// Zero means the request may go out now.
func (s *RateLimitState) WaitDuration(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.known || s.remaining > 0 || s.reset.IsZero() || !s.reset.After(now) {
		return 0
	}
	return s.reset.Sub(now)
}

// Snapshot returns the current remaining budget and reset time
func (s *RateLimitState) Snapshot() (remaining int, known bool, reset time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining, s.known, s.reset
}

// parseReset accepts an RFC 3339 timestamp, epoch seconds or milliseconds,
// or a delta in seconds relative to now.
func parseReset(value string, now time.Time) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), true
	}

	n, err := strconv.ParseFloat(value, 64)
	if err != nil || n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return time.Time{}, false
	}
	switch {
	case n >= 1e11:
		return time.UnixMilli(int64(n)).UTC(), true
	case n >= 1e9:
		return time.Unix(int64(n), 0).UTC(), true
	default:
		return now.Add(time.Duration(n * float64(time.Second))), true
	}
}

// parseRetryAfter accepts delta seconds or an HTTP date
func parseRetryAfter(value string, now time.Time) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if n, err := strconv.Atoi(value); err == nil && n >= 0 {
		return now.Add(time.Duration(n) * time.Second), true
	}
	if t, err := http.ParseTime(value); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
