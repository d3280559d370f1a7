package lhdn

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseReset(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		want  time.Time
		ok    bool
	}{
		{name: "rfc3339", value: "2025-03-01T08:00:30Z", want: now.Add(30 * time.Second), ok: true},
		{name: "epoch seconds", value: "1740816060", want: time.Unix(1740816060, 0).UTC(), ok: true},
		{name: "epoch millis", value: "1740816060000", want: time.Unix(1740816060, 0).UTC(), ok: true},
		{name: "delta seconds", value: "12", want: now.Add(12 * time.Second), ok: true},
		{name: "empty", value: "", ok: false},
		{name: "garbage", value: "soon", ok: false},
		{name: "negative", value: "-5", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := parseReset(tt.value, now)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			}
		})
	}
}

func TestRateLimitState(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	t.Run("unknown budget never waits", func(t *testing.T) {
		t.Parallel()
		assert.Zero(t, NewRateLimitState().WaitDuration(now))
	})

	t.Run("remaining budget does not wait", func(t *testing.T) {
		t.Parallel()

		s := NewRateLimitState()
		s.Update(http.Header{
			"X-Rate-Limit-Remaining": []string{"3"},
			"X-Rate-Limit-Reset":     []string{"60"},
		}, now)
		assert.Zero(t, s.WaitDuration(now))
	})

	t.Run("exhausted budget waits until reset", func(t *testing.T) {
		t.Parallel()

		s := NewRateLimitState()
		s.Update(http.Header{
			"X-Rate-Limit-Remaining": []string{"0"},
			"X-Rate-Limit-Reset":     []string{"60"},
		}, now)
		assert.Equal(t, 60*time.Second, s.WaitDuration(now))
		assert.Equal(t, 15*time.Second, s.WaitDuration(now.Add(45*time.Second)))
		assert.Zero(t, s.WaitDuration(now.Add(61*time.Second)))
	})

	t.Run("exhaust prefers retry-after", func(t *testing.T) {
		t.Parallel()

		s := NewRateLimitState()
		s.Exhaust(http.Header{
			"Retry-After":        []string{"4"},
			"X-Rate-Limit-Reset": []string{"60"},
		}, now, time.Second)
		assert.Equal(t, 4*time.Second, s.WaitDuration(now))
	})

	t.Run("exhaust without headers uses fallback", func(t *testing.T) {
		t.Parallel()

		s := NewRateLimitState()
		s.Exhaust(nil, now, 2*time.Second)
		assert.Equal(t, 2*time.Second, s.WaitDuration(now))
	})
}
