package config

import (
	"strings"
	"time"
)

// GetBaseURL returns the API base URL for the configured environment
func (l *LHDNConfig) GetBaseURL() string {
	if l.BaseURL != "" {
		return strings.TrimRight(l.BaseURL, "/")
	}
	if l.Environment == EnvironmentProduction {
		return ProductionAPIURL
	}
	return SandboxAPIURL
}

// GetPortalURL returns the public portal used to build validation links
func (l *LHDNConfig) GetPortalURL() string {
	if l.PortalURL != "" {
		return strings.TrimRight(l.PortalURL, "/")
	}
	if l.Environment == EnvironmentProduction {
		return ProductionPortalURL
	}
	return SandboxPortalURL
}

// GetTimeout returns the per-request timeout clamped to [MinTimeout, MaxTimeout]
func (l *LHDNConfig) GetTimeout() time.Duration {
	d := durationOr(l.Timeout, DefaultTimeout)
	switch {
	case d == 0:
		return DefaultTimeout
	case d < MinTimeout:
		return MinTimeout
	case d > MaxTimeout:
		return MaxTimeout
	}
	return d
}

// GetMaxRetries returns the transient retry budget
func (l *LHDNConfig) GetMaxRetries() int {
	if l.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return *l.MaxRetries
}

// GetBaseDelay returns the first backoff delay
func (l *LHDNConfig) GetBaseDelay() time.Duration {
	return durationOr(l.BaseDelay, DefaultBaseDelay)
}

// GetMaxDelay returns the backoff ceiling
func (l *LHDNConfig) GetMaxDelay() time.Duration {
	return durationOr(l.MaxDelay, DefaultMaxDelay)
}

// GetRateLimitBuffer returns the margin added to rate-limit reset waits
func (l *LHDNConfig) GetRateLimitBuffer() time.Duration {
	return durationOr(l.RateLimitBuffer, DefaultRateLimitBuffer)
}

// GetMaxRateLimitWaits returns how many 429 responses one page may absorb
func (l *LHDNConfig) GetMaxRateLimitWaits() int {
	return intOr(l.MaxRateLimitWaits, DefaultMaxRateLimitWaits)
}

// GetPageSize returns the page size
func (s *SyncConfig) GetPageSize() int {
	return intOr(s.PageSize, DefaultPageSize)
}

// GetMaxConsecutiveFailures returns the circuit-breaking threshold
func (s *SyncConfig) GetMaxConsecutiveFailures() int {
	return intOr(s.MaxConsecutiveFailures, DefaultMaxConsecutiveFailures)
}

// GetPageDelay returns the pause between successful pages
func (s *SyncConfig) GetPageDelay() time.Duration {
	return durationOr(s.PageDelay, DefaultPageDelay)
}

// GetFailureDelay returns the base pause before re-requesting a failed page
func (s *SyncConfig) GetFailureDelay() time.Duration {
	return durationOr(s.FailureDelay, DefaultFailureDelay)
}

// GetFreshnessThreshold returns the maximum age of a sync served from cache
func (s *SyncConfig) GetFreshnessThreshold() time.Duration {
	return durationOr(s.FreshnessThreshold, DefaultFreshnessThreshold)
}

// GetChunkSize returns the reconciliation chunk size
func (s *SyncConfig) GetChunkSize() int {
	return intOr(s.ChunkSize, DefaultChunkSize)
}

// GetListLimit returns the maximum number of stored documents returned per query
func (s *SyncConfig) GetListLimit() int {
	return intOr(s.ListLimit, DefaultListLimit)
}

// GetInterval returns the background sync period. Zero disables background sync.
func (s *SyncConfig) GetInterval() time.Duration {
	return durationOr(s.Interval, DefaultSyncInterval)
}

// GetTimeout returns the bound on one live sync
func (s *SyncConfig) GetTimeout() time.Duration {
	d := durationOr(s.Timeout, DefaultSyncTimeout)
	if d == 0 {
		return DefaultSyncTimeout
	}
	return d
}

// GetSink returns the artifact sink type
func (a *ArtifactsConfig) GetSink() string {
	if a.Sink == "" {
		return ArtifactSinkFile
	}
	return a.Sink
}

// GetMaxPathLength returns the longest primary artifact path attempted
func (a *ArtifactsConfig) GetMaxPathLength() int {
	return intOr(a.MaxPathLength, DefaultMaxPathLength)
}

// GetPath returns the SQLite database file path
func (s *SQLiteConfig) GetPath() string {
	if s == nil || s.Path == "" {
		return DefaultSQLitePath
	}
	return s.Path
}

// GetTTL returns the lease TTL
func (l *LockConfig) GetTTL() time.Duration {
	if l == nil {
		return DefaultLockTTL
	}
	d := durationOr(l.TTL, DefaultLockTTL)
	if d == 0 {
		return DefaultLockTTL
	}
	return d
}
