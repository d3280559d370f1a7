// Package config provides configuration loading and management for the LHDN sync server.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/einvoice-sync/lhdn-sync-server/internal/telemetry"
)

const (
	// EnvironmentSandbox is the LHDN pre-production environment
	EnvironmentSandbox = "sandbox"

	// EnvironmentProduction is the LHDN production environment
	EnvironmentProduction = "production"
)

const (
	// StorageTypeDatabase stores documents in PostgreSQL
	StorageTypeDatabase = "database"

	// StorageTypeSQLite stores documents in a local SQLite file
	StorageTypeSQLite = "sqlite"
)

const (
	// ArtifactSinkFile writes artifacts to a local or network-mounted filesystem
	ArtifactSinkFile = "file"

	// ArtifactSinkGCS writes artifacts to a Google Cloud Storage bucket
	ArtifactSinkGCS = "gcs"
)

// EnvPrefix is the prefix of every environment variable read by the server
const EnvPrefix = "LHDN_SYNC"

// Environment variables holding secrets
const (
	EnvAccessToken      = "LHDN_SYNC_ACCESS_TOKEN"
	EnvDatabasePassword = "LHDN_SYNC_DATABASE_PASSWORD"
	EnvRedisPassword    = "LHDN_SYNC_REDIS_PASSWORD"
)

// LHDN endpoints per environment
const (
	SandboxAPIURL       = "https://preprod-api.myinvois.hasil.gov.my/api/v1.0"
	ProductionAPIURL    = "https://api.myinvois.hasil.gov.my/api/v1.0"
	SandboxPortalURL    = "https://preprod.myinvois.hasil.gov.my"
	ProductionPortalURL = "https://myinvois.hasil.gov.my"
)

// Defaults and bounds
const (
	DefaultTenant                 = "default"
	DefaultTimeout                = 60 * time.Second
	MinTimeout                    = 30 * time.Second
	MaxTimeout                    = 300 * time.Second
	DefaultMaxRetries             = 3
	DefaultBaseDelay              = time.Second
	DefaultMaxDelay               = 30 * time.Second
	DefaultRateLimitBuffer        = time.Second
	DefaultMaxRateLimitWaits      = 10
	DefaultPageSize               = 100
	DefaultMaxConsecutiveFailures = 3
	DefaultPageDelay              = time.Second
	DefaultFailureDelay           = 2 * time.Second
	DefaultFreshnessThreshold     = 15 * time.Minute
	DefaultChunkSize              = 10
	DefaultSyncInterval           = 10 * time.Minute
	DefaultSyncTimeout            = 30 * time.Minute
	DefaultListLimit              = 1000
	DefaultMaxPathLength          = 255
	DefaultLockTTL                = 35 * time.Minute
	DefaultLockKeyPrefix          = "lhdn-sync:lock:"
	DefaultSQLitePath             = "lhdn-sync.db"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Tenant identifies the taxpayer whose documents are synchronized.
	// Freshness and locking are scoped per tenant. Defaults to "default".
	Tenant    string            `yaml:"tenant,omitempty"`
	LHDN      LHDNConfig        `yaml:"lhdn"`
	Sync      SyncConfig        `yaml:"sync,omitempty"`
	Artifacts ArtifactsConfig   `yaml:"artifacts"`
	Storage   StorageConfig     `yaml:"storage"`
	Lock      *LockConfig       `yaml:"lock,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// LHDNConfig defines how the LHDN document API is reached
type LHDNConfig struct {
	// Environment is either "sandbox" or "production"
	Environment string `yaml:"environment"`

	// BaseURL overrides the API base URL derived from Environment
	BaseURL string `yaml:"baseURL,omitempty"`

	// PortalURL overrides the public portal used for validation links
	PortalURL string `yaml:"portalURL,omitempty"`

	// Timeout is the per-request timeout, clamped to [30s, 300s]
	Timeout string `yaml:"timeout,omitempty"`

	// MaxRetries is the transient retry budget per page request
	MaxRetries *int `yaml:"maxRetries,omitempty"`

	BaseDelay         string `yaml:"baseDelay,omitempty"`
	MaxDelay          string `yaml:"maxDelay,omitempty"`
	RateLimitBuffer   string `yaml:"rateLimitBuffer,omitempty"`
	MaxRateLimitWaits int    `yaml:"maxRateLimitWaits,omitempty"`

	// TokenFile is the path to a file containing the bearer token.
	// Token acquisition and refresh happen outside this server.
	TokenFile string `yaml:"tokenFile,omitempty"`
}

// SyncConfig tunes the fetch, freshness and reconciliation behavior
type SyncConfig struct {
	PageSize               int    `yaml:"pageSize,omitempty"`
	MaxPages               int    `yaml:"maxPages,omitempty"`
	MaxConsecutiveFailures int    `yaml:"maxConsecutiveFailures,omitempty"`
	PageDelay              string `yaml:"pageDelay,omitempty"`
	FailureDelay           string `yaml:"failureDelay,omitempty"`
	FreshnessThreshold     string `yaml:"freshnessThreshold,omitempty"`
	ChunkSize              int    `yaml:"chunkSize,omitempty"`
	ListLimit              int    `yaml:"listLimit,omitempty"`

	// Interval is the background sync period. "0" disables background sync.
	Interval string `yaml:"interval,omitempty"`

	// Timeout bounds one live sync, independent of the caller's deadline
	Timeout string `yaml:"timeout,omitempty"`
}

// ArtifactsConfig defines where artifact descriptors are written
type ArtifactsConfig struct {
	// Disabled turns artifact generation off entirely
	Disabled bool `yaml:"disabled,omitempty"`

	// Sink is "file" (default) or "gcs"
	Sink string `yaml:"sink,omitempty"`

	// BasePath is the root directory (file sink) or object prefix (gcs sink)
	BasePath string `yaml:"basePath"`

	// Bucket is the GCS bucket, required for the gcs sink
	Bucket string `yaml:"bucket,omitempty"`

	// MaxPathLength is the longest primary path attempted before falling back
	MaxPathLength int `yaml:"maxPathLength,omitempty"`
}

// StorageConfig selects the durable store
type StorageConfig struct {
	// Type is "database" (PostgreSQL) or "sqlite"
	Type     string          `yaml:"type"`
	Database *DatabaseConfig `yaml:"database,omitempty"`
	SQLite   *SQLiteConfig   `yaml:"sqlite,omitempty"`
}

// SQLiteConfig defines the embedded store
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// LockConfig configures the cross-instance sync lease
type LockConfig struct {
	Redis *RedisConfig `yaml:"redis,omitempty"`

	// TTL bounds how long a crashed holder can block other instances
	TTL string `yaml:"ttl,omitempty"`
}

// RedisConfig defines the Redis connection used for the sync lease
type RedisConfig struct {
	Address      string `yaml:"address"`
	DB           int    `yaml:"db,omitempty"`
	Username     string `yaml:"username,omitempty"`
	PasswordFile string `yaml:"passwordFile,omitempty"`
	KeyPrefix    string `yaml:"keyPrefix,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password
	// The file should contain only the password with optional trailing whitespace
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the minimum number of idle connections kept in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// readSecret reads a secret from file, then from the environment variable
func readSecret(file, envVar, what string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(filepath.Clean(file))
		if err != nil {
			return "", fmt.Errorf("failed to read %s from file %s: %w", what, file, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if v := os.Getenv(envVar); v != "" {
		return v, nil
	}

	return "", fmt.Errorf("no %s configured: set the file option or %s environment variable", what, envVar)
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from LHDN_SYNC_DATABASE_PASSWORD environment variable
func (d *DatabaseConfig) GetPassword() (string, error) {
	return readSecret(d.PasswordFile, EnvDatabasePassword, "database password")
}

// GetConnectionString builds a PostgreSQL connection string.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	return d.connectionString("postgres")
}

// GetMigrationConnectionString builds the connection string for golang-migrate's pgx v5 driver
func (d *DatabaseConfig) GetMigrationConnectionString() (string, error) {
	return d.connectionString("pgx5")
}

func (d *DatabaseConfig) connectionString(scheme string) (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	return fmt.Sprintf(
		"%s://%s:%s@%s:%d/%s?sslmode=%s",
		scheme,
		url.QueryEscape(d.User),
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	), nil
}

// GetAccessToken returns the LHDN bearer token from TokenFile or LHDN_SYNC_ACCESS_TOKEN
func (l *LHDNConfig) GetAccessToken() (string, error) {
	return readSecret(l.TokenFile, EnvAccessToken, "LHDN access token")
}

// GetPassword returns the Redis password from PasswordFile or LHDN_SYNC_REDIS_PASSWORD.
// An empty password is valid for Redis.
func (r *RedisConfig) GetPassword() (string, error) {
	if r.PasswordFile == "" && os.Getenv(EnvRedisPassword) == "" {
		return "", nil
	}
	return readSecret(r.PasswordFile, EnvRedisPassword, "redis password")
}

// GetKeyPrefix returns the lock key prefix
func (r *RedisConfig) GetKeyPrefix() string {
	if r.KeyPrefix == "" {
		return DefaultLockKeyPrefix
	}
	return r.KeyPrefix
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetTenant returns the tenant, using "default" if not specified
func (c *Config) GetTenant() string {
	if c.Tenant == "" {
		return DefaultTenant
	}
	return c.Tenant
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error

	switch c.LHDN.Environment {
	case EnvironmentSandbox, EnvironmentProduction:
	default:
		errs = append(errs, fmt.Errorf("lhdn.environment must be %q or %q, got %q",
			EnvironmentSandbox, EnvironmentProduction, c.LHDN.Environment))
	}
	if c.LHDN.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.LHDN.BaseURL); err != nil {
			errs = append(errs, fmt.Errorf("lhdn.baseURL is invalid: %w", err))
		}
	}
	if c.LHDN.MaxRetries != nil && *c.LHDN.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("lhdn.maxRetries must not be negative"))
	}

	errs = append(errs, validateDurations(map[string]string{
		"lhdn.timeout":            c.LHDN.Timeout,
		"lhdn.baseDelay":          c.LHDN.BaseDelay,
		"lhdn.maxDelay":           c.LHDN.MaxDelay,
		"lhdn.rateLimitBuffer":    c.LHDN.RateLimitBuffer,
		"sync.pageDelay":          c.Sync.PageDelay,
		"sync.failureDelay":       c.Sync.FailureDelay,
		"sync.freshnessThreshold": c.Sync.FreshnessThreshold,
		"sync.interval":           c.Sync.Interval,
		"sync.timeout":            c.Sync.Timeout,
	})...)

	// A tick landing just inside the threshold sees fresh data and skips
	if c.Sync.Interval != "" {
		interval, threshold := c.Sync.GetInterval(), c.Sync.GetFreshnessThreshold()
		if interval > 0 && interval >= threshold {
			errs = append(errs, fmt.Errorf("sync.interval (%s) must be shorter than sync.freshnessThreshold (%s)",
				interval, threshold))
		}
	}

	if c.Sync.PageSize < 0 || c.Sync.ChunkSize < 0 || c.Sync.MaxConsecutiveFailures < 0 || c.Sync.MaxPages < 0 {
		errs = append(errs, fmt.Errorf("sync sizes and thresholds must not be negative"))
	}

	errs = append(errs, c.validateArtifacts()...)
	errs = append(errs, c.validateStorage()...)

	if c.Lock != nil {
		if c.Lock.Redis != nil && c.Lock.Redis.Address == "" {
			errs = append(errs, fmt.Errorf("lock.redis.address is required"))
		}
		errs = append(errs, validateDurations(map[string]string{"lock.ttl": c.Lock.TTL})...)
	}

	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

func (c *Config) validateArtifacts() []error {
	if c.Artifacts.Disabled {
		return nil
	}

	var errs []error
	switch c.Artifacts.GetSink() {
	case ArtifactSinkFile:
		if c.Artifacts.BasePath == "" {
			errs = append(errs, fmt.Errorf("artifacts.basePath is required for the file sink"))
		}
	case ArtifactSinkGCS:
		if c.Artifacts.Bucket == "" {
			errs = append(errs, fmt.Errorf("artifacts.bucket is required for the gcs sink"))
		}
	default:
		errs = append(errs, fmt.Errorf("artifacts.sink must be %q or %q, got %q",
			ArtifactSinkFile, ArtifactSinkGCS, c.Artifacts.Sink))
	}
	if c.Artifacts.MaxPathLength < 0 {
		errs = append(errs, fmt.Errorf("artifacts.maxPathLength must not be negative"))
	}
	return errs
}

func (c *Config) validateStorage() []error {
	switch c.Storage.Type {
	case StorageTypeDatabase:
		db := c.Storage.Database
		if db == nil {
			return []error{fmt.Errorf("storage.database is required when storage.type is %q", StorageTypeDatabase)}
		}
		var errs []error
		if db.Host == "" {
			errs = append(errs, fmt.Errorf("storage.database.host is required"))
		}
		if db.Port == 0 {
			errs = append(errs, fmt.Errorf("storage.database.port is required"))
		}
		if db.User == "" {
			errs = append(errs, fmt.Errorf("storage.database.user is required"))
		}
		if db.Database == "" {
			errs = append(errs, fmt.Errorf("storage.database.database is required"))
		}
		errs = append(errs, validateDurations(map[string]string{
			"storage.database.connMaxLifetime": db.ConnMaxLifetime,
		})...)
		return errs
	case StorageTypeSQLite:
		return nil
	default:
		return []error{fmt.Errorf("storage.type must be %q or %q, got %q",
			StorageTypeDatabase, StorageTypeSQLite, c.Storage.Type)}
	}
}

func validateDurations(fields map[string]string) []error {
	var errs []error
	for name, value := range fields {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q: %w", name, value, err))
			continue
		}
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	return errs
}

// durationOr parses value, returning def when it is empty or invalid
func durationOr(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return def
	}
	return d
}

func intOr(value, def int) int {
	if value <= 0 {
		return def
	}
	return value
}
