package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/einvoice-sync/lhdn-sync-server/internal/api"
	"github.com/einvoice-sync/lhdn-sync-server/internal/app/storage"
	"github.com/einvoice-sync/lhdn-sync-server/internal/artifact"
	"github.com/einvoice-sync/lhdn-sync-server/internal/config"
	"github.com/einvoice-sync/lhdn-sync-server/internal/lhdn"
	"github.com/einvoice-sync/lhdn-sync-server/internal/lock"
	"github.com/einvoice-sync/lhdn-sync-server/internal/service"
	"github.com/einvoice-sync/lhdn-sync-server/internal/store"
	docsync "github.com/einvoice-sync/lhdn-sync-server/internal/sync"
	"github.com/einvoice-sync/lhdn-sync-server/internal/sync/coordinator"
	"github.com/einvoice-sync/lhdn-sync-server/internal/sync/freshness"
	"github.com/einvoice-sync/lhdn-sync-server/internal/sync/writer"
	"github.com/einvoice-sync/lhdn-sync-server/internal/telemetry"
)

const (
	defaultHTTPAddress = ":8080"
	defaultReadTimeout = 10 * time.Second
	defaultIdleTimeout = 60 * time.Second
	// A forced refresh runs a full live sync inside the request
	defaultRequestTimeout = 5 * time.Minute
	defaultWriteTimeout   = defaultRequestTimeout + 15*time.Second
)

// tracerName is the instrumentation scope of every span the app creates
const tracerName = "github.com/einvoice-sync/lhdn-sync-server"

// SyncAppOptions is a function that configures the sync app builder
type SyncAppOptions func(*syncAppConfig) error

// syncAppConfig holds the builder state.
// It supports dependency injection for testing while providing sensible defaults for production.
type syncAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	storageFactory storage.Factory
	pageFetcher    docsync.PageFetcher
	locker         lock.Locker
	artifactSink   artifact.Sink

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider

	// closers run in reverse order when the app is released
	closers []func() error
}

func baseConfig(opts ...SyncAppOptions) (*syncAppConfig, error) {
	cfg := &syncAppConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return cfg, nil
}

// NewSyncApp wires configuration, storage, the LHDN client and the sync engine into a SyncApp
func NewSyncApp(ctx context.Context, opts ...SyncAppOptions) (*SyncApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	// Create storage factory (single decision point for PostgreSQL vs SQLite)
	if cfg.storageFactory == nil {
		var storageOpts []storage.Option
		if cfg.tracerProvider != nil {
			storageOpts = append(storageOpts, storage.WithTracer(cfg.tracerProvider.Tracer(tracerName)))
		}
		cfg.storageFactory, err = storage.NewStorageFactory(ctx, cfg.config, storageOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
	}
	cfg.closers = append(cfg.closers, func() error {
		cfg.storageFactory.Cleanup()
		return nil
	})

	// Ensure cleanup happens on error
	cleanupNeeded := true
	defer func() {
		if cleanupNeeded {
			cfg.release()
		}
	}()

	st, err := cfg.storageFactory.CreateStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	syncer, err := buildSyncComponents(ctx, cfg, st)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	svc, err := buildServiceComponents(cfg, syncer, st)
	if err != nil {
		return nil, fmt.Errorf("failed to build service components: %w", err)
	}

	httpServer, err := buildHTTPServer(cfg, svc)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	var syncCoordinator coordinator.Coordinator
	if interval := cfg.config.Sync.GetInterval(); interval > 0 {
		syncCoordinator = coordinator.New(syncer, interval)
	}

	appCtx, cancel := context.WithCancel(ctx)

	// Cleanup is now handled by the app, not in defer
	cleanupNeeded = false

	var once sync.Once
	cancelFunc := func() {
		once.Do(func() {
			cancel()
			cfg.release()
		})
	}

	return &SyncApp{
		config: cfg.config,
		components: &AppComponents{
			SyncCoordinator: syncCoordinator,
			Syncer:          syncer,
			DocumentService: svc,
			Store:           st,
		},
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancelFunc,
	}, nil
}

// release runs the registered closers in reverse order
func (b *syncAppConfig) release() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			slog.Error("Failed to release resource", "error", err)
		}
	}
	b.closers = nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithStorageFactory allows injecting a custom storage factory (for testing)
func WithStorageFactory(f storage.Factory) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithPageFetcher allows injecting a custom LHDN page fetcher (for testing)
func WithPageFetcher(f docsync.PageFetcher) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.pageFetcher = f
		return nil
	}
}

// WithLocker allows injecting a custom sync lease (for testing)
func WithLocker(l lock.Locker) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.locker = l
		return nil
	}
}

// WithArtifactSink allows injecting a custom artifact sink (for testing)
func WithArtifactSink(s artifact.Sink) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.artifactSink = s
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for sync and HTTP metrics
func WithMeterProvider(mp metric.MeterProvider) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider
func WithTracerProvider(tp trace.TracerProvider) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

func (b *syncAppConfig) tracer() trace.Tracer {
	if b.tracerProvider == nil {
		return nil
	}
	return b.tracerProvider.Tracer(tracerName)
}

// buildSyncComponents builds the fetch orchestrator, the reconciliation writer and the
// freshness coordinator that ties them together
func buildSyncComponents(ctx context.Context, b *syncAppConfig, st store.Store) (*freshness.Coordinator, error) {
	slog.Info("Initializing sync components")

	cfg := b.config
	tracer := b.tracer()

	var syncMetrics *telemetry.SyncMetrics
	if b.meterProvider != nil {
		var err error
		syncMetrics, err = telemetry.NewSyncMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create sync metrics: %w", err)
		}
		slog.Info("Sync metrics enabled")
	}

	if b.pageFetcher == nil {
		client, err := lhdn.NewClient(
			cfg.LHDN.GetBaseURL(),
			lhdn.NewSecretTokenSource(cfg.LHDN.GetAccessToken),
			lhdn.WithTimeout(cfg.LHDN.GetTimeout()),
			lhdn.WithRetry(cfg.LHDN.GetMaxRetries(), cfg.LHDN.GetBaseDelay(), cfg.LHDN.GetMaxDelay()),
			lhdn.WithRateLimitBuffer(cfg.LHDN.GetRateLimitBuffer()),
			lhdn.WithMaxRateLimitWaits(cfg.LHDN.GetMaxRateLimitWaits()),
			lhdn.WithTracer(tracer),
			lhdn.WithMetrics(syncMetrics),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create LHDN client: %w", err)
		}
		b.pageFetcher = client
		slog.Info("LHDN client configured", "environment", cfg.LHDN.Environment, "base_url", cfg.LHDN.GetBaseURL())
	}

	orchestrator := docsync.NewOrchestrator(b.pageFetcher,
		docsync.WithPageSize(cfg.Sync.GetPageSize()),
		docsync.WithMaxConsecutiveFailures(cfg.Sync.GetMaxConsecutiveFailures()),
		docsync.WithMaxPages(cfg.Sync.MaxPages),
		docsync.WithPageDelay(cfg.Sync.GetPageDelay()),
		docsync.WithFailureDelay(cfg.Sync.GetFailureDelay()),
		docsync.WithOrchestratorTracer(tracer),
		docsync.WithOrchestratorMetrics(syncMetrics),
	)

	writerOpts := []writer.Option{
		writer.WithChunkSize(cfg.Sync.GetChunkSize()),
		writer.WithTenant(cfg.GetTenant()),
		writer.WithMetrics(syncMetrics),
		writer.WithTracer(tracer),
	}
	generator, err := buildArtifactGenerator(ctx, b, st)
	if err != nil {
		return nil, err
	}
	if generator != nil {
		writerOpts = append(writerOpts, writer.WithArtifactGenerator(generator))
	}
	reconciler := writer.New(st, writerOpts...)

	if b.locker == nil {
		locker, closeLock, err := lock.New(ctx, cfg.Lock)
		if err != nil {
			return nil, fmt.Errorf("failed to create sync lock: %w", err)
		}
		b.locker = locker
		b.closers = append(b.closers, closeLock)
	}

	syncer := freshness.New(st, orchestrator, reconciler,
		freshness.WithTenant(cfg.GetTenant()),
		freshness.WithThreshold(cfg.Sync.GetFreshnessThreshold()),
		freshness.WithSyncTimeout(cfg.Sync.GetTimeout()),
		freshness.WithListLimit(cfg.Sync.GetListLimit()),
		freshness.WithLocker(b.locker),
		freshness.WithLockTTL(cfg.Lock.GetTTL()),
		freshness.WithMetrics(syncMetrics),
		freshness.WithTracer(tracer),
	)

	slog.Info("Sync components initialized successfully", "tenant", cfg.GetTenant())
	return syncer, nil
}

// buildArtifactGenerator returns nil when artifact generation is disabled
func buildArtifactGenerator(ctx context.Context, b *syncAppConfig, st store.Store) (*artifact.Generator, error) {
	cfg := b.config.Artifacts
	if cfg.Disabled {
		slog.Info("Artifact generation disabled")
		return nil, nil
	}

	if b.artifactSink == nil {
		sink, closeSink, err := artifact.NewSink(ctx, &cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create artifact sink: %w", err)
		}
		b.artifactSink = sink
		b.closers = append(b.closers, closeSink)
	}

	return artifact.NewGenerator(b.artifactSink, cfg.BasePath, st,
		artifact.WithMaxPathLength(cfg.GetMaxPathLength()),
		artifact.WithPortalURL(b.config.LHDN.GetPortalURL()),
	), nil
}

// buildServiceComponents builds the document service
func buildServiceComponents(b *syncAppConfig, syncer *freshness.Coordinator, st store.Store) (service.DocumentService, error) {
	slog.Info("Initializing service components")

	opts := []service.ConfigOption{service.WithTracer(b.tracer())}
	if b.meterProvider != nil {
		documentMetrics, err := telemetry.NewDocumentMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create document metrics: %w", err)
		}
		opts = append(opts, service.WithDocumentMetrics(documentMetrics))
	}

	return service.New(syncer, st, opts...), nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(b *syncAppConfig, svc service.DocumentService) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Metrics and tracing go first to capture every request
	var outer []func(http.Handler) http.Handler
	if b.meterProvider != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		outer = append(outer, metricsMiddleware)
		slog.Info("HTTP metrics middleware enabled")
	}
	if b.tracerProvider != nil {
		outer = append(outer, telemetry.TracingMiddleware(b.tracerProvider))
	}
	b.middlewares = append(outer, b.middlewares...)

	router := api.NewServer(svc, api.WithMiddlewares(b.middlewares...))

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
