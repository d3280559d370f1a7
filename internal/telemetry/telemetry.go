package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry owns the tracer and meter providers and their lifecycle
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures New
type Option func(*telemetryConfig)

type telemetryConfig struct {
	config  *Config
	version string
}

// WithTelemetryConfig sets the telemetry configuration
func WithTelemetryConfig(cfg *Config) Option {
	return func(tc *telemetryConfig) {
		tc.config = cfg
	}
}

// WithVersion sets the service version used when the config does not name one
func WithVersion(version string) Option {
	return func(tc *telemetryConfig) {
		tc.version = version
	}
}

// New initializes telemetry. A nil or disabled configuration yields no-op providers.
// The caller is responsible for calling Shutdown.
func New(ctx context.Context, opts ...Option) (*Telemetry, error) {
	tc := &telemetryConfig{}
	for _, opt := range opts {
		opt(tc)
	}

	if tc.config == nil || !tc.config.Enabled {
		slog.Debug("Telemetry disabled")
		return &Telemetry{
			tracerProvider: mustNoop(NewTracerProvider(ctx)),
			meterProvider:  mustNoop(NewMeterProvider(ctx)),
		}, nil
	}

	if err := tc.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}

	version := tc.config.ServiceVersion
	if version == "" && tc.version != "" {
		version = tc.version
	}
	if version == "" {
		version = tc.config.GetServiceVersion()
	}

	common := []ProviderOption{
		WithServiceName(tc.config.GetServiceName()),
		WithServiceVersion(version),
		WithEndpoint(tc.config.GetEndpoint()),
		WithInsecure(tc.config.Insecure),
	}

	slog.Info("Initializing telemetry",
		"service_name", tc.config.GetServiceName(),
		"service_version", version,
	)

	tracerProvider, err := NewTracerProvider(ctx, append(common, WithTracingConfig(tc.config.Tracing))...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer provider: %w", err)
	}

	meterProvider, err := NewMeterProvider(ctx, append(common, WithMetricsConfig(tc.config.Metrics))...)
	if err != nil {
		if tp, ok := tracerProvider.(*sdktrace.TracerProvider); ok {
			_ = tp.Shutdown(ctx)
		}
		return nil, fmt.Errorf("failed to create meter provider: %w", err)
	}

	return &Telemetry{
		tracerProvider: tracerProvider,
		meterProvider:  meterProvider,
	}, nil
}

// mustNoop unwraps provider constructors called without configuration,
// which only build no-op providers and cannot fail.
func mustNoop[T any](p T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("no-op telemetry provider: %v", err))
	}
	return p
}

// TracerProvider returns the configured tracer provider
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// MeterProvider returns the configured meter provider
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// Tracer returns a named tracer from the tracer provider
func (t *Telemetry) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return t.tracerProvider.Tracer(name, opts...)
}

// Shutdown flushes and stops the SDK providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if tp, ok := t.tracerProvider.(*sdktrace.TracerProvider); ok {
		if err := tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		}
	}

	if mp, ok := t.meterProvider.(*sdkmetric.MeterProvider); ok {
		if err := mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("Telemetry shutdown complete")
	return nil
}
