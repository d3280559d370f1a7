package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// newCollector accepts OTLP exports and returns its host:port
func newCollector(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return strings.TrimPrefix(server.URL, "http://")
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		config           *Config
		expectNoOpTracer bool
		expectNoOpMeter  bool
		errorContains    string
	}{
		{
			name:             "no config",
			expectNoOpTracer: true,
			expectNoOpMeter:  true,
		},
		{
			name:             "disabled",
			config:           &Config{Enabled: false, Tracing: &TracingConfig{Enabled: true}},
			expectNoOpTracer: true,
			expectNoOpMeter:  true,
		},
		{
			name: "both signals disabled",
			config: &Config{
				Enabled: true,
				Tracing: &TracingConfig{Enabled: false},
				Metrics: &MetricsConfig{Enabled: false},
			},
			expectNoOpTracer: true,
			expectNoOpMeter:  true,
		},
		{
			name: "tracing only",
			config: &Config{
				Enabled:  true,
				Insecure: true,
				Tracing:  &TracingConfig{Enabled: true, Sampling: 1},
			},
			expectNoOpMeter: true,
		},
		{
			name: "metrics only",
			config: &Config{
				Enabled:  true,
				Insecure: true,
				Metrics:  &MetricsConfig{Enabled: true},
			},
			expectNoOpTracer: true,
		},
		{
			name: "invalid sampling",
			config: &Config{
				Enabled: true,
				Tracing: &TracingConfig{Enabled: true, Sampling: 1.5},
			},
			errorContains: "invalid telemetry configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			cfg := tt.config
			if cfg != nil && cfg.Enabled {
				cfg.Endpoint = newCollector(t)
			}

			tel, err := New(ctx, WithTelemetryConfig(cfg), WithVersion("v0.0.1-test"))
			if tt.errorContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)

			_, noopTracer := tel.TracerProvider().(tracenoop.TracerProvider)
			_, sdkTracer := tel.TracerProvider().(*sdktrace.TracerProvider)
			assert.Equal(t, tt.expectNoOpTracer, noopTracer)
			assert.Equal(t, !tt.expectNoOpTracer, sdkTracer)

			_, noopMeter := tel.MeterProvider().(metricnoop.MeterProvider)
			_, sdkMeter := tel.MeterProvider().(*sdkmetric.MeterProvider)
			assert.Equal(t, tt.expectNoOpMeter, noopMeter)
			assert.Equal(t, !tt.expectNoOpMeter, sdkMeter)

			assert.NotNil(t, tel.Tracer("test"))
			require.NoError(t, tel.Shutdown(ctx))
		})
	}
}

func TestNewProviders_Disabled(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tp, err := NewTracerProvider(ctx, WithTracingConfig(&TracingConfig{Enabled: false}))
	require.NoError(t, err)
	assert.IsType(t, tracenoop.TracerProvider{}, tp)

	mp, err := NewMeterProvider(ctx, WithMetricsConfig(nil))
	require.NoError(t, err)
	assert.IsType(t, metricnoop.MeterProvider{}, mp)
}

func TestNewProviderConfig(t *testing.T) {
	t.Parallel()

	cfg := newProviderConfig(nil)
	assert.Equal(t, DefaultServiceName, cfg.serviceName)
	assert.Equal(t, "unknown", cfg.serviceVersion)
	assert.Equal(t, DefaultEndpoint, cfg.endpoint)
	assert.Equal(t, DefaultMetricsInterval, cfg.metricsInterval)

	cfg = newProviderConfig([]ProviderOption{
		WithServiceName("svc"),
		WithServiceVersion("v2"),
		WithEndpoint("collector:4318"),
		WithInsecure(true),
		WithMetricsInterval(0),
	})
	assert.Equal(t, "svc", cfg.serviceName)
	assert.Equal(t, "v2", cfg.serviceVersion)
	assert.Equal(t, "collector:4318", cfg.endpoint)
	assert.True(t, cfg.insecure)
	assert.Equal(t, DefaultMetricsInterval, cfg.metricsInterval, "non-positive interval keeps the default")
}
