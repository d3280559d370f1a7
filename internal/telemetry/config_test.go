package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Getters(t *testing.T) {
	t.Parallel()

	empty := &Config{}
	assert.Equal(t, DefaultServiceName, empty.GetServiceName())
	assert.Equal(t, "unknown", empty.GetServiceVersion())
	assert.Equal(t, DefaultEndpoint, empty.GetEndpoint())

	set := &Config{ServiceName: "lhdn-sync-worker", ServiceVersion: "v1.2.3", Endpoint: "otel:4318"}
	assert.Equal(t, "lhdn-sync-worker", set.GetServiceName())
	assert.Equal(t, "v1.2.3", set.GetServiceVersion())
	assert.Equal(t, "otel:4318", set.GetEndpoint())
}

func TestTracingConfig_GetSampling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sampling float64
		expected float64
	}{
		{name: "unset uses default", sampling: 0, expected: DefaultSampling},
		{name: "explicit ratio", sampling: 0.25, expected: 0.25},
		{name: "sample everything", sampling: 1, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, (&TracingConfig{Sampling: tt.sampling}).GetSampling())
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{name: "nil config", config: nil},
		{name: "disabled config ignores contents", config: &Config{Tracing: &TracingConfig{Enabled: true, Sampling: 5}}},
		{
			name:   "valid tracing",
			config: &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: 0.5}},
		},
		{
			name:   "valid metrics only",
			config: &Config{Enabled: true, Metrics: &MetricsConfig{Enabled: true}},
		},
		{
			name:    "sampling above one",
			config:  &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: 1.5}},
			wantErr: "sampling must be between 0.0 and 1.0",
		},
		{
			name:    "negative sampling",
			config:  &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: -0.1}},
			wantErr: "tracing:",
		},
		{
			name:   "disabled tracing skips sampling check",
			config: &Config{Enabled: true, Tracing: &TracingConfig{Sampling: 3}},
		},
		{
			name:    "enabled without signals",
			config:  &Config{Enabled: true},
			wantErr: "at least one of tracing or metrics",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
