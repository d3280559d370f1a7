package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newManualProvider(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader, mp
}

// collect returns the named metric from the named scope
func collect(t *testing.T, reader *sdkmetric.ManualReader, scope, name string) metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != scope {
			continue
		}
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	t.Fatalf("metric %s not found in scope %s", name, scope)
	return metricdata.Metrics{}
}

func sumByAttr(t *testing.T, m metricdata.Metrics, key attribute.Key) map[string]int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", m.Data)
	out := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(key)
		out[v.Emit()] += dp.Value
	}
	return out
}

func TestNewMetrics_NilProvider(t *testing.T) {
	t.Parallel()

	dm, err := NewDocumentMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, dm)

	sm, err := NewSyncMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, sm)

	hm, err := NewHTTPMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, hm)
}

func TestMetrics_NilReceiversAreNoOps(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var dm *DocumentMetrics
	var sm *SyncMetrics
	assert.NotPanics(t, func() {
		dm.RecordDocumentsServed(ctx, "acme", "cache", 3)
		sm.RecordSyncDuration(ctx, "acme", "live", time.Second, true)
		sm.RecordPageFetched(ctx)
		sm.RecordRateLimitWait(ctx, time.Second)
		sm.RecordReconciled(ctx, "acme", 1, 1)
		sm.RecordArtifact(ctx, "generated")
	})
}

func TestDocumentMetrics_RecordDocumentsServed(t *testing.T) {
	t.Parallel()

	reader, mp := newManualProvider(t)
	dm, err := NewDocumentMetrics(mp)
	require.NoError(t, err)

	dm.RecordDocumentsServed(context.Background(), "acme", "fallback", 42)

	m := collect(t, reader, DocumentMetricsMeterName, "lhdn_sync_documents_served")
	gauge, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(42), gauge.DataPoints[0].Value)
	source, _ := gauge.DataPoints[0].Attributes.Value("source")
	assert.Equal(t, "fallback", source.AsString())
}

func TestSyncMetrics_RecordSyncDuration(t *testing.T) {
	t.Parallel()

	reader, mp := newManualProvider(t)
	sm, err := NewSyncMetrics(mp)
	require.NoError(t, err)

	ctx := context.Background()
	sm.RecordSyncDuration(ctx, "acme", "live", 3*time.Second, true)
	sm.RecordSyncDuration(ctx, "acme", "cache", 10*time.Millisecond, true)
	sm.RecordSyncDuration(ctx, "acme", "live", 90*time.Second, false)

	m := collect(t, reader, SyncMetricsMeterName, "lhdn_sync_duration_seconds")
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)

	var total uint64
	for _, dp := range hist.DataPoints {
		total += dp.Count
	}
	assert.Equal(t, uint64(3), total)
	assert.Len(t, hist.DataPoints, 3, "one series per source and success pair")
}

func TestSyncMetrics_Counters(t *testing.T) {
	t.Parallel()

	reader, mp := newManualProvider(t)
	sm, err := NewSyncMetrics(mp)
	require.NoError(t, err)

	ctx := context.Background()
	sm.RecordPageFetched(ctx)
	sm.RecordPageFetched(ctx)
	sm.RecordReconciled(ctx, "acme", 8, 2)
	sm.RecordArtifact(ctx, "generated")
	sm.RecordArtifact(ctx, "generated")
	sm.RecordArtifact(ctx, "exists")

	pages := collect(t, reader, SyncMetricsMeterName, "lhdn_sync_pages_fetched_total")
	pageSum, ok := pages.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, pageSum.DataPoints, 1)
	assert.Equal(t, int64(2), pageSum.DataPoints[0].Value)

	records := collect(t, reader, SyncMetricsMeterName, "lhdn_sync_records_reconciled_total")
	assert.Equal(t, map[string]int64{"success": 8, "error": 2}, sumByAttr(t, records, "result"))

	artifacts := collect(t, reader, SyncMetricsMeterName, "lhdn_sync_artifacts_total")
	assert.Equal(t, map[string]int64{"generated": 2, "exists": 1}, sumByAttr(t, artifacts, "status"))
}

func TestSyncMetrics_RecordRateLimitWait(t *testing.T) {
	t.Parallel()

	reader, mp := newManualProvider(t)
	sm, err := NewSyncMetrics(mp)
	require.NoError(t, err)

	sm.RecordRateLimitWait(context.Background(), 1500*time.Millisecond)

	m := collect(t, reader, SyncMetricsMeterName, "lhdn_sync_rate_limit_wait_seconds")
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.InDelta(t, 1.5, hist.DataPoints[0].Sum, 1e-9)
}
