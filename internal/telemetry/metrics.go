// Package telemetry provides OpenTelemetry instrumentation for the LHDN sync server.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// DocumentMetricsMeterName is the name used for the document store metrics meter
	DocumentMetricsMeterName = "github.com/einvoice-sync/lhdn-sync-server/documents"

	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/einvoice-sync/lhdn-sync-server/sync"
)

// DocumentMetrics holds the OpenTelemetry instruments for the document store
type DocumentMetrics struct {
	documentsServed metric.Int64Gauge
}

// NewDocumentMetrics creates a new DocumentMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewDocumentMetrics(provider metric.MeterProvider) (*DocumentMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(DocumentMetricsMeterName)

	documentsServed, err := meter.Int64Gauge(
		"lhdn_sync_documents_served",
		metric.WithDescription("Number of documents returned by the last recent-documents query"),
		metric.WithUnit("{document}"),
	)
	if err != nil {
		return nil, err
	}

	return &DocumentMetrics{
		documentsServed: documentsServed,
	}, nil
}

// RecordDocumentsServed records how many documents a query returned and from which source
func (m *DocumentMetrics) RecordDocumentsServed(ctx context.Context, tenant, source string, count int64) {
	if m == nil || m.documentsServed == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("tenant", tenant),
		attribute.String("source", source),
	}

	m.documentsServed.Record(ctx, count, metric.WithAttributes(attrs...))
}

// SyncMetrics holds the OpenTelemetry instruments for sync operation metrics
type SyncMetrics struct {
	syncDuration   metric.Float64Histogram
	pagesFetched   metric.Int64Counter
	rateLimitWaits metric.Float64Histogram
	records        metric.Int64Counter
	artifacts      metric.Int64Counter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"lhdn_sync_duration_seconds",
		metric.WithDescription("Duration of recent-document queries in seconds, by source"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	pagesFetched, err := meter.Int64Counter(
		"lhdn_sync_pages_fetched_total",
		metric.WithDescription("Number of document pages fetched from the LHDN API"),
		metric.WithUnit("{page}"),
	)
	if err != nil {
		return nil, err
	}

	rateLimitWaits, err := meter.Float64Histogram(
		"lhdn_sync_rate_limit_wait_seconds",
		metric.WithDescription("Time spent waiting for the LHDN rate-limit budget to reset"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 5, 10, 30, 60, 120),
	)
	if err != nil {
		return nil, err
	}

	records, err := meter.Int64Counter(
		"lhdn_sync_records_reconciled_total",
		metric.WithDescription("Number of records reconciled into the store, by result"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	artifacts, err := meter.Int64Counter(
		"lhdn_sync_artifacts_total",
		metric.WithDescription("Number of artifact generation outcomes, by status"),
		metric.WithUnit("{artifact}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration:   syncDuration,
		pagesFetched:   pagesFetched,
		rateLimitWaits: rateLimitWaits,
		records:        records,
		artifacts:      artifacts,
	}, nil
}

// RecordSyncDuration records the duration of a recent-documents query
func (m *SyncMetrics) RecordSyncDuration(ctx context.Context, tenant, source string, duration time.Duration, success bool) {
	if m == nil || m.syncDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("tenant", tenant),
		attribute.String("source", source),
		attribute.Bool("success", success),
	}

	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordPageFetched counts one successfully fetched page
func (m *SyncMetrics) RecordPageFetched(ctx context.Context) {
	if m == nil || m.pagesFetched == nil {
		return
	}
	m.pagesFetched.Add(ctx, 1)
}

// RecordRateLimitWait records a wait for the rate-limit budget
func (m *SyncMetrics) RecordRateLimitWait(ctx context.Context, wait time.Duration) {
	if m == nil || m.rateLimitWaits == nil {
		return
	}
	m.rateLimitWaits.Record(ctx, wait.Seconds())
}

// RecordReconciled records the outcome counts of one reconciliation
func (m *SyncMetrics) RecordReconciled(ctx context.Context, tenant string, success, failed int) {
	if m == nil || m.records == nil {
		return
	}

	m.records.Add(ctx, int64(success), metric.WithAttributes(
		attribute.String("tenant", tenant),
		attribute.String("result", "success"),
	))
	m.records.Add(ctx, int64(failed), metric.WithAttributes(
		attribute.String("tenant", tenant),
		attribute.String("result", "error"),
	))
}

// RecordArtifact counts one artifact generation outcome
func (m *SyncMetrics) RecordArtifact(ctx context.Context, status string) {
	if m == nil || m.artifacts == nil {
		return
	}
	m.artifacts.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
