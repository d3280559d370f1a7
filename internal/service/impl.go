package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/einvoice-sync/lhdn-sync-server/internal/documents"
	"github.com/einvoice-sync/lhdn-sync-server/internal/otel"
	"github.com/einvoice-sync/lhdn-sync-server/internal/store"
	docsync "github.com/einvoice-sync/lhdn-sync-server/internal/sync"
	"github.com/einvoice-sync/lhdn-sync-server/internal/sync/freshness"
	"github.com/einvoice-sync/lhdn-sync-server/internal/telemetry"
)

// DocumentSyncer serves the tenant's documents, syncing live when needed
type DocumentSyncer interface {
	GetDocuments(ctx context.Context, forceRefresh bool) (*freshness.Result, error)
	Tenant() string
}

// ConfigOption configures the document service
type ConfigOption func(*documentService)

// WithDocumentMetrics sets the metrics recorder
func WithDocumentMetrics(m *telemetry.DocumentMetrics) ConfigOption {
	return func(s *documentService) {
		s.metrics = m
	}
}

// WithTracer sets the OpenTelemetry tracer
func WithTracer(tracer trace.Tracer) ConfigOption {
	return func(s *documentService) {
		s.tracer = tracer
	}
}

type documentService struct {
	syncer  DocumentSyncer
	store   store.Store
	metrics *telemetry.DocumentMetrics
	tracer  trace.Tracer
}

var _ DocumentService = (*documentService)(nil)

// New creates a DocumentService
func New(syncer DocumentSyncer, st store.Store, opts ...ConfigOption) DocumentService {
	s := &documentService{syncer: syncer, store: st}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckReadiness implements DocumentService.CheckReadiness
func (s *documentService) CheckReadiness(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("storage not reachable: %w", err)
	}
	return nil
}

// RecentDocuments implements DocumentService.RecentDocuments
func (s *documentService) RecentDocuments(
	ctx context.Context, opts ...Option[RecentDocumentsOptions],
) (*DocumentsResult, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "service.RecentDocuments")
	defer span.End()

	options := &RecentDocumentsOptions{Limit: DefaultLimit}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	res, err := s.syncer.GetDocuments(ctx, options.Refresh)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	docs := res.Records
	if len(docs) > options.Limit {
		docs = docs[:options.Limit]
	}
	if docs == nil {
		docs = []*documents.Record{}
	}

	out := &DocumentsResult{
		Documents: docs,
		Source:    string(res.Source),
		SyncedAt:  res.SyncedAt,
	}
	if res.Source == freshness.SourceFallback && res.Err != nil {
		out.Stale = true
		out.Warning = res.Err.Error()
		out.Reason = docsync.ReasonFor(res.Err)
	}

	span.SetAttributes(
		otel.AttrSource.String(out.Source),
		otel.AttrResultCount.Int(len(docs)),
	)
	s.metrics.RecordDocumentsServed(ctx, s.syncer.Tenant(), out.Source, int64(len(docs)))

	return out, nil
}

// GetDocument implements DocumentService.GetDocument
func (s *documentService) GetDocument(ctx context.Context, uuid string) (*documents.Record, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "service.GetDocument",
		trace.WithAttributes(otel.AttrDocumentUUID.String(uuid)),
	)
	defer span.End()

	rec, err := s.store.GetDocument(ctx, uuid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, uuid)
		}
		otel.RecordError(span, err)
		return nil, err
	}
	return rec, nil
}

// Sync implements DocumentService.Sync. A live sync that fell back to storage
// is reported as an unsuccessful summary rather than an error.
func (s *documentService) Sync(ctx context.Context) (*SyncSummary, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "service.Sync")
	defer span.End()

	res, err := s.syncer.GetDocuments(ctx, true)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	summary := &SyncSummary{
		Success:  res.Source != freshness.SourceFallback,
		Source:   string(res.Source),
		Fetched:  len(res.Records),
		SyncedAt: res.SyncedAt,
	}
	if res.Err != nil {
		summary.Error = res.Err.Error()
		summary.Reason = docsync.ReasonFor(res.Err)
		slog.Warn("Forced sync fell back to storage", "reason", summary.Reason, "error", res.Err)
	}
	if rec := res.Reconcile; rec != nil {
		summary.Succeeded = rec.SuccessCount
		summary.Failed = rec.ErrorCount
		summary.Skipped = rec.Stale
		summary.Artifacts = make(map[string]int)
		for _, a := range rec.Artifacts {
			summary.Artifacts[string(a.Status)]++
		}
		if summary.Fetched > 0 && summary.Failed == summary.Fetched {
			summary.Success = false
			summary.Reason = docsync.ReasonStorageFailed
			summary.Error = fmt.Sprintf("all %d fetched documents failed to persist", summary.Fetched)
			slog.Warn("Forced sync persisted no documents", "fetched", summary.Fetched)
		}
	}

	return summary, nil
}

// RecentLogs implements DocumentService.RecentLogs
func (s *documentService) RecentLogs(ctx context.Context, opts ...Option[RecentLogsOptions]) ([]*store.LogEntry, error) {
	options := &RecentLogsOptions{Limit: DefaultLogs}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	entries, err := s.store.ListLogs(ctx, s.syncer.Tenant(), options.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	return entries, nil
}
