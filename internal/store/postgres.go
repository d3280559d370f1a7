package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/einvoice-sync/lhdn-sync-server/internal/db/pgtypes"
	"github.com/einvoice-sync/lhdn-sync-server/internal/db/sqlc"
	"github.com/einvoice-sync/lhdn-sync-server/internal/documents"
	"github.com/einvoice-sync/lhdn-sync-server/internal/otel"
)

// PostgresTracerName is the name used for the PostgreSQL store tracer
const PostgresTracerName = "github.com/einvoice-sync/lhdn-sync-server/store/postgres"

// PostgresOption is a functional option for configuring the PostgreSQL store
type PostgresOption func(*PostgresStore)

// WithTracer sets the OpenTelemetry tracer for the store.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) PostgresOption {
	return func(s *PostgresStore) {
		s.tracer = tracer
	}
}

// PostgresStore implements Store on PostgreSQL through the generated sqlc queries
type PostgresStore struct {
	pool    *pgxpool.Pool
	queries *sqlc.Queries
	tracer  trace.Tracer
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a store on top of the given pool.
// The store takes ownership of the pool and closes it on Close.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}

	s := &PostgresStore{
		pool:    pool,
		queries: sqlc.New(pool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// startSpan prepends the db.system attribute to every store span
func (s *PostgresStore) startSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	opts = append([]trace.SpanStartOption{trace.WithAttributes(semconv.DBSystemPostgreSQL)}, opts...)
	return otel.StartSpan(ctx, s.tracer, name, opts...)
}

// UpsertDocument implements Store.UpsertDocument
func (s *PostgresStore) UpsertDocument(ctx context.Context, rec *documents.Record, fetchedAt time.Time) (bool, error) {
	ctx, span := s.startSpan(ctx, "PostgresStore.UpsertDocument",
		trace.WithAttributes(otel.AttrDocumentUUID.String(rec.UUID)))
	defer span.End()

	var raw []byte
	if len(rec.Raw) > 0 {
		raw = rec.Raw
	}

	rows, err := s.queries.UpsertDocument(ctx, sqlc.UpsertDocumentParams{
		Uuid:                   rec.UUID,
		SubmissionUid:          rec.SubmissionUID,
		LongID:                 rec.LongID,
		InternalID:             rec.InternalID,
		TypeName:               rec.TypeName,
		TypeVersionName:        rec.TypeVersionName,
		IssuerTin:              rec.IssuerTIN,
		IssuerName:             rec.IssuerName,
		ReceiverID:             rec.ReceiverID,
		ReceiverName:           rec.ReceiverName,
		ReceiverRegistrationNo: rec.ReceiverRegistrationNo,
		ReceiverAddress:        rec.ReceiverAddress,
		TotalSales:             rec.TotalSales,
		TotalExcludingTax:      rec.TotalExcludingTax,
		TotalDiscount:          rec.TotalDiscount,
		TotalNetAmount:         rec.TotalNetAmount,
		TotalPayableAmount:     rec.TotalPayableAmount,
		DateTimeIssued:         pgtypes.Timestamptz(rec.DateTimeIssued),
		DateTimeReceived:       pgtypes.Timestamptz(rec.DateTimeReceived),
		DateTimeValidated:      pgtypes.Timestamptz(rec.DateTimeValidated),
		Status:                 string(rec.Status),
		Raw:                    raw,
		LastSyncDate:           pgtypes.At(fetchedAt),
		SyncStatus:             documents.SyncStatusSynced,
		FetchedAt:              pgtypes.At(fetchedAt),
	})
	if err != nil {
		otel.RecordError(span, err)
		return false, fmt.Errorf("failed to upsert document %s: %w", rec.UUID, err)
	}
	return rows > 0, nil
}

// GetDocument implements Store.GetDocument
func (s *PostgresStore) GetDocument(ctx context.Context, uuid string) (*documents.Record, error) {
	ctx, span := s.startSpan(ctx, "PostgresStore.GetDocument",
		trace.WithAttributes(otel.AttrDocumentUUID.String(uuid)))
	defer span.End()

	row, err := s.queries.GetDocument(ctx, uuid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to get document %s: %w", uuid, err)
	}
	return documentFromRow(sqlc.ListDocumentsRow(row)), nil
}

// ListDocuments implements Store.ListDocuments
func (s *PostgresStore) ListDocuments(ctx context.Context, limit int) ([]*documents.Record, error) {
	ctx, span := s.startSpan(ctx, "PostgresStore.ListDocuments",
		trace.WithAttributes(otel.AttrPageSize.Int(limit)))
	defer span.End()

	rows, err := s.queries.ListDocuments(ctx, int32(limit)) //nolint:gosec // limit is bounded by configuration
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	records := make([]*documents.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, documentFromRow(row))
	}
	span.SetAttributes(otel.AttrResultCount.Int(len(records)))
	return records, nil
}

func documentFromRow(row sqlc.ListDocumentsRow) *documents.Record {
	return &documents.Record{
		UUID:                   row.Uuid,
		SubmissionUID:          row.SubmissionUid,
		LongID:                 row.LongID,
		InternalID:             row.InternalID,
		TypeName:               row.TypeName,
		TypeVersionName:        row.TypeVersionName,
		IssuerTIN:              row.IssuerTin,
		IssuerName:             row.IssuerName,
		ReceiverID:             row.ReceiverID,
		ReceiverName:           row.ReceiverName,
		ReceiverRegistrationNo: row.ReceiverRegistrationNo,
		ReceiverAddress:        row.ReceiverAddress,
		TotalSales:             row.TotalSales,
		TotalExcludingTax:      row.TotalExcludingTax,
		TotalDiscount:          row.TotalDiscount,
		TotalNetAmount:         row.TotalNetAmount,
		TotalPayableAmount:     row.TotalPayableAmount,
		DateTimeIssued:         pgtypes.TimePtr(row.DateTimeIssued),
		DateTimeReceived:       pgtypes.TimePtr(row.DateTimeReceived),
		DateTimeValidated:      pgtypes.TimePtr(row.DateTimeValidated),
		Status:                 documents.Status(row.Status),
		LastSyncDate:           pgtypes.TimePtr(row.LastSyncDate),
		SyncStatus:             row.SyncStatus,
		Raw:                    row.Raw,
	}
}

// GetSubmission implements Store.GetSubmission
func (s *PostgresStore) GetSubmission(ctx context.Context, uuid string) (*Submission, error) {
	row, err := s.queries.GetSubmission(ctx, uuid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get submission %s: %w", uuid, err)
	}
	return &Submission{
		UUID:          row.Uuid,
		SubmissionUID: row.SubmissionUid,
		Status:        row.Status,
		FileName:      row.FileName,
		FilePath:      row.FilePath,
		UpdatedAt:     pgtypes.TimePtr(row.UpdatedAt),
	}, nil
}

// UpsertSubmission implements Store.UpsertSubmission
func (s *PostgresStore) UpsertSubmission(ctx context.Context, sub *Submission) error {
	err := s.queries.UpsertSubmission(ctx, sqlc.UpsertSubmissionParams{
		Uuid:          sub.UUID,
		SubmissionUid: sub.SubmissionUID,
		Status:        sub.Status,
		FileName:      sub.FileName,
		FilePath:      sub.FilePath,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert submission %s: %w", sub.UUID, err)
	}
	return nil
}

// MarkSubmissionFailed implements Store.MarkSubmissionFailed
func (s *PostgresStore) MarkSubmissionFailed(ctx context.Context, uuid string) error {
	ctx, span := s.startSpan(ctx, "PostgresStore.MarkSubmissionFailed",
		trace.WithAttributes(otel.AttrDocumentUUID.String(uuid)))
	defer span.End()

	rows, err := s.queries.UpdateSubmissionStatus(ctx, sqlc.UpdateSubmissionStatusParams{
		Uuid:   uuid,
		Status: SubmissionStatusFailed,
	})
	if err != nil {
		otel.RecordError(span, err)
		return fmt.Errorf("failed to mark submission %s failed: %w", uuid, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetCompanyByTIN implements Store.GetCompanyByTIN
func (s *PostgresStore) GetCompanyByTIN(ctx context.Context, tin string) (*Company, error) {
	row, err := s.queries.GetCompanyByTIN(ctx, tin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get company %s: %w", tin, err)
	}
	return &Company{TIN: row.Tin, Name: row.Name, RegistrationNo: row.RegistrationNo}, nil
}

// UpsertCompany implements Store.UpsertCompany
func (s *PostgresStore) UpsertCompany(ctx context.Context, company *Company) error {
	err := s.queries.UpsertCompany(ctx, sqlc.UpsertCompanyParams{
		Tin:            company.TIN,
		Name:           company.Name,
		RegistrationNo: company.RegistrationNo,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert company %s: %w", company.TIN, err)
	}
	return nil
}

// StartSyncRun implements Store.StartSyncRun
func (s *PostgresStore) StartSyncRun(ctx context.Context, tenant string, startedAt time.Time) (*SyncRun, error) {
	run := newSyncRun(tenant, startedAt)
	err := s.queries.InsertSyncRun(ctx, sqlc.InsertSyncRunParams{
		ID:        run.ID,
		Tenant:    run.Tenant,
		Status:    sqlc.SyncRunStatus(run.Status),
		StartedAt: pgtypes.At(run.StartedAt),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert sync run: %w", err)
	}
	return run, nil
}

// FinishSyncRun implements Store.FinishSyncRun
func (s *PostgresStore) FinishSyncRun(ctx context.Context, run *SyncRun) error {
	rows, err := s.queries.FinishSyncRun(ctx, sqlc.FinishSyncRunParams{
		ID:               run.ID,
		Status:           sqlc.SyncRunStatus(run.Status),
		FinishedAt:       pgtypes.Timestamptz(run.FinishedAt),
		RecordsFetched:   int32(run.RecordsFetched),   //nolint:gosec // bounded by page limits
		RecordsSucceeded: int32(run.RecordsSucceeded), //nolint:gosec // bounded by page limits
		RecordsFailed:    int32(run.RecordsFailed),    //nolint:gosec // bounded by page limits
		ErrorReason:      run.ErrorReason,
		ErrorMessage:     run.ErrorMessage,
	})
	if err != nil {
		return fmt.Errorf("failed to finish sync run %s: %w", run.ID, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// LastCompletedSync implements Store.LastCompletedSync
func (s *PostgresStore) LastCompletedSync(ctx context.Context, tenant string) (*SyncRun, error) {
	row, err := s.queries.GetLastCompletedSyncRun(ctx, tenant)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get last completed sync run: %w", err)
	}
	startedAt := pgtypes.TimePtr(row.StartedAt)
	run := &SyncRun{
		ID:               row.ID,
		Tenant:           row.Tenant,
		Status:           SyncRunStatus(row.Status),
		FinishedAt:       pgtypes.TimePtr(row.FinishedAt),
		RecordsFetched:   int(row.RecordsFetched),
		RecordsSucceeded: int(row.RecordsSucceeded),
		RecordsFailed:    int(row.RecordsFailed),
		ErrorReason:      row.ErrorReason,
		ErrorMessage:     row.ErrorMessage,
	}
	if startedAt != nil {
		run.StartedAt = *startedAt
	}
	return run, nil
}

// AppendLog implements Store.AppendLog
func (s *PostgresStore) AppendLog(ctx context.Context, entry *LogEntry) error {
	prepareLogEntry(entry)

	var details []byte
	if len(entry.Details) > 0 {
		var err error
		if details, err = json.Marshal(entry.Details); err != nil {
			return fmt.Errorf("failed to marshal log details: %w", err)
		}
	}

	err := s.queries.InsertLogEntry(ctx, sqlc.InsertLogEntryParams{
		ID:        entry.ID,
		Tenant:    entry.Tenant,
		Level:     entry.Level,
		Operation: entry.Operation,
		Message:   entry.Message,
		Details:   details,
		CreatedAt: pgtypes.At(entry.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("failed to append log entry: %w", err)
	}
	return nil
}

// ListLogs implements Store.ListLogs
func (s *PostgresStore) ListLogs(ctx context.Context, tenant string, limit int) ([]*LogEntry, error) {
	rows, err := s.queries.ListLogEntries(ctx, sqlc.ListLogEntriesParams{
		Tenant: tenant,
		Limit:  int32(limit), //nolint:gosec // limit is bounded by configuration
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list log entries: %w", err)
	}

	entries := make([]*LogEntry, 0, len(rows))
	for _, row := range rows {
		entry := &LogEntry{
			ID:        row.ID,
			Tenant:    row.Tenant,
			Level:     row.Level,
			Operation: row.Operation,
			Message:   row.Message,
		}
		if t := pgtypes.TimePtr(row.CreatedAt); t != nil {
			entry.CreatedAt = *t
		}
		if len(row.Details) > 0 {
			if err := json.Unmarshal(row.Details, &entry.Details); err != nil {
				return nil, fmt.Errorf("failed to decode details of log entry %s: %w", row.ID, err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Ping implements Store.Ping
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Close implements Store.Close
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
