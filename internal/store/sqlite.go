package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	// Registers the sqlite3 database/sql driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/einvoice-sync/lhdn-sync-server/internal/documents"
)

//go:embed sqlite_schema.sql
var sqliteSchema string

// SQLiteStore implements Store on a single SQLite database file.
// Timestamps are stored as UTC unix nanoseconds and amounts as decimal text.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the SQLite database at path and applies the schema
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create directory for sqlite database: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func nanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func nullNanos(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: nanos(*t), Valid: true}
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func fromNullNanos(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromNanos(n.Int64)
	return &t
}

const sqliteUpsertDocument = `
INSERT INTO documents (
    uuid, submission_uid, long_id, internal_id, type_name, type_version_name,
    issuer_tin, issuer_name, receiver_id, receiver_name, receiver_registration_no, receiver_address,
    total_sales, total_excluding_tax, total_discount, total_net_amount, total_payable_amount,
    date_time_issued, date_time_received, date_time_validated, status, raw,
    last_sync_date, sync_status, fetched_at, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (uuid) DO UPDATE SET
    submission_uid = excluded.submission_uid,
    long_id = excluded.long_id,
    internal_id = excluded.internal_id,
    type_name = excluded.type_name,
    type_version_name = excluded.type_version_name,
    issuer_tin = excluded.issuer_tin,
    issuer_name = excluded.issuer_name,
    receiver_id = excluded.receiver_id,
    receiver_name = excluded.receiver_name,
    receiver_registration_no = excluded.receiver_registration_no,
    receiver_address = excluded.receiver_address,
    total_sales = excluded.total_sales,
    total_excluding_tax = excluded.total_excluding_tax,
    total_discount = excluded.total_discount,
    total_net_amount = excluded.total_net_amount,
    total_payable_amount = excluded.total_payable_amount,
    date_time_issued = excluded.date_time_issued,
    date_time_received = excluded.date_time_received,
    date_time_validated = excluded.date_time_validated,
    status = excluded.status,
    raw = excluded.raw,
    last_sync_date = excluded.last_sync_date,
    sync_status = excluded.sync_status,
    fetched_at = excluded.fetched_at,
    updated_at = excluded.updated_at
WHERE documents.fetched_at <= excluded.fetched_at`

// UpsertDocument implements Store.UpsertDocument
func (s *SQLiteStore) UpsertDocument(ctx context.Context, rec *documents.Record, fetchedAt time.Time) (bool, error) {
	var raw sql.NullString
	if len(rec.Raw) > 0 {
		raw = sql.NullString{String: string(rec.Raw), Valid: true}
	}
	now := nanos(time.Now())

	res, err := s.db.ExecContext(ctx, sqliteUpsertDocument,
		rec.UUID, rec.SubmissionUID, rec.LongID, rec.InternalID, rec.TypeName, rec.TypeVersionName,
		rec.IssuerTIN, rec.IssuerName, rec.ReceiverID, rec.ReceiverName, rec.ReceiverRegistrationNo, rec.ReceiverAddress,
		rec.TotalSales.String(), rec.TotalExcludingTax.String(), rec.TotalDiscount.String(),
		rec.TotalNetAmount.String(), rec.TotalPayableAmount.String(),
		nullNanos(rec.DateTimeIssued), nullNanos(rec.DateTimeReceived), nullNanos(rec.DateTimeValidated),
		string(rec.Status), raw,
		nanos(fetchedAt), documents.SyncStatusSynced, nanos(fetchedAt), now, now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert document %s: %w", rec.UUID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows > 0, nil
}

const sqliteDocumentColumns = `uuid, submission_uid, long_id, internal_id, type_name, type_version_name,
    issuer_tin, issuer_name, receiver_id, receiver_name, receiver_registration_no, receiver_address,
    total_sales, total_excluding_tax, total_discount, total_net_amount, total_payable_amount,
    date_time_issued, date_time_received, date_time_validated, status, raw,
    last_sync_date, sync_status`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*documents.Record, error) {
	var (
		rec                         documents.Record
		status                      string
		raw                         sql.NullString
		issued, received, validated sql.NullInt64
		lastSync                    int64
	)
	if err := row.Scan(
		&rec.UUID, &rec.SubmissionUID, &rec.LongID, &rec.InternalID, &rec.TypeName, &rec.TypeVersionName,
		&rec.IssuerTIN, &rec.IssuerName, &rec.ReceiverID, &rec.ReceiverName, &rec.ReceiverRegistrationNo, &rec.ReceiverAddress,
		&rec.TotalSales, &rec.TotalExcludingTax, &rec.TotalDiscount, &rec.TotalNetAmount, &rec.TotalPayableAmount,
		&issued, &received, &validated, &status, &raw,
		&lastSync, &rec.SyncStatus,
	); err != nil {
		return nil, err
	}

	rec.DateTimeIssued = fromNullNanos(issued)
	rec.DateTimeReceived = fromNullNanos(received)
	rec.DateTimeValidated = fromNullNanos(validated)
	rec.Status = documents.Status(status)
	last := fromNanos(lastSync)
	rec.LastSyncDate = &last
	if raw.Valid {
		rec.Raw = json.RawMessage(raw.String)
	}
	return &rec, nil
}

// GetDocument implements Store.GetDocument
func (s *SQLiteStore) GetDocument(ctx context.Context, uuid string) (*documents.Record, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sqliteDocumentColumns+" FROM documents WHERE uuid = ?", uuid)
	rec, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document %s: %w", uuid, err)
	}
	return rec, nil
}

// ListDocuments implements Store.ListDocuments
func (s *SQLiteStore) ListDocuments(ctx context.Context, limit int) ([]*documents.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sqliteDocumentColumns+` FROM documents
		ORDER BY date_time_validated IS NULL, date_time_validated DESC, uuid
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	records := make([]*documents.Record, 0)
	for rows.Next() {
		rec, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return records, nil
}

// GetSubmission implements Store.GetSubmission
func (s *SQLiteStore) GetSubmission(ctx context.Context, uuid string) (*Submission, error) {
	var (
		sub       Submission
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT uuid, submission_uid, status, file_name, file_path, updated_at FROM submissions WHERE uuid = ?`,
		uuid,
	).Scan(&sub.UUID, &sub.SubmissionUID, &sub.Status, &sub.FileName, &sub.FilePath, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get submission %s: %w", uuid, err)
	}
	t := fromNanos(updatedAt)
	sub.UpdatedAt = &t
	return &sub, nil
}

// UpsertSubmission implements Store.UpsertSubmission
func (s *SQLiteStore) UpsertSubmission(ctx context.Context, sub *Submission) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (uuid, submission_uid, status, file_name, file_path, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (uuid) DO UPDATE SET
			submission_uid = excluded.submission_uid,
			status = excluded.status,
			file_name = excluded.file_name,
			file_path = excluded.file_path,
			updated_at = excluded.updated_at`,
		sub.UUID, sub.SubmissionUID, sub.Status, sub.FileName, sub.FilePath, nanos(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to upsert submission %s: %w", sub.UUID, err)
	}
	return nil
}

// MarkSubmissionFailed implements Store.MarkSubmissionFailed
func (s *SQLiteStore) MarkSubmissionFailed(ctx context.Context, uuid string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions SET status = ?, updated_at = ? WHERE uuid = ?`,
		SubmissionStatusFailed, nanos(time.Now()), uuid)
	if err != nil {
		return fmt.Errorf("failed to mark submission %s failed: %w", uuid, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetCompanyByTIN implements Store.GetCompanyByTIN
func (s *SQLiteStore) GetCompanyByTIN(ctx context.Context, tin string) (*Company, error) {
	var c Company
	err := s.db.QueryRowContext(ctx,
		`SELECT tin, name, registration_no FROM companies WHERE tin = ?`, tin,
	).Scan(&c.TIN, &c.Name, &c.RegistrationNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get company %s: %w", tin, err)
	}
	return &c, nil
}

// UpsertCompany implements Store.UpsertCompany
func (s *SQLiteStore) UpsertCompany(ctx context.Context, company *Company) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (tin, name, registration_no) VALUES (?, ?, ?)
		ON CONFLICT (tin) DO UPDATE SET name = excluded.name, registration_no = excluded.registration_no`,
		company.TIN, company.Name, company.RegistrationNo)
	if err != nil {
		return fmt.Errorf("failed to upsert company %s: %w", company.TIN, err)
	}
	return nil
}

// StartSyncRun implements Store.StartSyncRun
func (s *SQLiteStore) StartSyncRun(ctx context.Context, tenant string, startedAt time.Time) (*SyncRun, error) {
	run := newSyncRun(tenant, startedAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (id, tenant, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID.String(), run.Tenant, string(run.Status), nanos(run.StartedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert sync run: %w", err)
	}
	return run, nil
}

// FinishSyncRun implements Store.FinishSyncRun
func (s *SQLiteStore) FinishSyncRun(ctx context.Context, run *SyncRun) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sync_runs
		SET status = ?, finished_at = ?, records_fetched = ?, records_succeeded = ?,
		    records_failed = ?, error_reason = ?, error_message = ?
		WHERE id = ?`,
		string(run.Status), nullNanos(run.FinishedAt), run.RecordsFetched, run.RecordsSucceeded,
		run.RecordsFailed, run.ErrorReason, run.ErrorMessage, run.ID.String())
	if err != nil {
		return fmt.Errorf("failed to finish sync run %s: %w", run.ID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// LastCompletedSync implements Store.LastCompletedSync
func (s *SQLiteStore) LastCompletedSync(ctx context.Context, tenant string) (*SyncRun, error) {
	var (
		run        SyncRun
		id, status string
		startedAt  int64
		finishedAt sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant, status, started_at, finished_at, records_fetched, records_succeeded,
		       records_failed, error_reason, error_message
		FROM sync_runs
		WHERE tenant = ? AND status = 'completed'
		ORDER BY finished_at DESC
		LIMIT 1`, tenant,
	).Scan(&id, &run.Tenant, &status, &startedAt, &finishedAt, &run.RecordsFetched,
		&run.RecordsSucceeded, &run.RecordsFailed, &run.ErrorReason, &run.ErrorMessage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get last completed sync run: %w", err)
	}

	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid sync run id %q: %w", id, err)
	}
	run.Status = SyncRunStatus(status)
	run.StartedAt = fromNanos(startedAt)
	run.FinishedAt = fromNullNanos(finishedAt)
	return &run, nil
}

// AppendLog implements Store.AppendLog
func (s *SQLiteStore) AppendLog(ctx context.Context, entry *LogEntry) error {
	prepareLogEntry(entry)

	var details sql.NullString
	if len(entry.Details) > 0 {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal log details: %w", err)
		}
		details = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO logs (id, tenant, level, operation, message, details, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID.String(), entry.Tenant, entry.Level, entry.Operation, entry.Message, details, nanos(entry.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to append log entry: %w", err)
	}
	return nil
}

// ListLogs implements Store.ListLogs
func (s *SQLiteStore) ListLogs(ctx context.Context, tenant string, limit int) ([]*LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant, level, operation, message, details, created_at
		FROM logs
		WHERE tenant = ?
		ORDER BY created_at DESC
		LIMIT ?`, tenant, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list log entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*LogEntry, 0)
	for rows.Next() {
		var (
			entry     LogEntry
			id        string
			details   sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&id, &entry.Tenant, &entry.Level, &entry.Operation, &entry.Message, &details, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		if entry.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid log entry id %q: %w", id, err)
		}
		entry.CreatedAt = fromNanos(createdAt)
		if details.Valid {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("failed to decode details of log entry %s: %w", id, err)
			}
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list log entries: %w", err)
	}
	return entries, nil
}

// Ping implements Store.Ping
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return nil
}

// Close implements Store.Close
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
