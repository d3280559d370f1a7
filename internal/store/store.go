// Package store provides durable storage for synchronized documents, the
// submissions and companies they relate to, sync run bookkeeping and the
// operational log.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/einvoice-sync/lhdn-sync-server/internal/documents"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// SubmissionStatusFailed is written by MarkSubmissionFailed
const SubmissionStatusFailed = "Failed"

// Submission is a locally tracked submission, owned by the submission workflow
type Submission struct {
	UUID          string
	SubmissionUID string
	Status        string
	FileName      string
	FilePath      string
	UpdatedAt     *time.Time
}

// Company is a company profile keyed by tax identification number
type Company struct {
	TIN            string
	Name           string
	RegistrationNo string
}

// SyncRunStatus is the lifecycle state of a sync run
type SyncRunStatus string

// Sync run states
const (
	SyncRunInProgress SyncRunStatus = "in_progress"
	SyncRunCompleted  SyncRunStatus = "completed"
	SyncRunFailed     SyncRunStatus = "failed"
)

// SyncRun records one live synchronization attempt for a tenant
type SyncRun struct {
	ID               uuid.UUID
	Tenant           string
	Status           SyncRunStatus
	StartedAt        time.Time
	FinishedAt       *time.Time
	RecordsFetched   int
	RecordsSucceeded int
	RecordsFailed    int
	ErrorReason      string
	ErrorMessage     string
}

// Log levels written to the operational log
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// LogEntry is one append-only operational log row
type LogEntry struct {
	ID        uuid.UUID
	Tenant    string
	Level     string
	Operation string
	Message   string
	Details   map[string]any
	CreatedAt time.Time
}

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store

// Store is the durable storage used by the sync engine and the query surface
type Store interface {
	// UpsertDocument inserts or replaces the document keyed by its UUID.
	// The write only applies when fetchedAt is not older than the stored row's;
	// applied reports whether a row was written.
	UpsertDocument(ctx context.Context, rec *documents.Record, fetchedAt time.Time) (applied bool, err error)

	// GetDocument returns one document or ErrNotFound
	GetDocument(ctx context.Context, uuid string) (*documents.Record, error)

	// ListDocuments returns up to limit documents, most recently validated first
	ListDocuments(ctx context.Context, limit int) ([]*documents.Record, error)

	// GetSubmission returns the submission tracked for a document UUID or ErrNotFound
	GetSubmission(ctx context.Context, uuid string) (*Submission, error)

	// UpsertSubmission inserts or replaces a submission row
	UpsertSubmission(ctx context.Context, sub *Submission) error

	// MarkSubmissionFailed sets the submission status to Failed. Returns ErrNotFound
	// when no submission is tracked for the UUID.
	MarkSubmissionFailed(ctx context.Context, uuid string) error

	// GetCompanyByTIN returns a company profile or ErrNotFound
	GetCompanyByTIN(ctx context.Context, tin string) (*Company, error)

	// UpsertCompany inserts or replaces a company profile
	UpsertCompany(ctx context.Context, company *Company) error

	// StartSyncRun records a new in-progress sync run
	StartSyncRun(ctx context.Context, tenant string, startedAt time.Time) (*SyncRun, error)

	// FinishSyncRun stores the terminal state and counters of a sync run
	FinishSyncRun(ctx context.Context, run *SyncRun) error

	// LastCompletedSync returns the most recently finished completed run or ErrNotFound
	LastCompletedSync(ctx context.Context, tenant string) (*SyncRun, error)

	// AppendLog appends an operational log entry
	AppendLog(ctx context.Context, entry *LogEntry) error

	// ListLogs returns up to limit log entries for the tenant, newest first
	ListLogs(ctx context.Context, tenant string, limit int) ([]*LogEntry, error)

	// Ping verifies the backing storage is reachable
	Ping(ctx context.Context) error

	// Close releases the backing storage
	Close() error
}

// newSyncRun builds the in-progress run both implementations insert
func newSyncRun(tenant string, startedAt time.Time) *SyncRun {
	return &SyncRun{
		ID:        uuid.New(),
		Tenant:    tenant,
		Status:    SyncRunInProgress,
		StartedAt: startedAt.UTC(),
	}
}

// prepareLogEntry fills in the ID and creation time when the caller left them empty
func prepareLogEntry(entry *LogEntry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	if entry.Level == "" {
		entry.Level = LevelInfo
	}
}
