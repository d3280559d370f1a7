// Package service provides the business logic behind the document query API
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/einvoice-sync/lhdn-sync-server/internal/documents"
	"github.com/einvoice-sync/lhdn-sync-server/internal/store"
)

var (
	// ErrDocumentNotFound is returned when a document is not stored
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidArgument is returned when an option value is out of range
	ErrInvalidArgument = errors.New("invalid argument")
)

// Query limits
const (
	DefaultLimit = 1000
	MaxLimit     = 5000
	DefaultLogs  = 50
	MaxLogs      = 500
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go DocumentService

// DocumentService defines the operations exposed over HTTP
type DocumentService interface {
	// CheckReadiness checks if storage is reachable
	CheckReadiness(ctx context.Context) error

	// RecentDocuments returns recent documents, syncing live when storage is stale or refresh is requested
	RecentDocuments(ctx context.Context, opts ...Option[RecentDocumentsOptions]) (*DocumentsResult, error)

	// GetDocument returns one stored document
	GetDocument(ctx context.Context, uuid string) (*documents.Record, error)

	// Sync forces a live sync and summarizes the outcome
	Sync(ctx context.Context) (*SyncSummary, error)

	// RecentLogs returns the newest operational log entries
	RecentLogs(ctx context.Context, opts ...Option[RecentLogsOptions]) ([]*store.LogEntry, error)
}

// Option sets an option for a service operation
type Option[T RecentDocumentsOptions | RecentLogsOptions] func(*T) error

// RecentDocumentsOptions is the options for the RecentDocuments operation
type RecentDocumentsOptions struct {
	Refresh bool
	Limit   int
}

// RecentLogsOptions is the options for the RecentLogs operation
type RecentLogsOptions struct {
	Limit int
}

// WithRefresh forces a live sync
func WithRefresh(refresh bool) Option[RecentDocumentsOptions] {
	return func(o *RecentDocumentsOptions) error {
		o.Refresh = refresh
		return nil
	}
}

// WithLimit caps the number of returned documents
func WithLimit(limit int) Option[RecentDocumentsOptions] {
	return func(o *RecentDocumentsOptions) error {
		if limit < 1 || limit > MaxLimit {
			return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidArgument, MaxLimit)
		}
		o.Limit = limit
		return nil
	}
}

// WithLogLimit caps the number of returned log entries
func WithLogLimit(limit int) Option[RecentLogsOptions] {
	return func(o *RecentLogsOptions) error {
		if limit < 1 || limit > MaxLogs {
			return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidArgument, MaxLogs)
		}
		o.Limit = limit
		return nil
	}
}

// DocumentsResult is the answer to a recent documents query
type DocumentsResult struct {
	Documents []*documents.Record
	// Source is cache, live or fallback
	Source   string
	SyncedAt *time.Time
	// Stale is set when a live sync failed and stored documents were served instead
	Stale bool
	// Warning and Reason describe the failed live sync of a stale result
	Warning string
	Reason  string
}

// SyncSummary reports the outcome of a forced sync
type SyncSummary struct {
	Success   bool
	Source    string
	Fetched   int
	Succeeded int
	Failed    int
	Skipped   int
	Artifacts map[string]int
	SyncedAt  *time.Time
	Error     string
	Reason    string
}
