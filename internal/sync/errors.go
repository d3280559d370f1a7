package sync

import (
	"errors"
	"fmt"

	"github.com/einvoice-sync/lhdn-sync-server/internal/documents"
	"github.com/einvoice-sync/lhdn-sync-server/internal/lhdn"
)

// ErrFetchExhausted is matched by errors.Is on a *FetchExhaustedError
var ErrFetchExhausted = errors.New("fetch exhausted")

// FetchExhaustedError is returned when too many consecutive page requests failed.
// Records holds whatever was collected before the circuit opened.
type FetchExhaustedError struct {
	Failures int
	Page     int
	Records  []*documents.Record
	LastErr  error
}

// Error returns the error message
func (e *FetchExhaustedError) Error() string {
	return fmt.Sprintf("fetch exhausted after %d consecutive failures at page %d (%d records collected): %v",
		e.Failures, e.Page, len(e.Records), e.LastErr)
}

// Unwrap returns the last page error
func (e *FetchExhaustedError) Unwrap() error {
	return e.LastErr
}

// Is matches ErrFetchExhausted
func (*FetchExhaustedError) Is(target error) bool {
	return target == ErrFetchExhausted
}

// Sync failure reasons recorded on sync runs and log entries
const (
	ReasonAuthFailed     = "auth-failed"
	ReasonFetchExhausted = "fetch-exhausted"
	ReasonFetchFailed    = "fetch-failed"
	ReasonStorageFailed  = "storage-failed"
	ReasonLockHeld       = "sync-in-progress-elsewhere"
)

// Error represents a sync failure annotated with the reason recorded on the sync run
type Error struct {
	Err     error
	Message string
	Reason  string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ReasonFor classifies a sync failure
func ReasonFor(err error) string {
	var syncErr *Error
	switch {
	case errors.As(err, &syncErr) && syncErr.Reason != "":
		return syncErr.Reason
	case errors.Is(err, ErrFetchExhausted):
		return ReasonFetchExhausted
	case errors.Is(err, lhdn.ErrAuth):
		return ReasonAuthFailed
	default:
		return ReasonFetchFailed
	}
}
