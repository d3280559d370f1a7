package lhdn

import (
	"errors"
	"fmt"
)

// Error kinds returned by the fetcher. Match them with errors.Is.
var (
	// ErrAuth means the bearer credential was rejected (401/403). Never retried.
	ErrAuth = errors.New("lhdn: authentication rejected")
	// ErrRateLimited means the API answered 429
	ErrRateLimited = errors.New("lhdn: rate limited")
	// ErrNetwork means the request never produced a response
	ErrNetwork = errors.New("lhdn: network failure")
	// ErrServer covers 5xx, 408 and undecodable bodies
	ErrServer = errors.New("lhdn: server error")
	// ErrRejected covers the remaining 4xx statuses. Never retried.
	ErrRejected = errors.New("lhdn: request rejected")
)

// RequestError is the error returned for a failed page request
type RequestError struct {
	Kind       error
	StatusCode int
	URL        string
	Err        error
}

// Error returns the error message
func (e *RequestError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%v (HTTP %d, %s): %v", e.Kind, e.StatusCode, e.URL, e.Err)
	}
	return fmt.Sprintf("%v (%s): %v", e.Kind, e.URL, e.Err)
}

// Unwrap returns the underlying cause
func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind of this error
func (e *RequestError) Is(target error) bool {
	return e.Kind == target
}

// IsRetryable reports whether err should be retried with backoff
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrServer)
}
