package httpclient

import (
	"fmt"
	"net/http"
)

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// HTTPError represents a non-2xx HTTP response.
// Header and Body are kept so callers can inspect rate-limit metadata.
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
	Header     http.Header
	Body       []byte
}

// Error returns the error message
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Message)
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, url, message string) error {
	return &HTTPError{
		StatusCode: statusCode,
		URL:        url,
		Message:    message,
	}
}
