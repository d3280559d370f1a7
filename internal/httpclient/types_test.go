package httpclient_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/einvoice-sync/lhdn-sync-server/internal/httpclient"
)

func TestHTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		statusCode    int
		url           string
		message       string
		expectedError string
	}{
		{
			name:          "not found",
			statusCode:    404,
			url:           "http://example.com",
			message:       "Not Found",
			expectedError: "HTTP 404 for URL http://example.com: Not Found",
		},
		{
			name:          "rate limited",
			statusCode:    429,
			url:           "https://api.myinvois.hasil.gov.my/api/v1.0/documents/recent",
			message:       "429 Too Many Requests",
			expectedError: "HTTP 429 for URL https://api.myinvois.hasil.gov.my/api/v1.0/documents/recent: 429 Too Many Requests",
		},
		{
			name:          "empty message",
			statusCode:    500,
			url:           "http://example.com",
			message:       "",
			expectedError: "HTTP 500 for URL http://example.com: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := httpclient.NewHTTPError(tt.statusCode, tt.url, tt.message)

			require.Error(t, err)
			assert.Equal(t, tt.expectedError, err.Error())

			var httpErr *httpclient.HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.statusCode, httpErr.StatusCode)
		})
	}
}
