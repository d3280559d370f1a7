// Package common provides shared HTTP utility functions for API handlers.
package common

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"
)

// MaxURLParamLength bounds decoded path parameters. LHDN identifiers are far shorter.
const MaxURLParamLength = 128

// GetAndValidateURLParam returns the decoded chi URL parameter paramName.
// The value must be non-blank, free of whitespace and control characters,
// and no longer than MaxURLParamLength.
func GetAndValidateURLParam(r *http.Request, paramName string) (string, error) {
	decoded, err := url.PathUnescape(chi.URLParam(r, paramName))
	if err != nil {
		return "", fmt.Errorf("invalid URL encoding in %s", paramName)
	}

	switch {
	case strings.TrimSpace(decoded) == "":
		return "", fmt.Errorf("%s cannot be empty", paramName)
	case strings.IndexFunc(decoded, unicode.IsSpace) >= 0:
		return "", fmt.Errorf("%s cannot contain whitespace", paramName)
	case strings.IndexFunc(decoded, unicode.IsControl) >= 0:
		return "", fmt.Errorf("%s cannot contain control characters", paramName)
	case len(decoded) > MaxURLParamLength:
		return "", fmt.Errorf("%s must be at most %d characters", paramName, MaxURLParamLength)
	}

	return decoded, nil
}
