package lhdn

import (
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

// SecretFunc returns the current bearer token
type SecretFunc func() (string, error)

type secretTokenSource struct {
	read SecretFunc
}

// NewSecretTokenSource returns a token source that reads the bearer token on every
// request, so a token rotated on disk or in the environment is picked up without
// a restart.
func NewSecretTokenSource(read SecretFunc) oauth2.TokenSource {
	return secretTokenSource{read: read}
}

// Token implements oauth2.TokenSource
func (s secretTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.read()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuth, err)
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrAuth)
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}
