// Package integration provides integration tests for the LHDN sync server.
// These tests run the complete server against a mock LHDN API and validate
// the freshness, fallback and artifact behavior over HTTP.
package integration
