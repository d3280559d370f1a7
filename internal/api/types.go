package api

import (
	"github.com/einvoice-sync/lhdn-sync-server/internal/versions"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string `json:"status" example:"ready"`
}

// VersionResponse represents the version information response
type VersionResponse = versions.VersionInfo
