package v1

import (
	"time"

	"github.com/einvoice-sync/lhdn-sync-server/internal/documents"
	"github.com/einvoice-sync/lhdn-sync-server/internal/service"
)

// DocumentsResponse is the body of GET /api/v1/documents/recent
type DocumentsResponse struct {
	Documents []*documents.Record `json:"documents"`
	Count     int                 `json:"count"`
	Source    string              `json:"source" example:"cache"`
	SyncedAt  *time.Time          `json:"syncedAt,omitempty"`
	Stale     bool                `json:"stale"`
	Warning   string              `json:"warning,omitempty"`
	Reason    string              `json:"reason,omitempty"`
}

// SyncResponse is the body of POST /api/v1/sync
type SyncResponse struct {
	Success   bool           `json:"success"`
	Source    string         `json:"source" example:"live"`
	Fetched   int            `json:"fetched"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Skipped   int            `json:"skipped"`
	Artifacts map[string]int `json:"artifacts,omitempty"`
	SyncedAt  *time.Time     `json:"syncedAt,omitempty"`
	Error     string         `json:"error,omitempty"`
	Reason    string         `json:"reason,omitempty"`
}

// NewSyncResponse converts a service summary into its wire form
func NewSyncResponse(summary *service.SyncSummary) SyncResponse {
	return SyncResponse{
		Success:   summary.Success,
		Source:    summary.Source,
		Fetched:   summary.Fetched,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Skipped:   summary.Skipped,
		Artifacts: summary.Artifacts,
		SyncedAt:  summary.SyncedAt,
		Error:     summary.Error,
		Reason:    summary.Reason,
	}
}

// LogEntryResponse is one operational log entry
type LogEntryResponse struct {
	ID        string         `json:"id"`
	Level     string         `json:"level"`
	Operation string         `json:"operation"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// LogsResponse is the body of GET /api/v1/sync/logs
type LogsResponse struct {
	Logs []LogEntryResponse `json:"logs"`
}
