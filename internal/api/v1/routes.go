// Package v1 provides the REST API handlers for document access and sync control.
package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/einvoice-sync/lhdn-sync-server/internal/api/common"
	"github.com/einvoice-sync/lhdn-sync-server/internal/service"
	docsync "github.com/einvoice-sync/lhdn-sync-server/internal/sync"
	"github.com/einvoice-sync/lhdn-sync-server/internal/versions"
)

// Routes defines the v1 routes with dependency injection
type Routes struct {
	service service.DocumentService
}

// NewRoutes creates a new Routes instance with the provided service
func NewRoutes(svc service.DocumentService) *Routes {
	return &Routes{service: svc}
}

// Router creates the router for the v1 API
func Router(svc service.DocumentService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()
	r.Get("/documents/recent", routes.recentDocuments)
	r.Get("/documents/{uuid}", routes.getDocument)
	r.Post("/sync", routes.sync)
	r.Get("/sync/logs", routes.syncLogs)

	return r
}

// HealthRouter creates a router for health check endpoints
func HealthRouter(svc service.DocumentService) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(svc))
	r.Get("/version", versionHandler)

	return r
}

// recentDocuments handles GET /api/v1/documents/recent
//
// @Summary		Recent documents
// @Description	Serve recent documents from storage when fresh, otherwise sync live from LHDN
// @Tags			documents
// @Produce		json
// @Param			refresh	query		bool	false	"Bypass the freshness check"
// @Param			limit	query		int		false	"Maximum number of documents"
// @Success		200		{object}	DocumentsResponse
// @Failure		400		{object}	common.ErrorResponse
// @Failure		502		{object}	common.ErrorResponse
// @Failure		503		{object}	common.ErrorResponse
// @Router			/api/v1/documents/recent [get]
func (rr *Routes) recentDocuments(w http.ResponseWriter, r *http.Request) {
	var opts []service.Option[service.RecentDocumentsOptions]

	if v := r.URL.Query().Get("refresh"); v != "" {
		refresh, err := strconv.ParseBool(v)
		if err != nil {
			common.WriteErrorResponse(w, "refresh must be true or false", http.StatusBadRequest)
			return
		}
		opts = append(opts, service.WithRefresh(refresh))
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			common.WriteErrorResponse(w, "limit must be an integer", http.StatusBadRequest)
			return
		}
		opts = append(opts, service.WithLimit(limit))
	}

	res, err := rr.service.RecentDocuments(r.Context(), opts...)
	if err != nil {
		writeServiceError(w, "Failed to get recent documents", err)
		return
	}

	common.WriteJSONResponse(w, DocumentsResponse{
		Documents: res.Documents,
		Count:     len(res.Documents),
		Source:    res.Source,
		SyncedAt:  res.SyncedAt,
		Stale:     res.Stale,
		Warning:   res.Warning,
		Reason:    res.Reason,
	}, http.StatusOK)
}

// getDocument handles GET /api/v1/documents/{uuid}
//
// @Summary		Get document
// @Description	Get one stored document by its LHDN uuid
// @Tags			documents
// @Produce		json
// @Param			uuid	path		string	true	"Document uuid"
// @Success		200		{object}	documents.Record
// @Failure		400		{object}	common.ErrorResponse
// @Failure		404		{object}	common.ErrorResponse
// @Router			/api/v1/documents/{uuid} [get]
func (rr *Routes) getDocument(w http.ResponseWriter, r *http.Request) {
	uuid, err := common.GetAndValidateURLParam(r, "uuid")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := rr.service.GetDocument(r.Context(), uuid)
	if err != nil {
		writeServiceError(w, "Failed to get document", err)
		return
	}

	common.WriteJSONResponse(w, rec, http.StatusOK)
}

// sync handles POST /api/v1/sync
//
// @Summary		Force a sync
// @Description	Run a live sync now. A sync that fell back to stored documents reports success=false.
// @Tags			sync
// @Produce		json
// @Success		200	{object}	SyncResponse
// @Failure		409	{object}	SyncResponse
// @Failure		502	{object}	SyncResponse
// @Failure		503	{object}	common.ErrorResponse
// @Router			/api/v1/sync [post]
func (rr *Routes) sync(w http.ResponseWriter, r *http.Request) {
	summary, err := rr.service.Sync(r.Context())
	if err != nil {
		writeServiceError(w, "Sync failed", err)
		return
	}

	resp := NewSyncResponse(summary)

	status := http.StatusOK
	if !summary.Success {
		status = statusForReason(summary.Reason)
	}
	common.WriteJSONResponse(w, resp, status)
}

// syncLogs handles GET /api/v1/sync/logs
//
// @Summary		Operational log
// @Description	List the most recent sync log entries for the tenant, newest first
// @Tags			sync
// @Produce		json
// @Param			limit	query		int	false	"Maximum number of entries"
// @Success		200		{object}	LogsResponse
// @Failure		400		{object}	common.ErrorResponse
// @Router			/api/v1/sync/logs [get]
func (rr *Routes) syncLogs(w http.ResponseWriter, r *http.Request) {
	var opts []service.Option[service.RecentLogsOptions]
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			common.WriteErrorResponse(w, "limit must be an integer", http.StatusBadRequest)
			return
		}
		opts = append(opts, service.WithLogLimit(limit))
	}

	entries, err := rr.service.RecentLogs(r.Context(), opts...)
	if err != nil {
		writeServiceError(w, "Failed to list sync logs", err)
		return
	}

	resp := LogsResponse{Logs: make([]LogEntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Logs = append(resp.Logs, LogEntryResponse{
			ID:        e.ID.String(),
			Level:     e.Level,
			Operation: e.Operation,
			Message:   e.Message,
			Details:   e.Details,
			CreatedAt: e.CreatedAt,
		})
	}
	common.WriteJSONResponse(w, resp, http.StatusOK)
}

// healthHandler handles health check requests
//
// @Summary		Health check
// @Tags			system
// @Produce		json
// @Success		200	{object}	map[string]string
// @Router			/health [get]
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, map[string]string{"status": "healthy"}, http.StatusOK)
}

// readinessHandler handles readiness check requests
//
// @Summary		Readiness check
// @Tags			system
// @Produce		json
// @Success		200	{object}	map[string]string
// @Failure		503	{object}	common.ErrorResponse
// @Router			/readiness [get]
func readinessHandler(svc service.DocumentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CheckReadiness(r.Context()); err != nil {
			common.WriteErrorResponse(w, "DocumentService not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		common.WriteJSONResponse(w, map[string]string{"status": "ready"}, http.StatusOK)
	}
}

// versionHandler handles version information requests
//
// @Summary		Version information
// @Tags			system
// @Produce		json
// @Success		200	{object}	versions.VersionInfo
// @Router			/version [get]
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}

// writeServiceError maps a service error onto an HTTP status
func writeServiceError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, service.ErrDocumentNotFound):
		common.WriteErrorResponse(w, err.Error(), http.StatusNotFound)
		return
	}

	reason := docsync.ReasonFor(err)
	slog.Error(message, "reason", reason, "error", err)
	common.WriteReasonedErrorResponse(w, message+": "+err.Error(), reason, statusForReason(reason))
}

// statusForReason maps a sync failure reason onto an HTTP status
func statusForReason(reason string) int {
	switch reason {
	case docsync.ReasonFetchExhausted:
		return http.StatusServiceUnavailable
	case docsync.ReasonLockHeld:
		return http.StatusConflict
	case docsync.ReasonStorageFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
