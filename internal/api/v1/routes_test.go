package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	v1 "github.com/einvoice-sync/lhdn-sync-server/internal/api/v1"
	"github.com/einvoice-sync/lhdn-sync-server/internal/documents"
	"github.com/einvoice-sync/lhdn-sync-server/internal/lhdn"
	"github.com/einvoice-sync/lhdn-sync-server/internal/service"
	"github.com/einvoice-sync/lhdn-sync-server/internal/service/mocks"
	"github.com/einvoice-sync/lhdn-sync-server/internal/store"
	docsync "github.com/einvoice-sync/lhdn-sync-server/internal/sync"
)

func applyDocOpts(opts []service.Option[service.RecentDocumentsOptions]) (*service.RecentDocumentsOptions, error) {
	o := &service.RecentDocumentsOptions{Limit: service.DefaultLimit}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func TestRecentDocuments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		query       string
		wantRefresh bool
		wantLimit   int
		svcErr      error
		wantStatus  int
		wantReason  string
	}{
		{name: "defaults", wantLimit: service.DefaultLimit, wantStatus: http.StatusOK},
		{name: "refresh", query: "?refresh=true", wantRefresh: true, wantLimit: service.DefaultLimit, wantStatus: http.StatusOK},
		{name: "limit", query: "?limit=25", wantLimit: 25, wantStatus: http.StatusOK},
		{name: "bad refresh", query: "?refresh=maybe", wantStatus: http.StatusBadRequest},
		{name: "bad limit", query: "?limit=ten", wantStatus: http.StatusBadRequest},
		{name: "limit out of range", query: "?limit=0", wantStatus: http.StatusBadRequest},
		{
			name:       "fetch exhausted with empty store",
			svcErr:     &docsync.FetchExhaustedError{Failures: 3, LastErr: errors.New("503")},
			wantStatus: http.StatusServiceUnavailable,
			wantReason: docsync.ReasonFetchExhausted,
		},
		{
			name:       "auth failure",
			svcErr:     fmt.Errorf("page 1: %w", lhdn.ErrAuth),
			wantStatus: http.StatusBadGateway,
			wantReason: docsync.ReasonAuthFailed,
		},
		{
			name:       "storage failure",
			svcErr:     &docsync.Error{Err: errors.New("disk"), Message: "start run", Reason: docsync.ReasonStorageFailed},
			wantStatus: http.StatusInternalServerError,
			wantReason: docsync.ReasonStorageFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			mockSvc := mocks.NewMockDocumentService(ctrl)
			mockSvc.EXPECT().RecentDocuments(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, opts ...service.Option[service.RecentDocumentsOptions]) (*service.DocumentsResult, error) {
					o, err := applyDocOpts(opts)
					if err != nil {
						return nil, err
					}
					assert.Equal(t, tt.wantRefresh, o.Refresh)
					assert.Equal(t, tt.wantLimit, o.Limit)
					if tt.svcErr != nil {
						return nil, tt.svcErr
					}
					return &service.DocumentsResult{
						Documents: []*documents.Record{{UUID: "A"}, {UUID: "B"}},
						Source:    "cache",
					}, nil
				}).MaxTimes(1)

			rr := httptest.NewRecorder()
			v1.Router(mockSvc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/documents/recent"+tt.query, nil))

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			if tt.wantStatus == http.StatusOK {
				var resp v1.DocumentsResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, 2, resp.Count)
				assert.Equal(t, "cache", resp.Source)
				assert.False(t, resp.Stale)
				return
			}

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
			assert.Equal(t, tt.wantReason, resp["reason"])
		})
	}
}

func TestRecentDocuments_StaleFallback(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	mockSvc := mocks.NewMockDocumentService(ctrl)
	mockSvc.EXPECT().RecentDocuments(gomock.Any()).Return(&service.DocumentsResult{
		Documents: []*documents.Record{{UUID: "A"}},
		Source:    "fallback",
		Stale:     true,
		Warning:   "fetch exhausted",
		Reason:    docsync.ReasonFetchExhausted,
	}, nil)

	rr := httptest.NewRecorder()
	v1.Router(mockSvc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/documents/recent", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp v1.DocumentsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Stale)
	assert.Equal(t, "fallback", resp.Source)
	assert.Equal(t, docsync.ReasonFetchExhausted, resp.Reason)
}

func TestGetDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		setupMock  func(*mocks.MockDocumentService)
		wantStatus int
	}{
		{
			name: "found",
			path: "/documents/F9D425P6DS7D8IU",
			setupMock: func(m *mocks.MockDocumentService) {
				m.EXPECT().GetDocument(gomock.Any(), "F9D425P6DS7D8IU").
					Return(&documents.Record{UUID: "F9D425P6DS7D8IU"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "not found",
			path: "/documents/MISSING",
			setupMock: func(m *mocks.MockDocumentService) {
				m.EXPECT().GetDocument(gomock.Any(), "MISSING").
					Return(nil, fmt.Errorf("%w: MISSING", service.ErrDocumentNotFound))
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "whitespace uuid",
			path:       "/documents/A%20B",
			setupMock:  func(*mocks.MockDocumentService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			mockSvc := mocks.NewMockDocumentService(ctrl)
			tt.setupMock(mockSvc)

			rr := httptest.NewRecorder()
			v1.Router(mockSvc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestSync(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		summary    *service.SyncSummary
		err        error
		wantStatus int
	}{
		{
			name: "live sync",
			summary: &service.SyncSummary{
				Success: true, Source: "live", Fetched: 3, Succeeded: 3,
				Artifacts: map[string]int{"generated": 3},
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "lock held elsewhere",
			summary: &service.SyncSummary{
				Source: "fallback", Fetched: 2, Error: "held", Reason: docsync.ReasonLockHeld,
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "fetch exhausted with stored fallback",
			summary: &service.SyncSummary{
				Source: "fallback", Fetched: 2, Error: "exhausted", Reason: docsync.ReasonFetchExhausted,
			},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "no fallback available",
			err:        fmt.Errorf("page 1: %w", lhdn.ErrAuth),
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			mockSvc := mocks.NewMockDocumentService(ctrl)
			mockSvc.EXPECT().Sync(gomock.Any()).Return(tt.summary, tt.err)

			rr := httptest.NewRecorder()
			v1.Router(mockSvc).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/sync", nil))
			require.Equal(t, tt.wantStatus, rr.Code)

			if tt.summary == nil {
				return
			}
			var resp v1.SyncResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.summary.Success, resp.Success)
			assert.Equal(t, tt.summary.Fetched, resp.Fetched)
			assert.Equal(t, tt.summary.Reason, resp.Reason)
		})
	}
}

func TestSync_MethodNotAllowed(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	rr := httptest.NewRecorder()
	v1.Router(mocks.NewMockDocumentService(ctrl)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sync", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestSyncLogs(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	id := uuid.New()
	mockSvc := mocks.NewMockDocumentService(ctrl)
	mockSvc.EXPECT().RecentLogs(gomock.Any(), gomock.Any()).Return([]*store.LogEntry{{
		ID:        id,
		Level:     store.LevelInfo,
		Operation: "sync.complete",
		Message:   "sync completed",
		Details:   map[string]any{"fetched": float64(3)},
	}}, nil)

	rr := httptest.NewRecorder()
	v1.Router(mockSvc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sync/logs?limit=10", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp v1.LogsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Logs, 1)
	assert.Equal(t, id.String(), resp.Logs[0].ID)
	assert.Equal(t, "sync.complete", resp.Logs[0].Operation)
	assert.InDelta(t, 3, resp.Logs[0].Details["fetched"], 0)

	rr = httptest.NewRecorder()
	v1.Router(mockSvc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sync/logs?limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealthRouter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		setupMock  func(*mocks.MockDocumentService)
		wantStatus int
	}{
		{name: "health", path: "/health", setupMock: func(*mocks.MockDocumentService) {}, wantStatus: http.StatusOK},
		{
			name: "ready",
			path: "/readiness",
			setupMock: func(m *mocks.MockDocumentService) {
				m.EXPECT().CheckReadiness(gomock.Any()).Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "not ready",
			path: "/readiness",
			setupMock: func(m *mocks.MockDocumentService) {
				m.EXPECT().CheckReadiness(gomock.Any()).Return(errors.New("storage not reachable"))
			},
			wantStatus: http.StatusServiceUnavailable,
		},
		{name: "version", path: "/version", setupMock: func(*mocks.MockDocumentService) {}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			mockSvc := mocks.NewMockDocumentService(ctrl)
			tt.setupMock(mockSvc)

			rr := httptest.NewRecorder()
			v1.HealthRouter(mockSvc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}
}
