package app

import (
	"github.com/einvoice-sync/lhdn-sync-server/internal/service"
	"github.com/einvoice-sync/lhdn-sync-server/internal/store"
	"github.com/einvoice-sync/lhdn-sync-server/internal/sync/coordinator"
	"github.com/einvoice-sync/lhdn-sync-server/internal/sync/freshness"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// SyncCoordinator keeps the store warm in the background. Nil when background sync is disabled.
	SyncCoordinator coordinator.Coordinator

	// Syncer serves documents from storage or a live sync
	Syncer *freshness.Coordinator

	// DocumentService provides the query surface
	DocumentService service.DocumentService

	// Store is the durable document store
	Store store.Store
}
