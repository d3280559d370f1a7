package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/einvoice-sync/lhdn-sync-server/internal/config"
	"github.com/einvoice-sync/lhdn-sync-server/internal/store"
)

// SQLiteFactory creates stores on a local SQLite file
type SQLiteFactory struct {
	path string

	mu    sync.Mutex
	store *store.SQLiteStore
}

var _ Factory = (*SQLiteFactory)(nil)

// NewSQLiteFactory creates a factory for the configured SQLite file.
// The file is opened lazily by CreateStore.
func NewSQLiteFactory(cfg *config.SQLiteConfig) *SQLiteFactory {
	return &SQLiteFactory{path: cfg.GetPath()}
}

// CreateStore opens the SQLite database, applying the schema on first use
func (f *SQLiteFactory) CreateStore(ctx context.Context) (store.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.store != nil {
		return f.store, nil
	}

	slog.Info("Opening SQLite store", "path", f.path)
	st, err := store.OpenSQLite(ctx, f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite store: %w", err)
	}
	f.store = st
	return st, nil
}

// Cleanup closes the SQLite database
func (f *SQLiteFactory) Cleanup() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.store == nil {
		return
	}
	if err := f.store.Close(); err != nil {
		slog.Error("Failed to close SQLite store", "error", err)
	}
	f.store = nil
}
