// Package storage provides factory functions for creating the durable document store.
// The factory is the single decision point between PostgreSQL and SQLite and owns
// the lifecycle of the resources the store depends on.
package storage

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/einvoice-sync/lhdn-sync-server/internal/config"
	"github.com/einvoice-sync/lhdn-sync-server/internal/store"
)

// Factory creates the store used by the sync engine and the query surface.
type Factory interface {
	// CreateStore returns the store backed by this factory's storage type.
	// Repeated calls return the same store.
	CreateStore(ctx context.Context) (store.Store, error)

	// Cleanup releases any resources held by this factory.
	// For database factories, this closes the connection pool.
	// For SQLite factories, this closes the database file.
	Cleanup()
}

// Option configures storage factories
type Option func(*factoryOptions)

type factoryOptions struct {
	tracer trace.Tracer
}

// WithTracer sets the OpenTelemetry tracer for store operations.
// SQLite stores are not traced.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *factoryOptions) {
		o.tracer = tracer
	}
}

// NewStorageFactory creates a storage factory based on the configured storage type.
func NewStorageFactory(ctx context.Context, cfg *config.Config, opts ...Option) (Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	o := &factoryOptions{}
	for _, opt := range opts {
		opt(o)
	}

	switch cfg.Storage.Type {
	case config.StorageTypeDatabase:
		return NewDatabaseFactory(ctx, cfg.Storage.Database, o.tracer)
	case config.StorageTypeSQLite:
		return NewSQLiteFactory(cfg.Storage.SQLite), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}
}
