package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/einvoice-sync/lhdn-sync-server/internal/config"
	"github.com/einvoice-sync/lhdn-sync-server/internal/db"
	"github.com/einvoice-sync/lhdn-sync-server/internal/store"
)

// DatabaseFactory creates PostgreSQL-backed stores
type DatabaseFactory struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer

	once  sync.Once
	store *store.PostgresStore
	err   error
}

var _ Factory = (*DatabaseFactory)(nil)

// NewDatabaseFactory creates a new database-backed storage factory.
// It establishes a connection pool to the configured PostgreSQL database.
func NewDatabaseFactory(ctx context.Context, cfg *config.DatabaseConfig, tracer trace.Tracer) (*DatabaseFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration is required for database storage type")
	}

	slog.Info("Creating database-backed storage factory", "host", cfg.Host, "database", cfg.Database)

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	return &DatabaseFactory{pool: pool, tracer: tracer}, nil
}

// CreateStore returns the PostgreSQL store
func (d *DatabaseFactory) CreateStore(_ context.Context) (store.Store, error) {
	d.once.Do(func() {
		var opts []store.PostgresOption
		if d.tracer != nil {
			opts = append(opts, store.WithTracer(d.tracer))
			slog.Debug("Database store tracing enabled")
		}
		d.store, d.err = store.NewPostgresStore(d.pool, opts...)
	})
	if d.err != nil {
		return nil, fmt.Errorf("failed to create database store: %w", d.err)
	}
	return d.store, nil
}

// Cleanup closes the database connection pool
func (d *DatabaseFactory) Cleanup() {
	if d.pool != nil {
		slog.Info("Closing database connection pool")
		d.pool.Close()
	}
}
