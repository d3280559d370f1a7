// Package app provides application lifecycle management for the LHDN sync server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/einvoice-sync/lhdn-sync-server/internal/config"
)

// SyncApp encapsulates all components needed to run the sync server.
// It provides lifecycle management and graceful shutdown capabilities.
type SyncApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start starts the application components (HTTP server and background sync).
// This method blocks until the HTTP server stops or encounters an error.
func (app *SyncApp) Start() error {
	if app.components.SyncCoordinator != nil {
		go func() {
			if err := app.components.SyncCoordinator.Start(app.ctx); err != nil {
				slog.Error("Sync coordinator failed", "error", err)
			}
		}()
	} else {
		slog.Info("Background sync disabled")
	}

	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application with the given timeout.
// It stops the sync coordinator, shuts down the HTTP server and then releases storage.
func (app *SyncApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	if app.components.SyncCoordinator != nil {
		if err := app.components.SyncCoordinator.Stop(); err != nil {
			slog.Error("Failed to stop sync coordinator", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := app.httpServer.Shutdown(shutdownCtx)

	// Release storage only after in-flight requests have drained
	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// Close releases the resources held by the app without serving. Used by one-shot commands.
func (app *SyncApp) Close() {
	if app.cancelFunc != nil {
		app.cancelFunc()
	}
}

// GetConfig returns the application configuration
func (app *SyncApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *SyncApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// Components returns the wired application components
func (app *SyncApp) Components() *AppComponents {
	return app.components
}
