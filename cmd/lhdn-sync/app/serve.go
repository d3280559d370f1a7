package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	syncapp "github.com/einvoice-sync/lhdn-sync-server/internal/app"
	"github.com/einvoice-sync/lhdn-sync-server/internal/config"
	"github.com/einvoice-sync/lhdn-sync-server/internal/telemetry"
	"github.com/einvoice-sync/lhdn-sync-server/internal/versions"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the document sync server",
	Long: `Start the document sync server to serve recent LHDN documents.

The server requires a configuration file (--config) that specifies:
- LHDN environment and access token location
- Storage backend (PostgreSQL or SQLite) and artifact destination
- Sync, freshness and locking settings

See examples/ directory for sample configurations.`,
	RunE: runServe,
}

const defaultGracefulTimeout = 30 * time.Second

func init() {
	serveCmd.Flags().String("address", ":8080", "Address to listen on")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address")); err != nil {
		slog.Error("Failed to bind address flag", "error", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("config", serveCmd.Flags().Lookup("config")); err != nil {
		slog.Error("Failed to bind config flag", "error", err)
		os.Exit(1)
	}

	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		slog.Error("Failed to mark config flag as required", "error", err)
		os.Exit(1)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Info("Loaded configuration",
		"path", configPath,
		"tenant", cfg.GetTenant(),
		"environment", cfg.LHDN.Environment,
		"storage", cfg.Storage.Type)

	tel, err := telemetry.New(ctx,
		telemetry.WithTelemetryConfig(cfg.Telemetry),
		telemetry.WithVersion(versions.Version),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Telemetry shutdown failed", "error", err)
		}
	}()

	address := viper.GetString("address")
	app, err := syncapp.NewSyncApp(ctx,
		syncapp.WithConfig(cfg),
		syncapp.WithAddress(address),
		syncapp.WithMeterProvider(tel.MeterProvider()),
		syncapp.WithTracerProvider(tel.TracerProvider()),
	)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer app.Close()

	go func() {
		if err := app.Start(); err != nil {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("Received shutdown signal", "signal", sig.String())

	return app.Stop(defaultGracefulTimeout)
}
