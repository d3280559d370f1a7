package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	v1 "github.com/einvoice-sync/lhdn-sync-server/internal/api/v1"
	syncapp "github.com/einvoice-sync/lhdn-sync-server/internal/app"
	"github.com/einvoice-sync/lhdn-sync-server/internal/config"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one live sync and exit",
	Long: `Run a single live sync against the LHDN API, reconcile the fetched documents
into storage and print a JSON summary on stdout.

Examples:
  # Sync now regardless of freshness
  lhdn-sync sync --config config.yaml`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := syncCmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := syncapp.NewSyncApp(ctx, syncapp.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer app.Close()

	slog.Info("Starting one-shot sync", "tenant", cfg.GetTenant())
	summary, err := app.Components().DocumentService.Sync(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	output, err := json.MarshalIndent(v1.NewSyncResponse(summary), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format sync summary as JSON: %w", err)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(output)); err != nil {
		return err
	}

	if !summary.Success {
		return fmt.Errorf("sync did not complete: %s", summary.Reason)
	}
	return nil
}
