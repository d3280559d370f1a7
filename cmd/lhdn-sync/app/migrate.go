package app

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/einvoice-sync/lhdn-sync-server/database"
	"github.com/einvoice-sync/lhdn-sync-server/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tool",
	Long:  `Database migration tool for managing schema versions. Use with 'up' or 'down' subcommands.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Usage()
	},
}

func init() {
	migrateCmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to all questions")
	migrateCmd.PersistentFlags().UintP("num-steps", "n", 0, "Number of steps to migrate (0 = all)")
	migrateCmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := migrateCmd.MarkPersistentFlagRequired("config"); err != nil {
		panic(err)
	}

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

// setupMigration loads the configuration and opens a migrator on the PostgreSQL store.
// The SQLite store creates its schema on open and has nothing to migrate.
func setupMigration(cmd *cobra.Command) (*config.Config, database.Migrator, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Storage.Type != config.StorageTypeDatabase || cfg.Storage.Database == nil {
		return nil, nil, fmt.Errorf("migrations require storage type %q", config.StorageTypeDatabase)
	}

	connString, err := cfg.Storage.Database.GetMigrationConnectionString()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	m, err := database.NewFromConnectionString(connString)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return cfg, m, nil
}

func closeMigrator(m database.Migrator) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		slog.Error("Error closing migration source", "error", srcErr)
	}
	if dbErr != nil {
		slog.Error("Error closing database connection", "error", dbErr)
	}
}

// confirm asks a yes/no question on stdin
func confirm(prompt string) bool {
	fmt.Printf("%s (yes/no): ", prompt)
	response, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "yes" || response == "y"
}

func displayMigrationVersion(m database.Migrator, numSteps uint, down bool) {
	version, dirty, err := m.Version()
	if err != nil {
		if down && numSteps == 0 {
			slog.Info("Database schema has been completely removed")
		} else {
			slog.Warn("Failed to get migration version", "error", err)
		}
		return
	}

	if dirty {
		slog.Warn("Current migration version is dirty, manual intervention may be required", "version", version)
	} else {
		slog.Info("Current migration version", "version", version)
	}
}
