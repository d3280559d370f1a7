package app

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/einvoice-sync/lhdn-sync-server/database"
	"github.com/einvoice-sync/lhdn-sync-server/internal/config"
)

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending database migrations",
	Long: `Apply pending database migrations to bring the document store schema up to date.
This command reads the database connection parameters from the config file.

Examples:
  # Apply every pending migration
  lhdn-sync migrate up --config config.yaml --yes`,
	RunE: runMigrateUp,
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	cfg, m, err := setupMigration(cmd)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	numSteps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return fmt.Errorf("failed to get num-steps flag: %w", err)
	}

	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return fmt.Errorf("failed to get yes flag: %w", err)
	}

	if !yes {
		slog.Info("About to apply migrations", "database", describeDatabase(cfg.Storage.Database))
		if !confirm("Continue?") {
			slog.Info("Migration cancelled by user")
			return nil
		}
	}

	if err := executeMigrateUp(m, numSteps); err != nil {
		return err
	}

	displayMigrationVersion(m, numSteps, false)
	return nil
}

func executeMigrateUp(m database.Migrator, numSteps uint) error {
	var err error
	if numSteps == 0 {
		slog.Info("Applying all pending migrations...")
		err = m.Up()
	} else {
		if numSteps > math.MaxInt {
			return fmt.Errorf("number of steps exceeds maximum allowed value")
		}
		slog.Info("Applying migrations", "steps", numSteps)
		err = m.Steps(int(numSteps)) // #nosec G115 -- overflow checked above
	}

	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("No pending migrations, database is up to date")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("Migration completed successfully")
	return nil
}

func describeDatabase(d *config.DatabaseConfig) string {
	return fmt.Sprintf("%s@%s:%d/%s", d.User, d.Host, d.Port, d.Database)
}
