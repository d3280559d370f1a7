// Package app provides the command tree of the LHDN sync server.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/einvoice-sync/lhdn-sync-server/internal/versions"
)

var rootCmd = &cobra.Command{
	Use:               "lhdn-sync",
	DisableAutoGenTag: true,
	Short:             "LHDN document sync server",
	Long: `LHDN document sync server keeps a local store of the taxpayer's recent
e-invoice documents in step with the LHDN MyInvois API and serves them over HTTP.`,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := cmd.Help(); err != nil {
			slog.Error("Error displaying help", "error", err)
		}
	},
}

// NewRootCmd creates a new root command for the sync server.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		slog.Error("Error binding debug flag", "error", err)
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(migrateCmd)

	return rootCmd
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := versions.GetVersionInfo()
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return fmt.Errorf("failed to get format flag: %w", err)
		}

		if format == "json" {
			output, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to format version info as JSON: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
			return err
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "lhdn-sync %s (commit %s, built %s, %s %s)\n",
			info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform)
		return err
	},
}

func init() {
	versionCmd.Flags().String("format", "", "Output format (json)")
}
