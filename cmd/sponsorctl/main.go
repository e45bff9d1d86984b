package main

import (
	"fmt"
	"os"

	"sponsorhub-backend/internal/config"
	"sponsorhub-backend/internal/logger"

	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sponsorctl",
		Short: "Operational tooling for the Sponsorhub backend",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			cfg = loaded
			logger.Initialize(cfg.Log.Level, cfg.Log.Format)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.dev.yaml", "Path to configuration file")

	// Add subcommands
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(repairOrphansCmd())
	rootCmd.AddCommand(mergeDuplicateSponsorsCmd())
	rootCmd.AddCommand(recomputeStatsCmd())
	rootCmd.AddCommand(exportReportCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
