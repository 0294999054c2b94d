package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/replenix/replenix/cmd/replenix/commands"
	"github.com/replenix/replenix/logger"
)

var jsonLogs bool

var rootCmd = &cobra.Command{
	Use:   "replenix",
	Short: "Replenix - inventory replenishment pipeline",
	Long: `Replenix ingests inventory snapshots, computes per-supplier purchase
recommendations, and drives a multi-stage document generation pipeline
(analysis, purchase request, supplier email) with live progress streaming.

Examples:
  replenix serve                     # Start the pipeline server
  replenix run stock_2024-01-15.csv # Run one snapshot end to end
  replenix config show               # Show effective configuration
  replenix version                   # Show build information`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
