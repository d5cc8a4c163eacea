package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-pulse/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "weatherpulse",
	Short: "Weather collection, aggregation and analysis for a list of cities",
	Long: `weatherpulse collects current and historical weather for a configured list of
cities, folds it into a de-duplicated master table, flags temperature anomalies and
renders charts. Configuration comes from the environment and an optional .env file.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "weatherpulse %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(visualizeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(anomaliesCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(seasonalCmd)
}

// setup loads configuration and builds the application. A positive
// historyDays overrides HISTORY_DAYS.
func setup(historyDays int) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if historyDays > 0 {
		cfg.HistoryDays = historyDays
	}
	return newApplication(cfg)
}
