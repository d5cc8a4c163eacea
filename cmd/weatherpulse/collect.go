package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-pulse/internal/common"
	"github.com/i474232898/weather-pulse/internal/store"
)

var (
	flagDays   int
	flagCities string
	flagOut    string
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect current and historical weather and update the master table",
	Long: `Fetch the live observation and the archive window for every city, write a
snapshot of this run and merge it into the master table.

--cities restricts the run to a comma separated subset; --days overrides HISTORY_DAYS.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(flagDays)
		if err != nil {
			return err
		}
		defer app.Close()

		locs := app.service.Locations()
		if flagCities != "" {
			locs = locations(common.SplitList(flagCities, ","), app.cfg.Country)
		}

		summary, err := app.service.UpdateLocations(cmd.Context(), locs)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run %s collected %d record(s) in %s.\n", summary.RunID, summary.Collected, formatDuration(summary.Duration))
		fmt.Fprintf(out, "Snapshot: %s\n", summary.SnapshotPath)
		fmt.Fprintf(out, "Master: %s (%d rows)\n", app.master.MasterPath(), summary.MasterRows)
		return nil
	},
}

var visualizeCmd = &cobra.Command{
	Use:   "visualize",
	Short: "Render charts from the master table",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(0)
		if err != nil {
			return err
		}
		defer app.Close()

		records, err := app.load()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No data available for visualization yet. Run collect first.")
			return nil
		}

		paths, err := app.render()
		if err != nil {
			return fmt.Errorf("rendering charts: %w", err)
		}
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the master table to a Parquet file",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(0)
		if err != nil {
			return err
		}
		defer app.Close()

		records, err := app.load()
		if err != nil {
			return err
		}
		if err := store.ExportParquet(flagOut, records); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d row(s) to %s.\n", len(records), flagOut)
		return nil
	},
}

func init() {
	collectCmd.Flags().IntVar(&flagDays, "days", 0, "days of historical data to fetch (default HISTORY_DAYS)")
	collectCmd.Flags().StringVar(&flagCities, "cities", "", "comma separated cities to collect (default WEATHER_CITIES)")

	exportCmd.Flags().StringVar(&flagOut, "out", "weather.parquet", "output Parquet file")
}
