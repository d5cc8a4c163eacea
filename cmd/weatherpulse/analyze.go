package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-pulse/internal/analysis"
	"github.com/i474232898/weather-pulse/internal/weather"
)

var (
	flagThreshold float64
	flagCity      string
	flagCity1     string
	flagCity2     string
)

var anomaliesCmd = &cobra.Command{
	Use:   "anomalies",
	Short: "List temperature anomalies in the master table",
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

		opts := app.anomalyOptions()
		if cmd.Flags().Changed("threshold") {
			opts.Threshold = flagThreshold
		}
		if opts.Threshold < 0 {
			return fmt.Errorf("invalid --threshold value: %v", opts.Threshold)
		}

		printAnomalies(cmd.OutOrStdout(), analysis.DetectAnomalies(records, opts), opts.Threshold)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise one city",
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
		s, err := analysis.StatsForCity(records, flagCity)
		if err != nil {
			return err
		}
		printStats(cmd.OutOrStdout(), s)
		return nil
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two cities over their common dates",
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
		c, err := analysis.CompareCities(records, flagCity1, flagCity2)
		if err != nil {
			return err
		}
		printComparison(cmd.OutOrStdout(), c)
		return nil
	},
}

var seasonalCmd = &cobra.Command{
	Use:   "seasonal",
	Short: "Show per-season means for one city or all cities",
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
		patterns, err := analysis.SeasonalPatterns(records, flagCity)
		if err != nil {
			return err
		}
		printSeasonal(cmd.OutOrStdout(), patterns)
		return nil
	},
}

func printAnomalies(w io.Writer, anomalies []analysis.Anomaly, threshold float64) {
	if len(anomalies) == 0 {
		fmt.Fprintf(w, "No anomalies above %.2f standard deviations.\n", threshold)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CITY\tTIMESTAMP\tTYPE\tTEMP (°C)\tZ-SCORE")
	for _, a := range anomalies {
		rec := weather.Record{Timestamp: a.Timestamp, Kind: a.Kind}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%+.2f\n", a.City, rec.TimestampString(), a.Kind, a.Temperature, a.ZScore)
	}
	tw.Flush()
	fmt.Fprintf(w, "%d anomaly(ies) above %.2f standard deviations.\n", len(anomalies), threshold)
}

func printStats(w io.Writer, s analysis.CityStats) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "City:\t%s\n", s.City)
	fmt.Fprintf(tw, "Records:\t%d\n", s.TotalRecords)
	fmt.Fprintf(tw, "Period:\t%s to %s\n", s.DataStart.Format(weather.HistoricalLayout), s.DataEnd.Format(weather.HistoricalLayout))
	fmt.Fprintf(tw, "Temperature:\tavg %.1f°C, min %.1f°C, max %.1f°C\n", s.AvgTemperature, s.MinTemperature, s.MaxTemperature)
	fmt.Fprintf(tw, "Humidity:\t%s\n", optional(s.AvgHumidity, "%.1f%%"))
	fmt.Fprintf(tw, "Wind:\tavg %.1f m/s\n", s.AvgWindSpeed)
	tw.Flush()
}

func printComparison(w io.Writer, c analysis.Comparison) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Cities:\t%s vs %s\n", c.City1, c.City2)
	fmt.Fprintf(tw, "Common dates:\t%d\n", c.CommonDatesCount)
	fmt.Fprintf(tw, "Temperature diff:\t%+.2f°C\n", c.AvgTempDiff)
	fmt.Fprintf(tw, "Humidity diff:\t%s\n", optional(c.AvgHumidityDiff, "%+.2f%%"))
	fmt.Fprintf(tw, "Wind diff:\t%+.2f m/s\n", c.AvgWindDiff)
	fmt.Fprintf(tw, "Correlation:\t%s\n", optional(c.Correlation, "%.3f"))
	tw.Flush()
}

func printSeasonal(w io.Writer, patterns []analysis.SeasonalPattern) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CITY\tSEASON\tTEMP (°C)\tHUMIDITY (%)\tWIND (m/s)\tPRECIP (mm)\tRECORDS")
	for _, p := range patterns {
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%s\t%.1f\t%s\t%d\n",
			p.City, p.Season, p.Temperature, optional(p.Humidity, "%.1f"), p.WindSpeed, optional(p.Precipitation, "%.1f"), p.Records)
	}
	tw.Flush()
}

func optional(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}

func init() {
	anomaliesCmd.Flags().Float64Var(&flagThreshold, "threshold", analysis.DefaultThreshold, "z-score threshold (default ANOMALY_THRESHOLD)")

	statsCmd.Flags().StringVar(&flagCity, "city", "", "city to summarise")
	_ = statsCmd.MarkFlagRequired("city")

	compareCmd.Flags().StringVar(&flagCity1, "city1", "", "first city")
	compareCmd.Flags().StringVar(&flagCity2, "city2", "", "second city")
	_ = compareCmd.MarkFlagRequired("city1")
	_ = compareCmd.MarkFlagRequired("city2")

	seasonalCmd.Flags().StringVar(&flagCity, "city", "", "restrict to one city")
}
