// Package analysis derives statistics and temperature anomalies from the master table.
package analysis

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/i474232898/weather-pulse/internal/weather"
)

const (
	DefaultThreshold  = 2.0
	DefaultMinSamples = 5
)

// Options tunes anomaly detection.
type Options struct {
	// Threshold is the number of sample standard deviations a temperature
	// must exceed, strictly, to be reported.
	Threshold float64
	// MinSamples is the smallest per-city record count that is analysed.
	MinSamples int
}

// DefaultOptions returns the stock detection settings.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold, MinSamples: DefaultMinSamples}
}

// Anomaly is one outlying temperature reading.
type Anomaly struct {
	City        string       `json:"city"`
	Timestamp   time.Time    `json:"timestamp"`
	Kind        weather.Kind `json:"data_type"`
	Temperature float64      `json:"temperature"`
	ZScore      float64      `json:"zscore"`
}

// DetectAnomalies flags records whose temperature deviates from its city's
// mean by more than Threshold sample standard deviations. Cities are visited
// in order of first appearance and records keep their table order. Cities with
// fewer than MinSamples records or zero spread yield nothing.
func DetectAnomalies(records []weather.Record, opts Options) []Anomaly {
	if opts.MinSamples < 2 {
		// A sample deviation needs two points.
		opts.MinSamples = 2
	}

	order, byCity := groupByCity(records)

	var anomalies []Anomaly
	for _, city := range order {
		rows := byCity[city]
		if len(rows) < opts.MinSamples {
			continue
		}

		temps := make([]float64, len(rows))
		for i, r := range rows {
			temps[i] = r.Temperature
		}
		mean, std := stat.MeanStdDev(temps, nil)
		if flat(mean, std) {
			continue
		}

		for _, r := range rows {
			if math.Abs(r.Temperature-mean) > opts.Threshold*std {
				anomalies = append(anomalies, Anomaly{
					City:        city,
					Timestamp:   r.Timestamp,
					Kind:        r.Kind,
					Temperature: r.Temperature,
					ZScore:      (r.Temperature - mean) / std,
				})
			}
		}
	}
	return anomalies
}

// CountAnomalies is DetectAnomalies reduced to its length.
func CountAnomalies(opts Options) func([]weather.Record) int {
	return func(records []weather.Record) int {
		return len(DetectAnomalies(records, opts))
	}
}

// flat treats a deviation lost in rounding noise as zero spread.
func flat(mean, std float64) bool {
	return math.IsNaN(std) || std <= 1e-9*math.Max(1, math.Abs(mean))
}

func groupByCity(records []weather.Record) ([]string, map[string][]weather.Record) {
	var order []string
	byCity := make(map[string][]weather.Record)
	for _, r := range records {
		if _, ok := byCity[r.City]; !ok {
			order = append(order, r.City)
		}
		byCity[r.City] = append(byCity[r.City], r)
	}
	return order, byCity
}
