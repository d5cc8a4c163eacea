// Package report renders the master table into PNG charts.
package report

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/i474232898/weather-pulse/internal/observability"
	"github.com/i474232898/weather-pulse/internal/weather"
)

// Chart file names.
const (
	TemperatureComparison = "temperature_comparison.png"
	TemperatureTrends     = "city_temperature_trends.png"
	HumidityComparison    = "humidity_comparison.png"
	TemperatureHeatmap    = "temperature_heatmap.png"
	WindRose              = "wind_rose.png"
)

// errNoInput marks a chart that has nothing to draw.
var errNoInput = errors.New("no input")

type Options struct {
	// Dir receives the PNG files. It is created if missing.
	Dir string
	// TrendCities are drawn on the trend chart, in this order.
	TrendCities []string

	Logger  *slog.Logger
	Metrics *observability.Metrics
}

type chart struct {
	name   string
	width  vg.Length
	height vg.Length
	build  func([]weather.Record, Options) (*plot.Plot, error)
}

var charts = []chart{
	{TemperatureComparison, 12 * vg.Inch, 8 * vg.Inch, temperatureComparison},
	{TemperatureTrends, 14 * vg.Inch, 8 * vg.Inch, temperatureTrends},
	{HumidityComparison, 12 * vg.Inch, 8 * vg.Inch, humidityComparison},
	{TemperatureHeatmap, 16 * vg.Inch, 10 * vg.Inch, temperatureHeatmap},
	{WindRose, 10 * vg.Inch, 10 * vg.Inch, windRose},
}

// Render writes every chart that has input and returns the written paths.
// Charts without input are skipped and logged. The first failing chart aborts
// rendering.
func Render(records []weather.Record, opts Options) ([]string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	if len(records) == 0 {
		logger.Info("no data available for visualization")
		return nil, nil
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create visualizations dir: %w", err)
	}

	var written []string
	for _, c := range charts {
		p, err := c.build(records, opts)
		if errors.Is(err, errNoInput) {
			logger.Info("skipping chart", "chart", c.name, "reason", err)
			continue
		}
		if err != nil {
			return written, fmt.Errorf("%s: %w", c.name, err)
		}

		path := filepath.Join(opts.Dir, c.name)
		if err := p.Save(c.width, c.height, path); err != nil {
			return written, fmt.Errorf("save %s: %w", c.name, err)
		}
		if opts.Metrics != nil {
			opts.Metrics.ChartsRendered.Inc()
		}
		written = append(written, path)
	}

	logger.Info("visualizations created", "dir", opts.Dir, "charts", len(written))
	return written, nil
}
