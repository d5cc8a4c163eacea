package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/i474232898/weather-pulse/internal/analysis"
	"github.com/i474232898/weather-pulse/internal/config"
	"github.com/i474232898/weather-pulse/internal/observability"
	"github.com/i474232898/weather-pulse/internal/report"
	"github.com/i474232898/weather-pulse/internal/store"
	"github.com/i474232898/weather-pulse/internal/weather"
	"github.com/i474232898/weather-pulse/internal/weather/providers"
)

// application holds everything a command needs, built once from AppConfig.
type application struct {
	cfg     *config.AppConfig
	logger  *slog.Logger
	metrics *observability.Metrics

	master  *store.CSVStore
	index   *store.MemoryStore
	mirror  *store.SQLiteMirror
	service *weather.Service
}

func newApplication(cfg *config.AppConfig) (*application, error) {
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Shared HTTP client for outbound provider calls.
	httpCfg := providers.NewHTTPClientConfig(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.MaxRetries)

	openWeather := providers.NewOpenWeatherProvider(httpCfg, cfg.OpenWeatherAPIKey)

	var current weather.CurrentProvider = openWeather
	if cfg.CurrentProvider == "weatherapi" {
		current = providers.NewWeatherAPIProvider(httpCfg, cfg.WeatherAPIKey)
	}

	var geocoder weather.Geocoder = openWeather
	if cfg.Geocoder == "google" {
		geocoder = providers.NewGoogleGeocoder(cfg.GoogleAPIKey)
	}
	geocoder = providers.NewCachedGeocoder(geocoder, cfg.GeocodeCacheSize, metrics)

	// Open-Meteo's archive needs no key.
	archive := providers.NewOpenMeteoProvider(httpCfg, logger, cfg.ET0AsHumidity)

	collector := weather.NewCollector(current, archive, geocoder, logger, metrics,
		weather.WithDelay(cfg.RequestDelay),
		weather.WithHistoryDays(cfg.HistoryDays),
	)

	app := &application{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		master:  store.NewCSVStore(cfg.DataDir, cfg.DatasetName, cfg.SnapshotGzip),
		index:   store.NewMemoryStore(),
	}

	opts := []weather.ServiceOption{
		weather.WithAnomalyCounter(analysis.CountAnomalies(app.anomalyOptions())),
	}
	if cfg.SQLitePath != "" {
		mirror, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite mirror: %w", err)
		}
		app.mirror = mirror
		opts = append(opts, weather.WithMirror(mirror))
	}

	app.service = weather.NewService(collector, app.master, app.index, locations(cfg.Cities, cfg.Country), logger, metrics, opts...)
	return app, nil
}

func (a *application) Close() error {
	if a.mirror != nil {
		return a.mirror.Close()
	}
	return nil
}

func (a *application) anomalyOptions() analysis.Options {
	return analysis.Options{Threshold: a.cfg.AnomalyThreshold, MinSamples: a.cfg.AnomalyMinSamples}
}

// load fills the read index from the master file and returns its records.
func (a *application) load() ([]weather.Record, error) {
	n, err := a.service.Reload()
	if err != nil {
		return nil, err
	}
	a.logger.Debug("master table loaded", "path", a.master.MasterPath(), "rows", n)
	return a.service.Records(), nil
}

func (a *application) render() ([]string, error) {
	return report.Render(a.service.Records(), report.Options{
		Dir:         filepath.Join(a.cfg.DataDir, "visualizations"),
		TrendCities: a.cfg.TrendCities,
		Logger:      a.logger,
		Metrics:     a.metrics,
	})
}

func locations(cities []string, country string) []weather.Location {
	out := make([]weather.Location, 0, len(cities))
	for _, c := range cities {
		out = append(out, weather.Location{City: c, Country: country})
	}
	return out
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
