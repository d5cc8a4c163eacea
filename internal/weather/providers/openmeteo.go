package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-pulse/internal/weather"
)

const openMeteoDailyFields = "temperature_2m_max,temperature_2m_min,temperature_2m_mean," +
	"apparent_temperature_mean,precipitation_sum,wind_speed_10m_max," +
	"wind_direction_10m_dominant,et0_fao_evapotranspiration"

// OpenMeteoProvider serves daily archive aggregates from the Open-Meteo
// historical API. No key is required.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger

	// et0AsHumidity also writes evapotranspiration into the humidity column.
	et0AsHumidity bool
}

func NewOpenMeteoProvider(cfg HTTPClientConfig, logger *slog.Logger, et0AsHumidity bool) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:          "openmeteo",
		baseURL:       "https://archive-api.open-meteo.com/v1/archive",
		httpCfg:       cfg,
		circuit:       newBreaker("openmeteo"),
		logger:        logger,
		et0AsHumidity: et0AsHumidity,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoDaily struct {
	Time             []string   `json:"time"`
	TempMax          []*float64 `json:"temperature_2m_max"`
	TempMin          []*float64 `json:"temperature_2m_min"`
	TempMean         []*float64 `json:"temperature_2m_mean"`
	ApparentMean     []*float64 `json:"apparent_temperature_mean"`
	PrecipitationSum []*float64 `json:"precipitation_sum"`
	WindSpeedMax     []*float64 `json:"wind_speed_10m_max"`
	WindDirection    []*float64 `json:"wind_direction_10m_dominant"`
	ET0              []*float64 `json:"et0_fao_evapotranspiration"`
}

// History returns one historical record per archived day in [start, end].
// Days lacking a mean temperature, apparent temperature or wind value are skipped.
func (p *OpenMeteoProvider) History(ctx context.Context, loc weather.Location, coords weather.Coordinates, start, end time.Time) ([]weather.Record, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("openmeteo: end %s before start %s", end.Format(weather.HistoricalLayout), start.Format(weather.HistoricalLayout))
	}

	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', 4, 64))
	values.Set("start_date", start.Format(weather.HistoricalLayout))
	values.Set("end_date", end.Format(weather.HistoricalLayout))
	values.Set("daily", openMeteoDailyFields)
	values.Set("wind_speed_unit", "ms")
	values.Set("timezone", "auto")

	var payload struct {
		Daily openMeteoDaily `json:"daily"`
	}
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.baseURL+"?"+values.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("openmeteo history %s: %w", loc.City, err)
	}

	return p.toRecords(loc.City, payload.Daily)
}

func (p *OpenMeteoProvider) toRecords(city string, d openMeteoDaily) ([]weather.Record, error) {
	records := make([]weather.Record, 0, len(d.Time))
	for i, day := range d.Time {
		ts, err := time.Parse(weather.HistoricalLayout, day)
		if err != nil {
			return nil, fmt.Errorf("%w: daily time %q: %v", weather.ErrMalformed, day, err)
		}

		temp, feels := at(d.TempMean, i), at(d.ApparentMean, i)
		wind, dir := at(d.WindSpeedMax, i), at(d.WindDirection, i)
		if temp == nil || feels == nil || wind == nil || dir == nil {
			p.logger.Debug("skipping incomplete archive day", "city", city, "date", day)
			continue
		}

		rec := weather.Record{
			City:               city,
			Timestamp:          ts,
			Kind:               weather.KindHistorical,
			Temperature:        *temp,
			FeelsLike:          *feels,
			TemperatureMax:     at(d.TempMax, i),
			TemperatureMin:     at(d.TempMin, i),
			WindSpeed:          *wind,
			WindDirection:      *dir,
			Precipitation:      at(d.PrecipitationSum, i),
			Evapotranspiration: at(d.ET0, i),
		}
		if p.et0AsHumidity && rec.Evapotranspiration != nil {
			rec.Humidity = weather.Float(*rec.Evapotranspiration)
		}
		records = append(records, rec)
	}
	return records, nil
}

// at tolerates arrays shorter than the time axis.
func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
