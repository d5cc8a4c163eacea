package providers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-pulse/internal/weather"
)

const (
	openWeatherCurrentURL = "https://api.openweathermap.org/data/2.5/weather"
	openWeatherGeoURL     = "http://api.openweathermap.org/geo/1.0/direct"
)

// OpenWeatherProvider serves current conditions and direct geocoding from OpenWeatherMap.
type OpenWeatherProvider struct {
	name       string
	apiKey     string
	currentURL string
	geoURL     string
	httpCfg    HTTPClientConfig
	circuit    *gobreaker.CircuitBreaker
	clock      clockwork.Clock
}

func NewOpenWeatherProvider(cfg HTTPClientConfig, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:       "openweathermap",
		apiKey:     apiKey,
		currentURL: openWeatherCurrentURL,
		geoURL:     openWeatherGeoURL,
		httpCfg:    cfg,
		circuit:    newBreaker("openweather"),
		clock:      clockwork.NewRealClock(),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// Current returns the live observation. The record is stamped with the local
// collection time, not the observation time reported upstream.
func (p *OpenWeatherProvider) Current(ctx context.Context, loc weather.Location) (weather.Record, error) {
	if p.apiKey == "" {
		return weather.Record{}, fmt.Errorf("openweather: %w", errMissingAPIKey)
	}

	values := url.Values{}
	values.Set("q", loc.Query())
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")

	var payload struct {
		Main struct {
			Temp      float64  `json:"temp"`
			FeelsLike float64  `json:"feels_like"`
			TempMin   *float64 `json:"temp_min"`
			TempMax   *float64 `json:"temp_max"`
			Humidity  *float64 `json:"humidity"`
			Pressure  *float64 `json:"pressure"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
			Deg   float64 `json:"deg"`
		} `json:"wind"`
		Rain *struct {
			OneH   float64 `json:"1h"`
			ThreeH float64 `json:"3h"`
		} `json:"rain"`
		Clouds *struct {
			All float64 `json:"all"`
		} `json:"clouds"`
		Visibility *float64 `json:"visibility"`
		Weather    []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
	}

	if err := getJSON(ctx, p.httpCfg, p.circuit, p.currentURL+"?"+values.Encode(), &payload); err != nil {
		return weather.Record{}, fmt.Errorf("openweather current %s: %w", loc.City, err)
	}

	rec := weather.Record{
		City:           loc.City,
		Timestamp:      weather.Naive(p.clock.Now()),
		Kind:           weather.KindCurrent,
		Temperature:    payload.Main.Temp,
		FeelsLike:      payload.Main.FeelsLike,
		TemperatureMax: payload.Main.TempMax,
		TemperatureMin: payload.Main.TempMin,
		Humidity:       payload.Main.Humidity,
		Pressure:       payload.Main.Pressure,
		WindSpeed:      payload.Wind.Speed,
		WindDirection:  payload.Wind.Deg,
	}
	if payload.Rain != nil {
		precip := payload.Rain.OneH
		if precip == 0 {
			precip = payload.Rain.ThreeH
		}
		rec.Precipitation = weather.Float(precip)
	}
	if payload.Clouds != nil {
		rec.Clouds = weather.Float(payload.Clouds.All)
	}
	if payload.Visibility != nil {
		rec.VisibilityKm = weather.Float(*payload.Visibility / 1000)
	}
	if len(payload.Weather) > 0 {
		rec.Condition = weather.Condition(payload.Weather[0].Main)
		rec.Description = payload.Weather[0].Description
	}
	return rec, nil
}

// Geocode resolves loc with the direct geocoding endpoint, taking the first match.
func (p *OpenWeatherProvider) Geocode(ctx context.Context, loc weather.Location) (weather.Coordinates, error) {
	if p.apiKey == "" {
		return weather.Coordinates{}, fmt.Errorf("openweather: %w", errMissingAPIKey)
	}

	values := url.Values{}
	values.Set("q", loc.Query())
	values.Set("limit", "1")
	values.Set("appid", p.apiKey)

	var matches []struct {
		Name    string  `json:"name"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		Country string  `json:"country"`
	}
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.geoURL+"?"+values.Encode(), &matches); err != nil {
		return weather.Coordinates{}, fmt.Errorf("openweather geocode %s: %w", loc.City, err)
	}
	if len(matches) == 0 {
		return weather.Coordinates{}, fmt.Errorf("openweather geocode %s: %w", loc.City, weather.ErrLocationNotFound)
	}
	return weather.Coordinates{Latitude: matches[0].Lat, Longitude: matches[0].Lon}, nil
}
