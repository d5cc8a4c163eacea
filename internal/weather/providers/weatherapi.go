package providers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-pulse/internal/common"
	"github.com/i474232898/weather-pulse/internal/weather"
)

// WeatherAPIProvider serves current conditions from WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	clock   clockwork.Clock
}

func NewWeatherAPIProvider(cfg HTTPClientConfig, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/current.json",
		httpCfg: cfg,
		circuit: newBreaker("weatherapi"),
		clock:   clockwork.NewRealClock(),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) Current(ctx context.Context, loc weather.Location) (weather.Record, error) {
	if p.apiKey == "" {
		return weather.Record{}, fmt.Errorf("weatherapi: %w", errMissingAPIKey)
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("q", loc.Query())

	var payload struct {
		Current struct {
			TempC      float64  `json:"temp_c"`
			FeelsLikeC float64  `json:"feelslike_c"`
			Humidity   *float64 `json:"humidity"`
			WindKph    float64  `json:"wind_kph"`
			WindDegree float64  `json:"wind_degree"`
			PressureMb *float64 `json:"pressure_mb"`
			PrecipMm   *float64 `json:"precip_mm"`
			Cloud      *float64 `json:"cloud"`
			VisKm      *float64 `json:"vis_km"`
			Condition  struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}

	if err := getJSON(ctx, p.httpCfg, p.circuit, p.baseURL+"?"+values.Encode(), &payload); err != nil {
		return weather.Record{}, fmt.Errorf("weatherapi current %s: %w", loc.City, err)
	}

	c := payload.Current
	return weather.Record{
		City:          loc.City,
		Timestamp:     weather.Naive(p.clock.Now()),
		Kind:          weather.KindCurrent,
		Temperature:   c.TempC,
		FeelsLike:     c.FeelsLikeC,
		Humidity:      c.Humidity,
		Pressure:      c.PressureMb,
		WindSpeed:     c.WindKph / 3.6,
		WindDirection: c.WindDegree,
		Precipitation: c.PrecipMm,
		Clouds:        c.Cloud,
		VisibilityKm:  c.VisKm,
		Condition:     mapConditionText(c.Condition.Text),
		Description:   c.Condition.Text,
	}, nil
}

// mapConditionText folds a free-text condition into an OpenWeather main group.
func mapConditionText(text string) weather.Condition {
	switch {
	case text == "":
		return weather.ConditionUnknown
	case common.HasAny(text, "thunder", "storm"):
		return weather.ConditionThunderstorm
	case common.HasAny(text, "drizzle"):
		return weather.ConditionDrizzle
	case common.HasAny(text, "rain", "shower"):
		return weather.ConditionRain
	case common.HasAny(text, "snow", "sleet", "blizzard", "ice"):
		return weather.ConditionSnow
	case common.HasAny(text, "mist", "fog"):
		return weather.ConditionMist
	case common.HasAny(text, "haze", "smoke", "dust"):
		return weather.ConditionHaze
	case common.HasAny(text, "cloud", "overcast"):
		return weather.ConditionClouds
	case common.HasAny(text, "sunny", "clear"):
		return weather.ConditionClear
	default:
		return weather.ConditionUnknown
	}
}
