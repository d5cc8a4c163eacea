package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-pulse/internal/weather"
)

const (
	testAPIKey        = "test-key"
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
)

var delhi = weather.Location{City: "Delhi", Country: "in"}

func testHTTPConfig() HTTPClientConfig {
	return NewHTTPClientConfig(&http.Client{Timeout: 5 * time.Second}, 0)
}

func testOpenWeather(baseURL string, now time.Time) *OpenWeatherProvider {
	p := NewOpenWeatherProvider(testHTTPConfig(), testAPIKey)
	p.currentURL = baseURL + "/data/2.5/weather"
	p.geoURL = baseURL + "/geo/1.0/direct"
	p.clock = clockwork.NewFakeClockAt(now)
	return p
}

func TestOpenWeather_Current_Success(t *testing.T) {
	now := time.Date(2024, 6, 15, 6, 0, 7, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/weather", r.URL.Path)
		assert.Equal(t, "Delhi,in", r.URL.Query().Get("q"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, testAPIKey, r.URL.Query().Get("appid"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{
			"weather": [{"main": "Haze", "description": "haze"}],
			"main": {"temp": 31.5, "feels_like": 35.2, "temp_min": 30, "temp_max": 33, "pressure": 1002, "humidity": 62},
			"visibility": 3500,
			"wind": {"speed": 3.6, "deg": 290},
			"clouds": {"all": 40},
			"dt": 1718431200
		}`))
	}))
	defer srv.Close()

	rec, err := testOpenWeather(srv.URL, now).Current(context.Background(), delhi)
	require.NoError(t, err)

	assert.Equal(t, "Delhi", rec.City)
	assert.Equal(t, weather.KindCurrent, rec.Kind)
	assert.Equal(t, "2024-06-15 06:00:07", rec.TimestampString())
	assert.InDelta(t, 31.5, rec.Temperature, 1e-9)
	assert.InDelta(t, 35.2, rec.FeelsLike, 1e-9)
	require.NotNil(t, rec.Humidity)
	assert.InDelta(t, 62, *rec.Humidity, 1e-9)
	require.NotNil(t, rec.Pressure)
	assert.InDelta(t, 1002, *rec.Pressure, 1e-9)
	assert.InDelta(t, 3.6, rec.WindSpeed, 1e-9)
	assert.InDelta(t, 290, rec.WindDirection, 1e-9)
	require.NotNil(t, rec.VisibilityKm)
	assert.InDelta(t, 3.5, *rec.VisibilityKm, 1e-9)
	require.NotNil(t, rec.Clouds)
	assert.InDelta(t, 40, *rec.Clouds, 1e-9)
	assert.Nil(t, rec.Precipitation)
	assert.Equal(t, weather.ConditionHaze, rec.Condition)
	assert.Equal(t, "haze", rec.Description)
}

func TestOpenWeather_Current_Rain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"main": {"temp": 24}, "rain": {"3h": 4.2}, "weather": [{"main": "Rain"}]}`))
	}))
	defer srv.Close()

	rec, err := testOpenWeather(srv.URL, time.Now()).Current(context.Background(), delhi)
	require.NoError(t, err)
	require.NotNil(t, rec.Precipitation)
	assert.InDelta(t, 4.2, *rec.Precipitation, 1e-9)
	assert.Nil(t, rec.Humidity)
}

func TestOpenWeather_Current_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unknown city", http.StatusNotFound, `{"cod":"404","message":"city not found"}`, weather.ErrBadStatus},
		{"bad key", http.StatusUnauthorized, `{"cod":401}`, weather.ErrBadStatus},
		{"server error", http.StatusInternalServerError, ``, weather.ErrBadStatus},
		{"rate limited", http.StatusTooManyRequests, ``, errRateLimited},
		{"malformed", http.StatusOK, `{"main":`, weather.ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := testOpenWeather(srv.URL, time.Now()).Current(context.Background(), delhi)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpenWeather_Current_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := testOpenWeather(url, time.Now()).Current(context.Background(), delhi)
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrUnavailable)
}

func TestOpenWeather_MissingKey(t *testing.T) {
	p := NewOpenWeatherProvider(testHTTPConfig(), "")

	_, err := p.Current(context.Background(), delhi)
	assert.ErrorIs(t, err, errMissingAPIKey)

	_, err = p.Geocode(context.Background(), delhi)
	assert.ErrorIs(t, err, errMissingAPIKey)
}

func TestOpenWeather_Geocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geo/1.0/direct", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))

		var body []map[string]any
		if r.URL.Query().Get("q") == "Delhi,in" {
			body = []map[string]any{{"name": "Delhi", "lat": 28.6517, "lon": 77.2219, "country": "IN"}}
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	defer srv.Close()

	p := testOpenWeather(srv.URL, time.Now())

	coords, err := p.Geocode(context.Background(), delhi)
	require.NoError(t, err)
	assert.InDelta(t, 28.6517, coords.Latitude, 1e-9)
	assert.InDelta(t, 77.2219, coords.Longitude, 1e-9)

	_, err = p.Geocode(context.Background(), weather.Location{City: "Atlantis", Country: "in"})
	assert.ErrorIs(t, err, weather.ErrLocationNotFound)
}
