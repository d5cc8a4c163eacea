package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-pulse/internal/observability"
	"github.com/i474232898/weather-pulse/internal/weather"
)

const archiveBody = `{
	"latitude": 28.625,
	"longitude": 77.25,
	"daily": {
		"time": ["2024-06-01", "2024-06-02", "2024-06-03"],
		"temperature_2m_max": [41.2, 40.1, null],
		"temperature_2m_min": [29.0, 28.4, null],
		"temperature_2m_mean": [35.1, 34.0, null],
		"apparent_temperature_mean": [38.0, 36.9, null],
		"precipitation_sum": [0.0, null, null],
		"wind_speed_10m_max": [4.5, 3.9, null],
		"wind_direction_10m_dominant": [300, 285, null],
		"et0_fao_evapotranspiration": [7.1, 6.8, null]
	}
}`

func testOpenMeteo(baseURL string, et0AsHumidity bool) *OpenMeteoProvider {
	p := NewOpenMeteoProvider(testHTTPConfig(), observability.DiscardLogger(), et0AsHumidity)
	p.baseURL = baseURL
	return p
}

func TestOpenMeteo_History_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "28.6517", q.Get("latitude"))
		assert.Equal(t, "77.2219", q.Get("longitude"))
		assert.Equal(t, "2024-06-01", q.Get("start_date"))
		assert.Equal(t, "2024-06-03", q.Get("end_date"))
		assert.Equal(t, openMeteoDailyFields, q.Get("daily"))
		assert.Equal(t, "auto", q.Get("timezone"))
		assert.Equal(t, "ms", q.Get("wind_speed_unit"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(archiveBody))
	}))
	defer srv.Close()

	coords := weather.Coordinates{Latitude: 28.6517, Longitude: 77.2219}
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 3, 6, 0, 0, 0, time.UTC)

	records, err := testOpenMeteo(srv.URL, false).History(context.Background(), delhi, coords, start, end)
	require.NoError(t, err)

	// The all-null third day is skipped.
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "Delhi|2024-06-01", first.Key())
	assert.Equal(t, weather.KindHistorical, first.Kind)
	assert.InDelta(t, 35.1, first.Temperature, 1e-9)
	assert.InDelta(t, 38.0, first.FeelsLike, 1e-9)
	assert.InDelta(t, 41.2, *first.TemperatureMax, 1e-9)
	assert.InDelta(t, 29.0, *first.TemperatureMin, 1e-9)
	assert.InDelta(t, 4.5, first.WindSpeed, 1e-9)
	assert.InDelta(t, 300, first.WindDirection, 1e-9)
	assert.InDelta(t, 0.0, *first.Precipitation, 1e-9)
	assert.InDelta(t, 7.1, *first.Evapotranspiration, 1e-9)
	assert.Nil(t, first.Humidity)

	assert.Nil(t, records[1].Precipitation)
}

func TestOpenMeteo_History_ET0AsHumidity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(archiveBody))
	}))
	defer srv.Close()

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	records, err := testOpenMeteo(srv.URL, true).History(context.Background(), delhi, weather.Coordinates{}, start, start.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.NotEmpty(t, records)
	require.NotNil(t, records[0].Humidity)
	assert.InDelta(t, 7.1, *records[0].Humidity, 1e-9)
}

func TestOpenMeteo_History_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":true,"reason":"Parameter 'start_date' is out of allowed range"}`))
	}))
	defer srv.Close()

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	p := testOpenMeteo(srv.URL, false)

	_, err := p.History(context.Background(), delhi, weather.Coordinates{}, start, start.AddDate(0, 0, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrBadStatus)
	assert.Contains(t, err.Error(), "out of allowed range")

	_, err = p.History(context.Background(), delhi, weather.Coordinates{}, start, start.AddDate(0, 0, -1))
	assert.Error(t, err)
}

func TestOpenMeteo_History_BadDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"daily": {"time": ["June 1st"], "temperature_2m_mean": [30]}}`))
	}))
	defer srv.Close()

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := testOpenMeteo(srv.URL, false).History(context.Background(), delhi, weather.Coordinates{}, start, start)
	assert.ErrorIs(t, err, weather.ErrMalformed)
}
