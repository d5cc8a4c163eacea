package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-pulse/internal/weather"
)

func TestGoogleGeocoder(t *testing.T) {
	g := NewGoogleGeocoder(testAPIKey)

	var seenKey string
	var seen geocoder.Address
	g.lookup = func(addr geocoder.Address) (geocoder.Location, error) {
		seenKey = geocoder.ApiKey
		seen = addr
		switch addr.City {
		case "Shimla":
			return geocoder.Location{Latitude: 31.1048, Longitude: 77.1734}, nil
		case "Atlantis":
			return geocoder.Location{}, errors.New("ZERO_RESULTS")
		default:
			return geocoder.Location{}, errors.New("OVER_QUERY_LIMIT")
		}
	}

	coords, err := g.Geocode(context.Background(), weather.Location{City: "Shimla", Country: "in"})
	require.NoError(t, err)
	assert.InDelta(t, 31.1048, coords.Latitude, 1e-9)
	assert.Equal(t, testAPIKey, seenKey)
	assert.Equal(t, "in", seen.Country)

	_, err = g.Geocode(context.Background(), weather.Location{City: "Atlantis"})
	assert.ErrorIs(t, err, weather.ErrLocationNotFound)

	_, err = g.Geocode(context.Background(), weather.Location{City: "Elsewhere"})
	assert.ErrorIs(t, err, weather.ErrUnavailable)
}

func TestGoogleGeocoder_RequiresKeyAndLiveContext(t *testing.T) {
	_, err := NewGoogleGeocoder("").Geocode(context.Background(), delhi)
	assert.ErrorIs(t, err, errMissingAPIKey)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewGoogleGeocoder(testAPIKey).Geocode(ctx, delhi)
	assert.ErrorIs(t, err, context.Canceled)
}
