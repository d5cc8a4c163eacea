package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-pulse/internal/common"
	"github.com/i474232898/weather-pulse/internal/weather"
)

// keyMu guards the package-level API key of the geocoder library.
var keyMu sync.Mutex

// GoogleGeocoder resolves locations with the Google Geocoding API.
type GoogleGeocoder struct {
	apiKey string
	lookup func(geocoder.Address) (geocoder.Location, error)
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{apiKey: apiKey, lookup: geocoder.Geocoding}
}

// Geocode blocks until the library returns; ctx is only checked up front
// because the library does not accept one.
func (g *GoogleGeocoder) Geocode(ctx context.Context, loc weather.Location) (weather.Coordinates, error) {
	if g.apiKey == "" {
		return weather.Coordinates{}, fmt.Errorf("google geocode: %w", errMissingAPIKey)
	}
	if err := ctx.Err(); err != nil {
		return weather.Coordinates{}, err
	}

	keyMu.Lock()
	geocoder.ApiKey = g.apiKey
	found, err := g.lookup(geocoder.Address{City: loc.City, Country: loc.Country})
	keyMu.Unlock()

	if err != nil {
		if common.HasAny(err.Error(), "zero_results", "no results") {
			return weather.Coordinates{}, fmt.Errorf("google geocode %s: %w", loc.City, weather.ErrLocationNotFound)
		}
		return weather.Coordinates{}, fmt.Errorf("google geocode %s: %w: %v", loc.City, weather.ErrUnavailable, err)
	}
	if found.Latitude == 0 && found.Longitude == 0 {
		return weather.Coordinates{}, fmt.Errorf("google geocode %s: %w", loc.City, weather.ErrLocationNotFound)
	}
	return weather.Coordinates{Latitude: found.Latitude, Longitude: found.Longitude}, nil
}
