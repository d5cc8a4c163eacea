package providers

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/i474232898/weather-pulse/internal/observability"
	"github.com/i474232898/weather-pulse/internal/weather"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache.
type CachedGeocoder struct {
	inner   weather.Geocoder
	metrics *observability.Metrics
	cache   *lru.Cache[string, weather.Coordinates]
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner weather.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	if maxEntries < 1 {
		maxEntries = 1
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, weather.Coordinates](maxEntries)
	return &CachedGeocoder{
		inner:   inner,
		metrics: metrics,
		cache:   cache,
	}
}

func (c *CachedGeocoder) Geocode(ctx context.Context, loc weather.Location) (weather.Coordinates, error) {
	key := loc.Key()
	if coords, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return coords, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	coords, err := c.inner.Geocode(ctx, loc)
	if err != nil {
		// Failures are not cached so the next round retries them.
		return coords, err
	}
	c.cache.Add(key, coords)
	return coords, nil
}

// Len reports the number of cached locations.
func (c *CachedGeocoder) Len() int {
	return c.cache.Len()
}
