package weather

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-pulse/internal/observability"
)

// Collector walks the location list once, sequentially, pausing between locations.
// A failure for one location never stops the walk.
type Collector struct {
	current    CurrentProvider
	historical HistoricalProvider
	geocoder   Geocoder

	historyDays int
	delay       time.Duration

	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// CollectorOption customises a Collector.
type CollectorOption func(*Collector)

// WithClock swaps the time source used for archive windows and delays.
func WithClock(c clockwork.Clock) CollectorOption {
	return func(col *Collector) { col.clock = c }
}

// WithDelay sets the pause between two locations.
func WithDelay(d time.Duration) CollectorOption {
	return func(col *Collector) { col.delay = d }
}

// WithHistoryDays sets how many days of archive data are requested per location.
func WithHistoryDays(days int) CollectorOption {
	return func(col *Collector) { col.historyDays = days }
}

// NewCollector creates a Collector. historical and geocoder may be nil to skip archive data.
func NewCollector(
	current CurrentProvider,
	historical HistoricalProvider,
	geocoder Geocoder,
	logger *slog.Logger,
	metrics *observability.Metrics,
	opts ...CollectorOption,
) *Collector {
	c := &Collector{
		current:     current,
		historical:  historical,
		geocoder:    geocoder,
		historyDays: 30,
		delay:       5 * time.Second,
		clock:       clockwork.NewRealClock(),
		logger:      logger,
		metrics:     metrics,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect fetches current and historical records for every location. The only
// error returned is the context error when ctx is cancelled mid-walk; records
// gathered so far are returned alongside it.
func (c *Collector) Collect(ctx context.Context, locs []Location) ([]Record, error) {
	var records []Record
	for i, loc := range locs {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		records = append(records, c.CollectLocation(ctx, loc)...)

		if i < len(locs)-1 && c.delay > 0 {
			select {
			case <-ctx.Done():
				return records, ctx.Err()
			case <-c.clock.After(c.delay):
			}
		}
	}
	return records, nil
}

// CollectLocation gathers whatever one location yields this round: at most one
// current record plus the daily archive window.
func (c *Collector) CollectLocation(ctx context.Context, loc Location) []Record {
	var records []Record

	if c.current != nil {
		rec, err := c.current.Current(ctx, loc)
		c.observe("current", err)
		if err != nil {
			c.logger.Warn("current weather fetch failed", "city", loc.City, "provider", c.current.Name(), "error", err)
		} else {
			records = append(records, rec)
			c.metrics.RecordsCollected.WithLabelValues(string(KindCurrent)).Inc()
		}
	}

	if c.historical == nil || c.geocoder == nil {
		return records
	}

	coords, err := c.geocoder.Geocode(ctx, loc)
	c.observe("geocode", err)
	if err != nil {
		c.logger.Warn("geocoding failed; skipping history", "city", loc.City, "error", err)
		return records
	}

	end := Naive(c.clock.Now())
	start := end.AddDate(0, 0, -c.historyDays)
	history, err := c.historical.History(ctx, loc, coords, start, end)
	c.observe("historical", err)
	if err != nil {
		c.logger.Warn("historical weather fetch failed", "city", loc.City, "provider", c.historical.Name(), "error", err)
		return records
	}
	c.metrics.RecordsCollected.WithLabelValues(string(KindHistorical)).Add(float64(len(history)))

	c.logger.Debug("collected location", "city", loc.City, "current", len(records) > 0, "historical", len(history))
	return append(records, history...)
}

func (c *Collector) observe(source string, err error) {
	c.metrics.FetchRequests.WithLabelValues(source, Outcome(err)).Inc()
}

// Outcome classifies a fetch error into a metrics label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return "unavailable"
	case errors.Is(err, ErrBadStatus):
		return "bad_status"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrLocationNotFound):
		return "not_found"
	default:
		return "error"
	}
}
