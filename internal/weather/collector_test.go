package weather

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-pulse/internal/observability"
)

var testNow = time.Date(2024, 6, 15, 6, 0, 0, 0, time.UTC)

func locs(cities ...string) []Location {
	out := make([]Location, len(cities))
	for i, c := range cities {
		out[i] = Location{City: c, Country: "in"}
	}
	return out
}

func newTestCollector(cur CurrentProvider, hist HistoricalProvider, geo Geocoder, opts ...CollectorOption) (*Collector, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	opts = append([]CollectorOption{WithDelay(0), WithClock(clockwork.NewFakeClockAt(testNow))}, opts...)
	return NewCollector(cur, hist, geo, observability.DiscardLogger(), metrics, opts...), metrics
}

func TestCollector_CollectsCurrentAndHistory(t *testing.T) {
	cur := &fakeCurrent{now: testNow}
	hist := &fakeHistorical{daysToEmit: 3}
	c, metrics := newTestCollector(cur, hist, &fakeGeocoder{}, WithHistoryDays(30))

	records, err := c.Collect(context.Background(), locs("Delhi", "Pune"))
	require.NoError(t, err)

	assert.Len(t, records, 8)
	assert.Equal(t, []string{"Delhi", "Pune"}, cur.calls)
	require.Len(t, hist.starts, 2)
	assert.Equal(t, testNow.AddDate(0, 0, -30), hist.starts[0])
	assert.Equal(t, testNow, hist.ends[0])

	assert.InDelta(t, 2, testutil.ToFloat64(metrics.RecordsCollected.WithLabelValues("current")), 1e-9)
	assert.InDelta(t, 6, testutil.ToFloat64(metrics.RecordsCollected.WithLabelValues("historical")), 1e-9)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.FetchRequests.WithLabelValues("geocode", "success")), 1e-9)
}

func TestCollector_FailureForOneCityDoesNotStopOthers(t *testing.T) {
	cur := &fakeCurrent{now: testNow, fail: map[string]error{"Delhi": fmt.Errorf("boom: %w", ErrUnavailable)}}
	hist := &fakeHistorical{daysToEmit: 2, fail: map[string]error{"Pune": fmt.Errorf("status 500: %w", ErrBadStatus)}}
	c, metrics := newTestCollector(cur, hist, &fakeGeocoder{})

	records, err := c.Collect(context.Background(), locs("Delhi", "Pune", "Agra"))
	require.NoError(t, err)

	// Delhi: history only. Pune: current only. Agra: both.
	var delhi, pune, agra int
	for _, r := range records {
		switch r.City {
		case "Delhi":
			delhi++
			assert.Equal(t, KindHistorical, r.Kind)
		case "Pune":
			pune++
			assert.Equal(t, KindCurrent, r.Kind)
		case "Agra":
			agra++
		}
	}
	assert.Equal(t, 2, delhi)
	assert.Equal(t, 1, pune)
	assert.Equal(t, 3, agra)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FetchRequests.WithLabelValues("current", "unavailable")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FetchRequests.WithLabelValues("historical", "bad_status")), 1e-9)
}

func TestCollector_GeocodeFailureSkipsHistory(t *testing.T) {
	cur := &fakeCurrent{now: testNow}
	hist := &fakeHistorical{daysToEmit: 5}
	geo := &fakeGeocoder{unknown: map[string]bool{"Atlantis": true}}
	c, metrics := newTestCollector(cur, hist, geo)

	records, err := c.Collect(context.Background(), locs("Atlantis"))
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, KindCurrent, records[0].Kind)
	assert.Empty(t, hist.starts)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FetchRequests.WithLabelValues("geocode", "not_found")), 1e-9)
}

func TestCollector_NoHistoricalProvider(t *testing.T) {
	cur := &fakeCurrent{now: testNow}
	geo := &fakeGeocoder{}
	c, _ := newTestCollector(cur, nil, geo)

	records, err := c.Collect(context.Background(), locs("Delhi"))
	require.NoError(t, err)

	assert.Len(t, records, 1)
	assert.Zero(t, geo.calls)
}

func TestCollector_WaitsBetweenLocations(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testNow)
	cur := &fakeCurrent{now: testNow}
	c, _ := newTestCollector(cur, nil, nil, WithClock(clock), WithDelay(5*time.Second))

	done := make(chan []Record, 1)
	go func() {
		records, _ := c.Collect(context.Background(), locs("Delhi", "Pune"))
		done <- records
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	select {
	case <-done:
		t.Fatal("collector did not wait between locations")
	default:
	}

	clock.Advance(5 * time.Second)

	select {
	case records := <-done:
		assert.Len(t, records, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not resume after delay")
	}
}

func TestCollector_CancelDuringDelay(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testNow)
	cur := &fakeCurrent{now: testNow}
	c, _ := newTestCollector(cur, nil, nil, WithClock(clock), WithDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := c.Collect(ctx, locs("Delhi", "Pune"))
		errc <- err
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("collector ignored cancellation")
	}
	assert.Equal(t, []string{"Delhi"}, cur.calls)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(nil))
	assert.Equal(t, "unavailable", Outcome(fmt.Errorf("x: %w", ErrUnavailable)))
	assert.Equal(t, "unavailable", Outcome(context.DeadlineExceeded))
	assert.Equal(t, "bad_status", Outcome(fmt.Errorf("x: %w", ErrBadStatus)))
	assert.Equal(t, "malformed", Outcome(fmt.Errorf("x: %w", ErrMalformed)))
	assert.Equal(t, "not_found", Outcome(ErrLocationNotFound))
	assert.Equal(t, "error", Outcome(fmt.Errorf("other")))
}
