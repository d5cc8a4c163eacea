package analysis

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-pulse/internal/weather"
)

var base = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func cityRecords(city string, temps ...float64) []weather.Record {
	out := make([]weather.Record, len(temps))
	for i, t := range temps {
		out[i] = weather.Record{City: city, Timestamp: base.AddDate(0, 0, i), Kind: weather.KindHistorical, Temperature: t}
	}
	return out
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// delhiTemps has mean 25.7222 and sample deviation 6.0566, giving z-scores of
// -2.5959 for 10 and 3.1829 for 45.
func delhiTemps() []float64 {
	temps := append(repeat(25, 8), repeat(26, 8)...)
	return append(temps, 10, 45)
}

func TestDetectAnomalies_FlagsBothTails(t *testing.T) {
	records := cityRecords("Delhi", delhiTemps()...)

	got := DetectAnomalies(records, DefaultOptions())

	require.Len(t, got, 2)
	assert.InDelta(t, 10, got[0].Temperature, 1e-9)
	assert.InDelta(t, -2.5959, got[0].ZScore, 1e-4)
	assert.Equal(t, base.AddDate(0, 0, 16), got[0].Timestamp)
	assert.InDelta(t, 45, got[1].Temperature, 1e-9)
	assert.InDelta(t, 3.1829, got[1].ZScore, 1e-4)
}

func TestDetectAnomalies_SkipsSmallCities(t *testing.T) {
	records := cityRecords("Shimla", 10, 10, 10, 40)

	assert.Empty(t, DetectAnomalies(records, DefaultOptions()))
	assert.Empty(t, DetectAnomalies(records, Options{Threshold: 0.1, MinSamples: 5}))
	assert.NotEmpty(t, DetectAnomalies(records, Options{Threshold: 0.1, MinSamples: 4}))
}

func TestDetectAnomalies_ZeroSpread(t *testing.T) {
	records := cityRecords("Panaji", repeat(29.3, 12)...)

	assert.Empty(t, DetectAnomalies(records, Options{Threshold: 0, MinSamples: 5}))
}

func TestDetectAnomalies_ThresholdIsStrict(t *testing.T) {
	// mean 18, sample deviation 17.8885, z of 50 is exactly 4/sqrt(5).
	records := cityRecords("Agra", 10, 10, 10, 10, 50)

	assert.Empty(t, DetectAnomalies(records, DefaultOptions()))

	got := DetectAnomalies(records, Options{Threshold: 1.5, MinSamples: 5})
	require.Len(t, got, 1)
	assert.InDelta(t, 1.7889, got[0].ZScore, 1e-4)
}

func TestDetectAnomalies_ThresholdMonotonic(t *testing.T) {
	records := append(cityRecords("Delhi", delhiTemps()...), cityRecords("Agra", 10, 10, 10, 10, 50)...)

	prev := len(records) + 1
	for _, th := range []float64{0.1, 0.5, 1, 1.5, 2, 2.6, 3, 3.5} {
		n := len(DetectAnomalies(records, Options{Threshold: th, MinSamples: 5}))
		assert.LessOrEqual(t, n, prev, "threshold %v", th)
		prev = n
	}
}

func TestDetectAnomalies_OrderByCityFirstAppearanceThenRecord(t *testing.T) {
	agra := cityRecords("Agra", 10, 10, 10, 10, 50)
	delhi := cityRecords("Delhi", delhiTemps()...)

	var records []weather.Record
	records = append(records, delhi[0], agra[0])
	records = append(records, agra[1:]...)
	records = append(records, delhi[1:]...)

	got := DetectAnomalies(records, Options{Threshold: 1.5, MinSamples: 5})

	var cities []string
	for _, a := range got {
		cities = append(cities, a.City)
	}
	want := []string{"Delhi", "Delhi", "Agra"}
	if diff := cmp.Diff(want, cities); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectAnomalies_CitiesAreIndependent(t *testing.T) {
	hot := cityRecords("Nagpur", repeat(45, 6)...)
	delhi := cityRecords("Delhi", delhiTemps()...)

	alone := DetectAnomalies(delhi, DefaultOptions())
	mixed := DetectAnomalies(append(hot, delhi...), DefaultOptions())

	if diff := cmp.Diff(alone, mixed); diff != "" {
		t.Errorf("other cities changed Delhi's anomalies (-alone +mixed):\n%s", diff)
	}
}

func TestDetectAnomalies_EmptyInput(t *testing.T) {
	assert.Empty(t, DetectAnomalies(nil, DefaultOptions()))
}

func TestCountAnomalies(t *testing.T) {
	count := CountAnomalies(DefaultOptions())
	assert.Equal(t, 2, count(cityRecords("Delhi", delhiTemps()...)))
}
