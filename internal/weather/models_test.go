package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_KeyDependsOnKind(t *testing.T) {
	ts := time.Date(2024, 5, 17, 18, 0, 3, 0, time.UTC)

	assert.Equal(t, "Delhi|2024-05-17 18:00:03", Record{City: "Delhi", Timestamp: ts, Kind: KindCurrent}.Key())
	assert.Equal(t, "Delhi|2024-05-17", Record{City: "Delhi", Timestamp: ts, Kind: KindHistorical}.Key())
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-05-17 18:00:03", time.Date(2024, 5, 17, 18, 0, 3, 0, time.UTC)},
		{"2024-05-17", time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)},
		{"2024-05-17T18:00:03", time.Date(2024, 5, 17, 18, 0, 3, 0, time.UTC)},
		{"2024-05-17T18:00:03+05:30", time.Date(2024, 5, 17, 18, 0, 3, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %s", tt.in, got)
	}

	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestNaive_KeepsWallClock(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	in := time.Date(2024, 5, 17, 6, 0, 0, 999, ist)

	got := Naive(in)

	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, "2024-05-17 06:00:00", got.Format(CurrentLayout))
}

func TestLocation_Query(t *testing.T) {
	assert.Equal(t, "Delhi,in", Location{City: "Delhi", Country: "in"}.Query())
	assert.Equal(t, "Delhi", Location{City: "Delhi"}.Query())
	assert.Equal(t, Location{City: "delhi", Country: "IN"}.Key(), Location{City: "Delhi", Country: "in"}.Key())
}
