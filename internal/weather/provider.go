package weather

import (
	"context"
	"time"
)

// CurrentProvider returns the live observation for a location.
type CurrentProvider interface {
	Name() string
	Current(ctx context.Context, loc Location) (Record, error)
}

// HistoricalProvider returns one record per day in [start, end].
type HistoricalProvider interface {
	Name() string
	History(ctx context.Context, loc Location, coords Coordinates, start, end time.Time) ([]Record, error)
}

// Geocoder resolves a named location to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, loc Location) (Coordinates, error)
}

// MasterStore persists the cumulative table and per-run snapshots.
type MasterStore interface {
	Load() ([]Record, error)
	Save(records []Record) error
	WriteSnapshot(at time.Time, records []Record) (string, error)
}

// Index is the read side used by the HTTP API.
type Index interface {
	Replace(records []Record)
	GetLatest(city string) (Record, error)
	GetRange(city string, from, to time.Time) ([]Record, error)
	Records() []Record
	Cities() []string
}

// Mirror receives every merged table, e.g. a SQLite copy.
type Mirror interface {
	Upsert(ctx context.Context, records []Record) error
}
