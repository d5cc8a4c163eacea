package weather

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type fakeCurrent struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
	now   time.Time
}

func (f *fakeCurrent) Name() string { return "fake-current" }

func (f *fakeCurrent) Current(_ context.Context, loc Location) (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, loc.City)
	if err := f.fail[loc.City]; err != nil {
		return Record{}, err
	}
	return Record{City: loc.City, Timestamp: f.now, Kind: KindCurrent, Temperature: 25}, nil
}

type fakeHistorical struct {
	mu         sync.Mutex
	starts     []time.Time
	ends       []time.Time
	fail       map[string]error
	daysToEmit int
}

func (f *fakeHistorical) Name() string { return "fake-archive" }

func (f *fakeHistorical) History(_ context.Context, loc Location, _ Coordinates, start, end time.Time) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, start)
	f.ends = append(f.ends, end)
	if err := f.fail[loc.City]; err != nil {
		return nil, err
	}
	var out []Record
	for i := 0; i < f.daysToEmit; i++ {
		out = append(out, Record{City: loc.City, Timestamp: start.AddDate(0, 0, i), Kind: KindHistorical, Temperature: float64(20 + i)})
	}
	return out, nil
}

type fakeGeocoder struct {
	unknown map[string]bool
	calls   int
}

func (f *fakeGeocoder) Geocode(_ context.Context, loc Location) (Coordinates, error) {
	f.calls++
	if f.unknown[loc.City] {
		return Coordinates{}, fmt.Errorf("geocode %s: %w", loc.City, ErrLocationNotFound)
	}
	return Coordinates{Latitude: 28.6, Longitude: 77.2}, nil
}

type memoryMaster struct {
	records   []Record
	snapshots map[string][]Record
	saveErr   error
	snapErr   error
	saves     int
}

func (m *memoryMaster) Load() ([]Record, error) {
	return append([]Record(nil), m.records...), nil
}

func (m *memoryMaster) Save(records []Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.records = append([]Record(nil), records...)
	return nil
}

func (m *memoryMaster) WriteSnapshot(at time.Time, records []Record) (string, error) {
	if m.snapErr != nil {
		return "", m.snapErr
	}
	if m.snapshots == nil {
		m.snapshots = make(map[string][]Record)
	}
	name := "snapshot_" + at.Format("20060102_150405") + ".csv"
	m.snapshots[name] = records
	return name, nil
}

type recordingIndex struct {
	records []Record
}

func (r *recordingIndex) Replace(records []Record) { r.records = records }
func (r *recordingIndex) GetLatest(string) (Record, error) {
	return Record{}, ErrNotFound
}
func (r *recordingIndex) GetRange(string, time.Time, time.Time) ([]Record, error) {
	return nil, ErrNotFound
}
func (r *recordingIndex) Records() []Record { return r.records }
func (r *recordingIndex) Cities() []string  { return nil }

type failingMirror struct{ calls int }

func (f *failingMirror) Upsert(context.Context, []Record) error {
	f.calls++
	return fmt.Errorf("disk full")
}
