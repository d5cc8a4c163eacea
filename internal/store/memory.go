package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/weather-pulse/internal/weather"
)

// cityHistory holds the records of one city ordered by timestamp.
type cityHistory struct {
	name    string
	records []weather.Record
}

// MemoryStore is a concurrency-safe in-memory index over the master table.
type MemoryStore struct {
	mu sync.RWMutex

	// key: lowercased city, value: history
	data map[string]*cityHistory
	// cities in order of first appearance in the table
	order []string
	all   []weather.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]*cityHistory)}
}

// Replace swaps the indexed table for records.
func (s *MemoryStore) Replace(records []weather.Record) {
	data := make(map[string]*cityHistory)
	var order []string
	for _, r := range records {
		key := cityKey(r.City)
		history, ok := data[key]
		if !ok {
			history = &cityHistory{name: r.City}
			data[key] = history
			order = append(order, r.City)
		}
		history.records = append(history.records, r)
	}
	for _, history := range data {
		sort.SliceStable(history.records, func(i, j int) bool {
			return history.records[i].Timestamp.Before(history.records[j].Timestamp)
		})
	}

	all := make([]weather.Record, len(records))
	copy(all, records)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.order = order
	s.all = all
}

// GetLatest returns the record with the newest timestamp for a city.
func (s *MemoryStore) GetLatest(city string) (weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[cityKey(city)]
	if !ok || len(history.records) == 0 {
		return weather.Record{}, weather.ErrNotFound
	}
	return history.records[len(history.records)-1], nil
}

// GetRange returns all records for a city between from and to (inclusive).
// A zero bound is open.
func (s *MemoryStore) GetRange(city string, from, to time.Time) ([]weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[cityKey(city)]
	if !ok || len(history.records) == 0 {
		return nil, weather.ErrNotFound
	}

	var result []weather.Record
	for _, r := range history.records {
		if !from.IsZero() && r.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && r.Timestamp.After(to) {
			continue
		}
		result = append(result, r)
	}
	return result, nil
}

// Records returns a copy of the indexed table in table order.
func (s *MemoryStore) Records() []weather.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]weather.Record, len(s.all))
	copy(out, s.all)
	return out
}

// Cities lists city names in order of first appearance.
func (s *MemoryStore) Cities() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func cityKey(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}
