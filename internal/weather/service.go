package weather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-pulse/internal/observability"
)

// RunSummary describes one update of the master dataset.
type RunSummary struct {
	RunID        string        `json:"run_id"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Collected    int           `json:"collected"`
	MasterRows   int           `json:"master_rows"`
	SnapshotPath string        `json:"snapshot_path"`
}

// AnomalyCounter reports how many anomalies a table contains. It is satisfied
// by a closure over the analysis package so this package stays free of it.
type AnomalyCounter func(records []Record) int

// Service orchestrates collection, merging, persistence and the read index.
type Service struct {
	collector *Collector
	master    MasterStore
	index     Index
	mirror    Mirror
	anomalies AnomalyCounter

	locations []Location
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithMirror attaches a secondary store that receives every merged table.
func WithMirror(m Mirror) ServiceOption {
	return func(s *Service) { s.mirror = m }
}

// WithAnomalyCounter logs and exports the anomaly count after each run.
func WithAnomalyCounter(fn AnomalyCounter) ServiceOption {
	return func(s *Service) { s.anomalies = fn }
}

// WithServiceClock swaps the time source used for snapshot names.
func WithServiceClock(c clockwork.Clock) ServiceOption {
	return func(s *Service) { s.clock = c }
}

// NewService creates a new Service.
func NewService(
	collector *Collector,
	master MasterStore,
	index Index,
	locations []Location,
	logger *slog.Logger,
	metrics *observability.Metrics,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		collector: collector,
		master:    master,
		index:     index,
		locations: locations,
		clock:     clockwork.NewRealClock(),
		logger:    logger,
		metrics:   metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Locations returns the configured location list.
func (s *Service) Locations() []Location {
	return s.locations
}

// Update runs one collection round for the configured locations and folds the
// result into the master table.
func (s *Service) Update(ctx context.Context) (RunSummary, error) {
	return s.UpdateLocations(ctx, s.locations)
}

// UpdateLocations is Update restricted to locs. Snapshot and master writes are
// the only fatal failures; a mirror failure is logged.
func (s *Service) UpdateLocations(ctx context.Context, locs []Location) (RunSummary, error) {
	started := s.clock.Now()
	summary := RunSummary{RunID: uuid.NewString(), StartedAt: Naive(started)}
	logger := s.logger.With("run_id", summary.RunID)

	summary, err := s.update(ctx, logger, locs, summary)
	summary.Duration = s.clock.Since(started)
	s.metrics.RunDuration.Observe(summary.Duration.Seconds())
	if err != nil {
		s.metrics.Runs.WithLabelValues("error").Inc()
		logger.Error("master dataset update failed", "error", err)
		return summary, err
	}
	s.metrics.Runs.WithLabelValues("success").Inc()
	logger.Info("master dataset updated",
		"collected", summary.Collected,
		"master_rows", summary.MasterRows,
		"snapshot", summary.SnapshotPath,
		"duration", summary.Duration,
	)
	return summary, nil
}

func (s *Service) update(ctx context.Context, logger *slog.Logger, locs []Location, summary RunSummary) (RunSummary, error) {
	logger.Info("collecting weather data", "locations", len(locs))

	incoming, err := s.collector.Collect(ctx, locs)
	if err != nil {
		return summary, fmt.Errorf("collect: %w", err)
	}
	summary.Collected = len(incoming)
	if len(incoming) == 0 {
		logger.Warn("no records collected this round")
	}

	path, err := s.master.WriteSnapshot(summary.StartedAt, incoming)
	if err != nil {
		return summary, fmt.Errorf("write snapshot: %w", err)
	}
	summary.SnapshotPath = path

	master, err := s.master.Load()
	if err != nil {
		return summary, fmt.Errorf("load master: %w", err)
	}

	merged := Merge(master, incoming)
	if err := s.master.Save(merged); err != nil {
		return summary, fmt.Errorf("save master: %w", err)
	}
	summary.MasterRows = len(merged)
	s.metrics.MasterRows.Set(float64(len(merged)))

	if s.mirror != nil {
		if err := s.mirror.Upsert(ctx, merged); err != nil {
			logger.Error("mirror upsert failed", "error", err)
		}
	}

	if s.index != nil {
		s.index.Replace(merged)
	}

	if s.anomalies != nil {
		n := s.anomalies(merged)
		s.metrics.AnomaliesDetected.Set(float64(n))
		logger.Info("temperature anomalies detected", "count", n)
	}

	return summary, nil
}

// Reload replaces the read index with the master table on disk.
func (s *Service) Reload() (int, error) {
	records, err := s.master.Load()
	if err != nil {
		return 0, fmt.Errorf("load master: %w", err)
	}
	if s.index != nil {
		s.index.Replace(records)
	}
	s.metrics.MasterRows.Set(float64(len(records)))
	return len(records), nil
}

// Records returns every record in the read index. A service built without an
// index has no records.
func (s *Service) Records() []Record {
	if s.index == nil {
		return nil
	}
	return s.index.Records()
}

// Cities lists the cities present in the read index.
func (s *Service) Cities() []string {
	if s.index == nil {
		return nil
	}
	return s.index.Cities()
}

// GetLatest delegates to the underlying index.
func (s *Service) GetLatest(city string) (Record, error) {
	if s.index == nil {
		return Record{}, fmt.Errorf("%s: %w", city, ErrNotFound)
	}
	return s.index.GetLatest(city)
}

// GetRange delegates to the underlying index.
func (s *Service) GetRange(city string, from, to time.Time) ([]Record, error) {
	if s.index == nil {
		return nil, fmt.Errorf("%s: %w", city, ErrNotFound)
	}
	return s.index.GetRange(city, from, to)
}
