package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-co-op/gocron"
)

// Job is one scheduled run, typically an update followed by chart rendering.
type Job func(ctx context.Context) error

// Scheduler runs a job every day at fixed wall-clock times. A run that is
// still busy when the next time arrives makes that time be skipped; missed
// times are never replayed.
type Scheduler struct {
	scheduler *gocron.Scheduler
	times     []string
	job       Job
	logger    *slog.Logger

	// ctx is cancelled by Stop so a running job can wind down.
	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*Scheduler)

// WithLocation sets the time zone the daily times are read in. Default UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		s.scheduler.ChangeLocation(loc)
	}
}

// New creates a Scheduler for the given HH:MM times.
func New(times []string, job Job, logger *slog.Logger, opts ...Option) (*Scheduler, error) {
	for _, t := range times {
		if _, err := time.Parse("15:04", t); err != nil {
			return nil, fmt.Errorf("invalid schedule time %q", t)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		times:     times,
		job:       job,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
	s.scheduler.SingletonModeAll()
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start registers the daily job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.times) == 0 {
		s.logger.Warn("scheduler: no times configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(1).Day().At(strings.Join(s.times, ";")).Do(s.run)
	if err != nil {
		return fmt.Errorf("schedule job: %w", err)
	}

	s.scheduler.StartAsync()
	if next := s.NextRun(); !next.IsZero() {
		s.logger.Info("scheduler started", "times", s.times, "next_run", next)
	}
	return nil
}

// RunNow executes the job once on the calling goroutine.
func (s *Scheduler) RunNow() error {
	return s.job(s.ctx)
}

func (s *Scheduler) run() {
	s.logger.Info("scheduler: running scheduled job")
	if err := s.job(s.ctx); err != nil {
		s.logger.Error("scheduler: job failed", "error", err)
		return
	}
	s.logger.Info("scheduler: completed scheduled job", "next_run", s.NextRun())
}

// NextRun returns the time of the next scheduled run, zero when nothing is scheduled.
func (s *Scheduler) NextRun() time.Time {
	job, next := s.scheduler.NextRun()
	if job == nil {
		return time.Time{}
	}
	return next
}

// Stop cancels the running job, if any, and stops future runs.
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
}
