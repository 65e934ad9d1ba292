// Package scheduler reloads the vademecum dataset at fixed times of day and
// watches how old the served snapshot gets.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/giygas/vademecum-api/data"
	"github.com/giygas/vademecum-api/interfaces"
	"github.com/giygas/vademecum-api/logging"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// staleWarning is the snapshot age past which the monitor starts warning
const staleWarning = 48 * time.Hour

// Reloader swaps in a freshly fetched snapshot
type Reloader interface {
	Reload(ctx context.Context) error
}

// Scheduler runs dataset reloads and health monitoring using dependency injection
type Scheduler struct {
	dataStore interfaces.DataStore
	reloader  Reloader
	schedule  string
	timeout   time.Duration

	scheduler *gocron.Scheduler
	job       *gocron.Job

	stopOnce sync.Once
	stop     chan struct{}
}

// NewScheduler creates a scheduler that reloads at each "HH:MM" time of
// schedule (separated by ';'). timeout bounds a single reload.
func NewScheduler(dataStore interfaces.DataStore, reloader Reloader, schedule string, timeout time.Duration) *Scheduler {
	return &Scheduler{
		dataStore: dataStore,
		reloader:  reloader,
		schedule:  schedule,
		timeout:   timeout,
		scheduler: gocron.NewScheduler(time.Local),
		stop:      make(chan struct{}),
	}
}

// Start schedules the reloads and starts health monitoring
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		return fmt.Errorf("no reload schedule configured")
	}

	job, err := s.scheduler.Every(1).Days().At(s.schedule).SingletonMode().Do(func() {
		if err := s.reload(); err != nil {
			logging.Error("Scheduled dataset reload failed", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule reloads", "schedule", s.schedule, "error", err)
		return fmt.Errorf("failed to schedule reloads: %w", err)
	}
	s.job = job

	s.scheduler.StartAsync()
	s.startHealthMonitoring()

	logging.Info("Dataset reloads scheduled", "schedule", s.schedule, "next_run", job.NextRun().Format(time.RFC3339))

	return nil
}

// Stop stops the scheduler and the health monitor
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.scheduler.Stop()
	})
}

// NextRun returns the next scheduled reload, or the zero time before Start
func (s *Scheduler) NextRun() time.Time {
	if s.job == nil {
		return time.Time{}
	}
	return s.job.NextRun()
}

// reload runs one reload. A reload already in progress is not an error.
func (s *Scheduler) reload() error {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	logging.Info(fmt.Sprintf("Starting dataset reload at: %s", time.Now().Format(time.RFC3339)))
	start := time.Now()

	err := s.reloader.Reload(ctx)
	if errors.Is(err, data.ErrUpdateInProgress) {
		logging.Info("Reload already in progress, skipping...")
		return nil
	}
	if err != nil {
		return err
	}

	logging.Info("Dataset reload completed",
		"duration", time.Since(start).String(),
		"compounds", s.dataStore.CompoundCount(),
		"brands", s.dataStore.BrandCount())

	return nil
}

// startHealthMonitoring warns hourly while the snapshot is stale
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.checkStaleness(time.Now())
			}
		}
	}()
}

// checkStaleness reports whether the snapshot is older than staleWarning,
// logging a warning when it is
func (s *Scheduler) checkStaleness(now time.Time) bool {
	lastUpdate := s.dataStore.GetLastUpdated()
	if lastUpdate.IsZero() || now.Sub(lastUpdate) <= staleWarning {
		return false
	}
	logging.Warn("Dataset hasn't been reloaded in over 48 hours", "last_update", lastUpdate.Format(time.RFC3339))
	return true
}
