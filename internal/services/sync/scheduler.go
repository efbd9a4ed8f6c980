package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/helpsync/internal/common"
)

// Scheduler triggers sync runs on a cron schedule. Runs never overlap: a
// trigger that fires while a run is still active is logged and skipped.
type Scheduler struct {
	coordinator *Coordinator
	cron        *cron.Cron
	logger      arbor.ILogger
	runTimeout  time.Duration

	mu       sync.Mutex
	inFlight bool
	started  bool
}

// NewScheduler creates a scheduler driving the coordinator. The cron
// expression passed to Start uses a seconds field. runTimeout bounds each
// run; a non-positive value falls back to ten minutes.
func NewScheduler(coordinator *Coordinator, runTimeout time.Duration, logger arbor.ILogger) *Scheduler {
	if runTimeout <= 0 {
		runTimeout = 10 * time.Minute
	}
	return &Scheduler{
		coordinator: coordinator,
		cron:        cron.New(cron.WithSeconds()),
		logger:      logger,
		runTimeout:  runTimeout,
	}
}

// Start begins scheduled execution.
func (s *Scheduler) Start(schedule string) error {
	if s.started {
		return fmt.Errorf("scheduler already running")
	}

	_, err := s.cron.AddFunc(schedule, s.runScheduled)
	if err != nil {
		return fmt.Errorf("failed to add cron schedule %q: %w", schedule, err)
	}

	s.cron.Start()
	s.started = true

	s.logger.Info().
		Str("schedule", schedule).
		Dur("run_timeout", s.runTimeout).
		Msg("Sync scheduler started")

	return nil
}

// Stop halts the scheduler and waits for any in-flight run to finish.
func (s *Scheduler) Stop() {
	if !s.started {
		return
	}

	<-s.cron.Stop().Done()
	s.started = false

	s.logger.Info().Msg("Sync scheduler stopped")
}

// TriggerNow starts a run immediately, outside the schedule. The overlap
// guard still applies.
func (s *Scheduler) TriggerNow() {
	s.logger.Info().Msg("Manual sync run triggered")
	common.SafeGo(s.logger, "manual-sync", s.runScheduled)
}

// IsRunning reports whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	return s.started
}

func (s *Scheduler) runScheduled() {
	// A panicking run must not take the scheduler down with it. The next
	// trigger starts a fresh run.
	defer func() {
		if r := recover(); r != nil {
			crashPath := common.WriteCrashFile(r, common.GetStackTrace())
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Str("crash_file", crashPath).
				Msg("Panic recovered in sync run")
		}
	}()

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous sync run still active, skipping trigger")
		return
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	report := s.coordinator.RunOnce(ctx)
	if !report.Succeeded() {
		s.logger.Error().
			Str("run_id", report.RunID).
			Str("error", report.Error).
			Msg("Scheduled sync run failed")
	}
}
