package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"studyflow-backend/models"
	"studyflow-backend/utils"
)

// CycleRunner runs one reminder cycle and reports its summary.
type CycleRunner interface {
	SendDailyReminders(ctx context.Context, trigger models.Trigger) models.DispatchSummary
}

type SchedulerState string

const (
	StateStopped   SchedulerState = "stopped"
	StateScheduled SchedulerState = "scheduled"
	StateRunning   SchedulerState = "running"
)

type SchedulerConfig struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// Scheduler owns the process' daily reminder timer and the manual trigger.
//
// At most one cycle runs at a time. A timer fire that finds a cycle running is
// skipped and logged; a manual trigger waits for the running cycle and then runs.
type Scheduler struct {
	runner CycleRunner
	cfg    SchedulerConfig
	log    zerolog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID

	cycle   sync.Mutex
	running atomic.Bool
	skipped atomic.Int64

	lastMu sync.RWMutex
	last   *models.DispatchSummary
}

func NewScheduler(runner CycleRunner, cfg SchedulerConfig, log zerolog.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Scheduler{
		runner: runner,
		cfg:    cfg,
		log:    log.With().Str("component", "scheduler").Logger(),
	}
}

// Start arms the daily timer. Calling Start on a started scheduler is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	spec := utils.DailyCronSpec(s.cfg.Hour, s.cfg.Minute)
	c := cron.New(cron.WithLocation(s.cfg.Location))
	id, err := c.AddFunc(spec, s.fire)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	c.Start()
	s.cron, s.entryID = c, id

	s.log.Info().
		Str("cron", spec).
		Str("tz", s.cfg.Location.String()).
		Time("next_run", c.Entry(id).Next).
		Msg("reminder scheduler started")
	return nil
}

// Stop disarms the timer and waits for a timer-driven cycle in flight, or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out waiting for running cycle")
	}
	s.log.Info().Msg("reminder scheduler stopped")
}

// TriggerNow runs a cycle synchronously and returns its summary, queueing behind any running cycle.
// Cancelling ctx does not stop the cycle; only its values are kept.
func (s *Scheduler) TriggerNow(ctx context.Context) models.DispatchSummary {
	ctx = context.WithoutCancel(ctx)
	s.log.Info().Msg("manual reminder trigger")
	s.cycle.Lock()
	defer s.cycle.Unlock()
	return s.run(ctx, models.TriggerManual)
}

func (s *Scheduler) fire() {
	if !s.cycle.TryLock() {
		n := s.skipped.Add(1)
		s.log.Warn().Int64("skipped_fires", n).Msg("reminder cycle already running, skipping timer fire")
		return
	}
	defer s.cycle.Unlock()
	s.run(context.Background(), models.TriggerTimer)
}

func (s *Scheduler) run(ctx context.Context, trigger models.Trigger) models.DispatchSummary {
	s.running.Store(true)
	defer s.running.Store(false)

	summary := s.safeRun(ctx, trigger)

	s.lastMu.Lock()
	s.last = &summary
	s.lastMu.Unlock()
	return summary
}

// safeRun keeps a panicking cycle from taking down the cron goroutine.
func (s *Scheduler) safeRun(ctx context.Context, trigger models.Trigger) (summary models.DispatchSummary) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Error().Interface("panic", p).Str("trigger", string(trigger)).Msg("reminder cycle panicked")
			now := time.Now()
			summary = models.DispatchSummary{
				Trigger:    trigger,
				Error:      fmt.Sprintf("cycle panicked: %v", p),
				StartedAt:  now,
				FinishedAt: now,
			}
		}
	}()
	return s.runner.SendDailyReminders(ctx, trigger)
}

func (s *Scheduler) State() SchedulerState {
	if s.running.Load() {
		return StateRunning
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return StateScheduled
	}
	return StateStopped
}

// NextRun returns the next timer fire, or false when the timer is not armed.
func (s *Scheduler) NextRun() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return time.Time{}, false
	}
	next := s.cron.Entry(s.entryID).Next
	return next, !next.IsZero()
}

func (s *Scheduler) SkippedFires() int64 {
	return s.skipped.Load()
}

func (s *Scheduler) LastSummary() (models.DispatchSummary, bool) {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	if s.last == nil {
		return models.DispatchSummary{}, false
	}
	return *s.last, true
}

func (s *Scheduler) Location() *time.Location { return s.cfg.Location }

func (s *Scheduler) ReminderTime() string {
	return fmt.Sprintf("%02d:%02d", s.cfg.Hour, s.cfg.Minute)
}
