// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

/*
scheduler.go - Unattended Backup Scheduling

The Scheduler owns the ScheduleState and a single re-arming timer. It is
either Idle (disabled, no timer) or Armed (one pending timer for the next
matching instant).

Loop:
  - Arm: compute the next run from the anchor (the instant that just fired,
    or now after a configuration change) and start a timer for it.
  - Fire: run one backup cycle, then arm again from the firing instant.
  - Wake: a configuration change drops the pending timer and arms again.

If a cycle overruns the following slot, the missed slot is skipped and the
next run is computed from the current time. A firing whose instant equals the
persisted lastRunAt is skipped so the same slot never runs twice.

Configuration updates hold the state mutex only long enough to swap the
state; they never wait for a running cycle. A cycle that is already running
finishes with the maxFiles it started with.

Cycle:
Under the store's write lock: produce a snapshot, write it, list the
directory, select the artifacts retention evicts and delete them. Individual
deletion failures are logged and reported but do not fail the cycle. On
success lastRunAt is set to the cycle's instant and persisted.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/backupd/internal/logging"
	"github.com/tomtom215/backupd/internal/metrics"
)

// Scheduler runs backups unattended according to a recurrence rule.
type Scheduler struct {
	store  *Store
	exec   *Executor
	states StateStore
	clock  Clock
	loc    *time.Location
	logger zerolog.Logger

	// mu guards state, nextRun and onCycle.
	mu      sync.Mutex
	state   ScheduleState
	nextRun time.Time
	onCycle func(CycleReport)

	// saveMu serializes read-modify-persist sequences so that a config update
	// and a completed cycle never persist out of order.
	saveMu sync.Mutex

	wake chan struct{}

	runMu   sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewScheduler creates an idle scheduler holding initial as its state.
func NewScheduler(store *Store, exec *Executor, states StateStore, clock Clock, loc *time.Location, initial ScheduleState) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		store:  store,
		exec:   exec,
		states: states,
		clock:  clock,
		loc:    loc,
		logger: logging.WithComponent("backup-scheduler"),
		state:  initial.clone(),
		wake:   make(chan struct{}, 1),
	}
}

// SetOnCycle registers a callback invoked after every cycle, successful or not.
func (s *Scheduler) SetOnCycle(fn func(CycleReport)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCycle = fn
}

// State returns a copy of the current schedule state.
func (s *Scheduler) State() ScheduleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// NextRunAt returns the instant the pending timer fires at, and false when idle.
func (s *Scheduler) NextRunAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRun, !s.nextRun.IsZero()
}

// Location returns the time zone rules are evaluated in.
func (s *Scheduler) Location() *time.Location {
	return s.loc
}

// Start launches the timer loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.running {
		return fmt.Errorf("backup scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go s.run(ctx)

	st := s.State()
	s.logger.Info().
		Bool("enabled", st.Enabled).
		Str("rule", st.Rule.String()).
		Int("max_files", st.MaxFiles).
		Str("timezone", s.loc.String()).
		Msg("Backup scheduler started")
	return nil
}

// Stop cancels the pending timer and waits for the loop, including any
// running cycle, to exit.
func (s *Scheduler) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	<-s.doneCh
	s.running = false

	s.mu.Lock()
	s.nextRun = time.Time{}
	s.mu.Unlock()
	metrics.SetSchedule(false, time.Time{})

	s.logger.Info().Msg("Backup scheduler stopped")
}

// Update validates cfg, persists it and swaps it in. On any error the
// current state is unchanged. The pending timer is rebuilt from now.
func (s *Scheduler) Update(ctx context.Context, cfg ScheduleConfig) (ScheduleState, error) {
	rule, err := cfg.Validate()
	if err != nil {
		return ScheduleState{}, err
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	candidate := s.state.clone()
	s.mu.Unlock()

	candidate.Enabled = cfg.Enabled
	candidate.Rule = rule
	candidate.MaxFiles = cfg.MaxFiles
	candidate.UpdatedAt = s.clock.Now()

	if s.states != nil {
		if err := s.states.Save(ctx, candidate); err != nil {
			return ScheduleState{}, fmt.Errorf("failed to persist schedule: %w", err)
		}
	}

	s.mu.Lock()
	s.state = candidate.clone()
	s.mu.Unlock()

	s.signalWake()

	s.logger.Info().
		Bool("enabled", candidate.Enabled).
		Str("rule", rule.String()).
		Int("max_files", candidate.MaxFiles).
		Msg("Backup schedule updated")
	return candidate, nil
}

// RunNow runs one manual cycle synchronously with the same semantics as a
// scheduled one.
func (s *Scheduler) RunNow(ctx context.Context) (CycleReport, error) {
	s.mu.Lock()
	maxFiles := s.state.MaxFiles
	s.mu.Unlock()

	report := s.runCycle(ctx, TriggerManual, s.clock.Now(), maxFiles)
	return report, report.Err
}

func (s *Scheduler) signalWake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	var anchor time.Time
	for {
		due, armed := s.arm(anchor)
		anchor = time.Time{}

		var timer Timer
		var fire <-chan time.Time
		if armed {
			timer = s.clock.NewTimer(due.Sub(s.clock.Now()))
			fire = timer.C()
		}

		select {
		case <-ctx.Done():
			stopTimer(timer)
			return
		case <-s.stopCh:
			stopTimer(timer)
			return
		case <-s.wake:
			stopTimer(timer)
		case <-fire:
			s.fire(ctx, due)
			anchor = due
		}
	}
}

// arm computes and records the next run. It returns false when disabled.
func (s *Scheduler) arm(anchor time.Time) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Enabled {
		s.nextRun = time.Time{}
		metrics.SetSchedule(false, time.Time{})
		return time.Time{}, false
	}

	now := s.clock.Now()
	from := anchor
	if from.IsZero() {
		from = now
	}
	next := NextRun(s.state.Rule, from, s.loc)
	if !next.After(now) {
		metrics.BackupSkippedFirings.WithLabelValues("missed").Inc()
		s.logger.Warn().
			Time("missed_slot", next).
			Msg("Backup cycle overran the next slot; skipping to the following one")
		next = NextRun(s.state.Rule, now, s.loc)
	}

	s.nextRun = next
	metrics.SetSchedule(true, next)
	s.logger.Debug().Time("next_run", next).Msg("Backup timer armed")
	return next, true
}

func (s *Scheduler) fire(ctx context.Context, due time.Time) {
	s.mu.Lock()
	if !s.state.Enabled {
		s.mu.Unlock()
		return
	}
	if s.state.LastRunAt != nil && s.state.LastRunAt.Equal(due) {
		s.mu.Unlock()
		metrics.BackupSkippedFirings.WithLabelValues("duplicate").Inc()
		s.logger.Info().Time("slot", due).Msg("Backup for this slot already ran; skipping")
		return
	}
	maxFiles := s.state.MaxFiles
	s.mu.Unlock()

	s.runCycle(ctx, TriggerScheduled, due, maxFiles)
}

// runCycle creates one artifact and applies retention under the store's write
// lock. runAt becomes lastRunAt on success.
func (s *Scheduler) runCycle(ctx context.Context, trigger Trigger, runAt time.Time, maxFiles int) CycleReport {
	started := time.Now()
	report := CycleReport{Trigger: trigger, StartedAt: runAt}

	err := s.store.Exclusive(func(tx *Tx) error {
		artifact, err := s.exec.Backup(ctx, tx, trigger)
		if err != nil {
			return err
		}
		report.Artifact = artifact

		all, err := tx.Artifacts()
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to list artifacts for retention")
			return nil
		}

		failed := make(map[string]error)
		for _, victim := range SelectForEviction(all, maxFiles) {
			err := tx.Delete(victim.Name)
			metrics.RecordEviction(err)
			if err != nil {
				failed[victim.Name] = err
				s.logger.Warn().Err(err).Str("artifact", victim.Name).Msg("Failed to evict artifact")
				continue
			}
			report.Evicted = append(report.Evicted, victim.Name)
		}
		if len(failed) > 0 {
			report.EvictionErr = &PartialEvictionError{Failed: failed}
		}
		return nil
	})
	report.Duration = time.Since(started)
	report.Err = err
	metrics.RecordBackupRun(string(trigger), report.Duration, report.Artifact.SizeBytes, err)

	if err != nil {
		s.logger.Error().Err(err).Str("trigger", string(trigger)).Msg("Backup cycle failed")
	} else {
		s.logger.Info().
			Str("trigger", string(trigger)).
			Str("artifact", report.Artifact.Name).
			Int64("size_bytes", report.Artifact.SizeBytes).
			Int("evicted", len(report.Evicted)).
			Dur("duration", report.Duration).
			Msg("Backup cycle completed")
		s.recordRun(ctx, runAt)
	}

	s.mu.Lock()
	cb := s.onCycle
	s.mu.Unlock()
	if cb != nil {
		cb(report)
	}
	return report
}

func (s *Scheduler) recordRun(ctx context.Context, runAt time.Time) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	t := runAt
	s.state.LastRunAt = &t
	snapshot := s.state.clone()
	s.mu.Unlock()

	if s.states == nil {
		return
	}
	if err := s.states.Save(ctx, snapshot); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist last run time")
	}
}

func stopTimer(t Timer) {
	if t != nil {
		t.Stop()
	}
}
