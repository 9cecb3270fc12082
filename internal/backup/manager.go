// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

/*
manager.go - Backup Manager

Manager is the entry point used by the HTTP layer and the supervisor. It
wires the artifact store, the executor and the scheduler together and exposes
the externally visible operations:

  - schedule configuration (get, set, next run)
  - manual backup, list, download, delete
  - restore from a stored artifact or from uploaded bytes
  - retention preview and statistics

Restores run under the store's write lock so they never interleave with a
backup cycle or a delete. They neither change lastRunAt nor apply retention,
and uploaded bytes are never written into the backup directory.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/backupd/internal/logging"
	"github.com/tomtom215/backupd/internal/metrics"
)

// Manager coordinates backup, restore and scheduling.
type Manager struct {
	cfg   *Config
	store *Store
	exec  *Executor
	sched *Scheduler

	onRestore func(source RestoreSource, name string)
}

// Option customizes a Manager.
type Option func(*managerOptions)

type managerOptions struct {
	clock Clock
}

// WithClock replaces the wall clock, for tests.
func WithClock(c Clock) Option {
	return func(o *managerOptions) {
		o.clock = c
	}
}

// NewManager validates cfg, opens the backup directory and loads the
// persisted schedule. A missing schedule starts from DefaultScheduleState.
func NewManager(ctx context.Context, cfg *Config, dumper Dumper, restorer Restorer, states StateStore, opts ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("backup configuration is required")
	}
	if dumper == nil || restorer == nil {
		return nil, fmt.Errorf("snapshot dumper and restorer are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("backup configuration validation failed: %w", err)
	}

	o := managerOptions{clock: SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := NewStore(cfg.Dir, cfg.Extension, o.clock.Now)
	if err != nil {
		return nil, err
	}

	initial := DefaultScheduleState(cfg.DefaultMaxFiles)
	if states != nil {
		saved, err := states.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load schedule state: %w", err)
		}
		if saved != nil {
			initial = *saved
		}
	}

	exec := NewExecutor(dumper, restorer, cfg.Breaker)
	return &Manager{
		cfg:   cfg,
		store: store,
		exec:  exec,
		sched: NewScheduler(store, exec, states, o.clock, loc, initial),
	}, nil
}

// Start begins the backup scheduler.
func (m *Manager) Start(ctx context.Context) error {
	return m.sched.Start(ctx)
}

// Stop stops the backup scheduler, waiting for a running cycle to finish.
func (m *Manager) Stop() error {
	m.sched.Stop()
	return nil
}

// SetOnCycle sets the callback invoked after every backup cycle.
func (m *Manager) SetOnCycle(fn func(CycleReport)) {
	m.sched.SetOnCycle(fn)
}

// SetOnRestore sets the callback invoked after every successful restore.
func (m *Manager) SetOnRestore(fn func(source RestoreSource, name string)) {
	m.onRestore = fn
}

// Config returns the engine configuration.
func (m *Manager) Config() *Config {
	return m.cfg
}

// GetScheduleConfig returns the current schedule state.
func (m *Manager) GetScheduleConfig() ScheduleState {
	return m.sched.State()
}

// NextScheduledBackup returns the next firing, and false when idle.
func (m *Manager) NextScheduledBackup() (time.Time, bool) {
	return m.sched.NextRunAt()
}

// SetScheduleConfig validates, persists and applies a new schedule.
func (m *Manager) SetScheduleConfig(ctx context.Context, cfg ScheduleConfig) (ScheduleState, error) {
	return m.sched.Update(ctx, cfg)
}

// CreateBackup runs one backup cycle now, including retention.
func (m *Manager) CreateBackup(ctx context.Context) (CycleReport, error) {
	return m.sched.RunNow(ctx)
}

// ListBackups returns a page of artifacts, newest first.
func (m *Manager) ListBackups(opts ListOptions) (ListResult, error) {
	return m.store.List(opts)
}

// DownloadBackup returns the bytes of a stored artifact.
func (m *Manager) DownloadBackup(name string) ([]byte, ArtifactDescriptor, error) {
	return m.store.Read(name)
}

// DeleteBackup removes a stored artifact.
func (m *Manager) DeleteBackup(name string) error {
	if err := m.store.Delete(name); err != nil {
		return err
	}
	logging.Info().Str("artifact", name).Msg("Backup deleted")
	return nil
}

// RestoreBackup applies a stored artifact.
func (m *Manager) RestoreBackup(ctx context.Context, name string) error {
	err := m.store.Exclusive(func(tx *Tx) error {
		data, _, err := tx.Read(name)
		if err != nil {
			return err
		}
		return m.exec.Restore(ctx, data)
	})
	metrics.RecordRestore(string(RestoreFromArtifact), err)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("artifact", name).Msg("Restore failed")
		return err
	}

	logging.Ctx(ctx).Info().Str("artifact", name).Msg("Restore completed")
	if m.onRestore != nil {
		m.onRestore(RestoreFromArtifact, name)
	}
	return nil
}

// RestoreUpload validates externally supplied snapshot bytes and applies them.
// The bytes are not kept.
func (m *Manager) RestoreUpload(ctx context.Context, data []byte) error {
	if m.cfg.MaxUploadBytes > 0 && int64(len(data)) > m.cfg.MaxUploadBytes {
		return newValidationError("backup", "upload exceeds %d bytes", m.cfg.MaxUploadBytes)
	}
	if err := m.exec.Validate(data); err != nil {
		metrics.RecordRestore(string(RestoreFromUpload), err)
		return err
	}

	err := m.store.Exclusive(func(_ *Tx) error {
		return m.exec.Restore(ctx, data)
	})
	metrics.RecordRestore(string(RestoreFromUpload), err)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Int("size_bytes", len(data)).Msg("Upload restore failed")
		return err
	}

	logging.Ctx(ctx).Info().Int("size_bytes", len(data)).Msg("Upload restore completed")
	if m.onRestore != nil {
		m.onRestore(RestoreFromUpload, "")
	}
	return nil
}

// RetentionPreview returns the artifacts the current maxFiles would evict,
// oldest first, without deleting anything.
func (m *Manager) RetentionPreview() ([]ArtifactDescriptor, error) {
	all, err := m.store.All()
	if err != nil {
		return nil, err
	}
	victims := SelectForEviction(all, m.sched.State().MaxFiles)
	if victims == nil {
		victims = []ArtifactDescriptor{}
	}
	return victims, nil
}

// GetStats summarizes the backup directory and the schedule.
func (m *Manager) GetStats() (Stats, error) {
	all, err := m.store.All()
	if err != nil {
		return Stats{}, err
	}
	st := m.sched.State()

	stats := Stats{
		TotalArtifacts: len(all),
		LastRunAt:      st.LastRunAt,
		Enabled:        st.Enabled,
		MaxFiles:       st.MaxFiles,
	}
	for _, a := range all {
		stats.TotalSizeBytes += a.SizeBytes
	}
	if len(all) > 0 {
		newest, oldest := all[0].ModifiedAt, all[len(all)-1].ModifiedAt
		stats.NewestArtifact = &newest
		stats.OldestArtifact = &oldest
	}
	if next, ok := m.sched.NextRunAt(); ok {
		stats.NextRunAt = &next
	}
	return stats, nil
}

// BreakerStates reports the collaborator circuit breaker states.
func (m *Manager) BreakerStates() map[string]string {
	return m.exec.BreakerStates()
}
