// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package backup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestNewManager_Validation(t *testing.T) {
	t.Parallel()

	snap := &fakeSnapshotter{}
	ctx := context.Background()

	if _, err := NewManager(ctx, nil, snap, snap, nil); err == nil {
		t.Error("NewManager(nil config) error = nil")
	}
	if _, err := NewManager(ctx, DefaultConfig(t.TempDir()), nil, snap, nil); err == nil {
		t.Error("NewManager(nil dumper) error = nil")
	}
	if _, err := NewManager(ctx, DefaultConfig("relative/dir"), snap, snap, nil); err == nil {
		t.Error("NewManager(relative dir) error = nil")
	}

	cfg := DefaultConfig(t.TempDir())
	cfg.Timezone = "Mars/Olympus_Mons"
	if _, err := NewManager(ctx, cfg, snap, snap, nil); err == nil {
		t.Error("NewManager(bad timezone) error = nil")
	}
}

func TestNewManager_LoadsPersistedState(t *testing.T) {
	t.Parallel()

	saved := &ScheduleState{Enabled: true, Rule: Hourly{Minute: 30}, MaxFiles: 4}
	env := newTestEnvWithState(t, utc(2026, 1, 1, 0, 0), saved)

	st := env.mgr.GetScheduleConfig()
	if !st.Enabled || st.Rule != (Hourly{Minute: 30}) || st.MaxFiles != 4 {
		t.Errorf("GetScheduleConfig() = %+v, want persisted state", st)
	}
}

func TestNewManager_DefaultsOnFirstBoot(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, utc(2026, 1, 1, 0, 0))
	st := env.mgr.GetScheduleConfig()
	if st.Enabled || st.Rule != (Daily{Hour: 0, Minute: 0}) || st.MaxFiles != DefaultMaxFiles {
		t.Errorf("GetScheduleConfig() = %+v, want disabled daily 00:00 keeping %d", st, DefaultMaxFiles)
	}
}

func TestManager_CreateBackupAppliesRetention(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, utc(2026, 1, 1, 0, 0))
	cfg := dailyAt2(2)
	cfg.Enabled = false
	if _, err := env.mgr.SetScheduleConfig(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}

	var last CycleReport
	for i := 0; i < 3; i++ {
		env.clock.Set(utc(2026, 1, 1, 10+i, 0))
		r, err := env.mgr.CreateBackup(context.Background())
		if err != nil {
			t.Fatalf("CreateBackup() error = %v", err)
		}
		<-env.reports
		if r.Trigger != TriggerManual {
			t.Errorf("Trigger = %s, want manual", r.Trigger)
		}
		last = r
	}
	if len(last.Evicted) != 1 {
		t.Errorf("third backup evicted %d, want 1", len(last.Evicted))
	}

	res, _ := env.mgr.ListBackups(ListOptions{})
	if res.Total != 2 {
		t.Errorf("artifacts = %d, want 2", res.Total)
	}
	st := env.mgr.GetScheduleConfig()
	if st.LastRunAt == nil || !st.LastRunAt.Equal(utc(2026, 1, 1, 12, 0)) {
		t.Errorf("LastRunAt = %v, want time of the last manual backup", st.LastRunAt)
	}
}

func TestManager_CreateBackupFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, utc(2026, 1, 1, 0, 0))
	env.snap.setDumpErr(errors.New("pg_dump: connection refused"))

	_, err := env.mgr.CreateBackup(context.Background())
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("CreateBackup() error = %v, want *ExecutionError", err)
	}
	if execErr.Trigger != TriggerManual || execErr.Op != "backup" {
		t.Errorf("ExecutionError = %+v", execErr)
	}
}

func TestManager_DownloadAndDelete(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, utc(2026, 1, 1, 0, 0))
	r, err := env.mgr.CreateBackup(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	data, desc, err := env.mgr.DownloadBackup(r.Artifact.Name)
	if err != nil {
		t.Fatalf("DownloadBackup() error = %v", err)
	}
	if string(data) != "snapshot-1" || desc.Name != r.Artifact.Name {
		t.Errorf("DownloadBackup() = %q, %+v", data, desc)
	}

	if err := env.mgr.DeleteBackup(r.Artifact.Name); err != nil {
		t.Fatalf("DeleteBackup() error = %v", err)
	}
	if err := env.mgr.DeleteBackup(r.Artifact.Name); !IsNotFound(err) {
		t.Errorf("second DeleteBackup() error = %v, want ErrNotFound", err)
	}
	if _, _, err := env.mgr.DownloadBackup(r.Artifact.Name); !IsNotFound(err) {
		t.Errorf("DownloadBackup(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestManager_RestoreBackup(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, utc(2026, 1, 1, 0, 0))
	r, err := env.mgr.CreateBackup(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	lastRun := env.mgr.GetScheduleConfig().LastRunAt

	var restored []RestoreSource
	env.mgr.SetOnRestore(func(src RestoreSource, _ string) { restored = append(restored, src) })

	env.clock.Set(utc(2026, 1, 5, 0, 0))
	if err := env.mgr.RestoreBackup(context.Background(), r.Artifact.Name); err != nil {
		t.Fatalf("RestoreBackup() error = %v", err)
	}
	if env.snap.appliedCount() != 1 || string(env.snap.applied[0]) != "snapshot-1" {
		t.Errorf("applied = %q, want the artifact bytes", env.snap.applied)
	}
	if got := env.mgr.GetScheduleConfig().LastRunAt; got == nil || !got.Equal(*lastRun) {
		t.Errorf("LastRunAt changed by restore: %v -> %v", lastRun, got)
	}
	if res, _ := env.mgr.ListBackups(ListOptions{}); res.Total != 1 {
		t.Errorf("artifacts = %d after restore, want 1", res.Total)
	}
	if len(restored) != 1 || restored[0] != RestoreFromArtifact {
		t.Errorf("restore callback = %v", restored)
	}

	if err := env.mgr.RestoreBackup(context.Background(), "backup-missing.tar.gz"); !IsNotFound(err) {
		t.Errorf("RestoreBackup(missing) error = %v, want ErrNotFound", err)
	}
}

func TestManager_RestoreBackupCollaboratorFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, utc(2026, 1, 1, 0, 0))
	r, err := env.mgr.CreateBackup(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	env.snap.mu.Lock()
	env.snap.applyErr = errors.New("target database in use")
	env.snap.mu.Unlock()

	err = env.mgr.RestoreBackup(context.Background(), r.Artifact.Name)
	var execErr *ExecutionError
	if !errors.As(err, &execErr) || execErr.Op != "restore" {
		t.Fatalf("RestoreBackup() error = %v, want restore *ExecutionError", err)
	}
}

func TestManager_RestoreUpload(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, utc(2026, 1, 1, 0, 0))

	t.Run("valid bytes are applied and not stored", func(t *testing.T) {
		if err := env.mgr.RestoreUpload(context.Background(), []byte("snapshot-uploaded")); err != nil {
			t.Fatalf("RestoreUpload() error = %v", err)
		}
		if env.snap.appliedCount() != 1 {
			t.Errorf("applied = %d, want 1", env.snap.appliedCount())
		}
		if res, _ := env.mgr.ListBackups(ListOptions{}); res.Total != 0 {
			t.Errorf("upload was persisted: %d artifacts", res.Total)
		}
	})

	t.Run("malformed bytes are rejected before applying", func(t *testing.T) {
		err := env.mgr.RestoreUpload(context.Background(), []byte("garbage"))
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Message != "not a snapshot" {
			t.Fatalf("RestoreUpload() error = %v, want validation error carrying the restorer message", err)
		}
		if env.snap.appliedCount() != 1 {
			t.Errorf("malformed upload was applied")
		}
	})

	t.Run("empty upload", func(t *testing.T) {
		var verr *ValidationError
		if err := env.mgr.RestoreUpload(context.Background(), nil); !errors.As(err, &verr) {
			t.Fatalf("RestoreUpload(nil) error = %v, want *ValidationError", err)
		}
	})
}

func TestManager_RetentionPreviewAndStats(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, utc(2026, 1, 1, 0, 0))
	for i := 0; i < 4; i++ {
		env.clock.Set(utc(2026, 1, 1+i, 0, 0))
		if _, err := env.mgr.store.Create([]byte("12345")); err != nil {
			t.Fatal(err)
		}
	}

	cfg := dailyAt2(2)
	if _, err := env.mgr.SetScheduleConfig(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}

	preview, err := env.mgr.RetentionPreview()
	if err != nil {
		t.Fatalf("RetentionPreview() error = %v", err)
	}
	if len(preview) != 2 || !preview[0].ModifiedAt.Equal(utc(2026, 1, 1, 0, 0)) {
		t.Errorf("RetentionPreview() = %+v, want the two oldest", preview)
	}
	if res, _ := env.mgr.ListBackups(ListOptions{}); res.Total != 4 {
		t.Errorf("preview deleted artifacts: %d left", res.Total)
	}

	stats, err := env.mgr.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.TotalArtifacts != 4 || stats.TotalSizeBytes != 20 || stats.MaxFiles != 2 || !stats.Enabled {
		t.Errorf("GetStats() = %+v", stats)
	}
	if stats.OldestArtifact == nil || !stats.OldestArtifact.Equal(utc(2026, 1, 1, 0, 0)) {
		t.Errorf("OldestArtifact = %v", stats.OldestArtifact)
	}
	if stats.NewestArtifact == nil || !stats.NewestArtifact.Equal(utc(2026, 1, 4, 0, 0)) {
		t.Errorf("NewestArtifact = %v", stats.NewestArtifact)
	}
}

func TestScheduleState_JSON(t *testing.T) {
	t.Parallel()

	last := time.Date(2026, 2, 3, 4, 5, 0, 0, time.UTC)
	in := ScheduleState{
		Enabled:   true,
		Rule:      Yearly{Month: time.March, DayOfMonth: 31, Hour: 1, Minute: 2},
		MaxFiles:  12,
		LastRunAt: &last,
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var out ScheduleState
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out.Rule != in.Rule || out.MaxFiles != 12 || !out.Enabled || out.LastRunAt == nil || !out.LastRunAt.Equal(last) {
		t.Errorf("decoded %+v, want %+v", out, in)
	}

	var bad ScheduleState
	err = json.Unmarshal([]byte(`{"enabled":true,"rule":{"kind":"weekly","hour":1,"minute":0},"maxFiles":3}`), &bad)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "dayOfWeek" {
		t.Errorf("Unmarshal(invalid rule) error = %v, want dayOfWeek validation error", err)
	}
}
