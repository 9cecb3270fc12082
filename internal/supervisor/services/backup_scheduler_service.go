// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package services

import (
	"context"
	"fmt"
)

// BackupScheduler matches the backup.Manager lifecycle.
type BackupScheduler interface {
	Start(ctx context.Context) error
	Stop() error
}

// BackupSchedulerService wraps the backup scheduler as a supervised service.
//
// It adapts the Start/Stop lifecycle to suture's Serve pattern:
//  1. Calls Start(ctx) to arm the timer for the next firing
//  2. Waits for context cancellation
//  3. Calls Stop(), which waits for a running cycle to finish
//
// On restart the scheduler recomputes its next firing from the wall clock, so
// slots missed while it was down are skipped rather than replayed.
type BackupSchedulerService struct {
	scheduler BackupScheduler
	name      string
}

// NewBackupSchedulerService creates a new scheduler service wrapper.
//
// Example usage:
//
//	manager, _ := backup.NewManager(ctx, cfg, archiver, archiver, states)
//	tree.AddSchedulerService(services.NewBackupSchedulerService(manager))
func NewBackupSchedulerService(scheduler BackupScheduler) *BackupSchedulerService {
	return &BackupSchedulerService{
		scheduler: scheduler,
		name:      "backup-scheduler",
	}
}

// Serve implements suture.Service.
func (s *BackupSchedulerService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("backup scheduler start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.scheduler.Stop(); err != nil {
		return fmt.Errorf("backup scheduler stop failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (s *BackupSchedulerService) String() string {
	return s.name
}
