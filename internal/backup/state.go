// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package backup

import "context"

// StateStore persists the schedule state across restarts.
type StateStore interface {
	// Load returns the saved state, or nil with no error when nothing has been saved.
	Load(ctx context.Context) (*ScheduleState, error)
	// Save overwrites the saved state.
	Save(ctx context.Context, state ScheduleState) error
}
