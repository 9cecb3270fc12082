// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

// Package backup implements the backup scheduling and retention engine.
//
// # Overview
//
// A recurrence rule (hourly, daily, weekly, monthly or yearly) is validated
// per kind and turned into a concrete next execution instant in a fixed time
// zone. The Scheduler sleeps until that instant, runs a backup cycle and arms
// itself again. Each cycle writes one artifact into the backup directory and
// deletes the oldest artifacts beyond the configured maxFiles.
//
// # Components
//
//   - Rule / ParseRule: the five recurrence shapes and their validation
//   - NextRun: pure next-instant computation with month-end clamping
//   - SelectForEviction: pure retention selection, oldest first
//   - Store: atomic artifact writes, paginated listing, read and delete
//   - Executor: dump and restore collaborators behind circuit breakers
//   - Scheduler: the re-arming timer loop and ScheduleState owner
//   - Manager: the operations exposed to the HTTP layer
//
// # Collaborators
//
// The engine does not know how to dump a database. A Dumper produces snapshot
// bytes and a Restorer validates and applies them. Package snapshot provides
// one for a DuckDB database file.
//
// # Errors
//
//   - *ValidationError: a field failed validation; nothing changed
//   - ErrNotFound: the named artifact does not exist
//   - *ExecutionError: a collaborator failed; its message is user visible
//   - *PartialEvictionError: some retention deletions failed; the cycle still succeeded
//
// # Usage
//
//	mgr, err := backup.NewManager(ctx, cfg, archiver, archiver, stateStore)
//	if err != nil {
//	    return err
//	}
//	if err := mgr.Start(ctx); err != nil {
//	    return err
//	}
//	defer mgr.Stop()
//
//	_, err = mgr.SetScheduleConfig(ctx, backup.ScheduleConfig{
//	    Enabled:  true,
//	    Rule:     backup.Daily{Hour: 2, Minute: 0}.Spec(),
//	    MaxFiles: 7,
//	})
package backup
