// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

// Package state persists the backup schedule across restarts.
//
// Two backends implement backup.StateStore:
//
//   - BadgerStore: a single key in an embedded BadgerDB (default)
//   - FileStore: a JSON file replaced atomically on every save
//
// Both store the JSON form of backup.ScheduleState, encoded with goccy/go-json.
// Loading validates the stored rule, so a corrupted or hand-edited state
// fails startup instead of scheduling something unintended.
//
// Open selects the backend from configuration:
//
//	store, err := state.Open(state.Config{Backend: "badger", Path: "/data/state"})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
package state
