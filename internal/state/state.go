// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package state

import (
	"fmt"

	"github.com/tomtom215/backupd/internal/backup"
)

const (
	BackendBadger = "badger"
	BackendFile   = "file"
)

// Config selects and locates the state backend.
type Config struct {
	// Backend is "badger" or "file".
	Backend string
	// Path is the BadgerDB directory or the JSON file path.
	Path string
	// SyncWrites fsyncs every BadgerDB write.
	SyncWrites bool
}

// Store is a closable backup.StateStore.
type Store interface {
	backup.StateStore
	Close() error
}

// Open creates the configured backend.
func Open(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("state path is required")
	}
	switch cfg.Backend {
	case BackendBadger, "":
		s, err := OpenBadger(cfg.Path, cfg.SyncWrites)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendFile:
		s, err := NewFileStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown state backend %q (want %s or %s)", cfg.Backend, BackendBadger, BackendFile)
	}
}
