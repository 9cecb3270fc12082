// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/backupd/internal/backup"
	"github.com/tomtom215/backupd/internal/logging"
)

var scheduleKey = []byte("backupd/schedule_state")

// BadgerStore keeps the schedule state under a single BadgerDB key.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a BadgerDB at path.
func OpenBadger(path string, syncWrites bool) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = syncWrites
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().Str("path", path).Bool("sync_writes", syncWrites).Msg("Schedule state store opened")
	return &BadgerStore{db: db}, nil
}

// OpenBadgerInMemory opens a BadgerDB that lives only in memory. Used in tests.
func OpenBadgerInMemory() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory BadgerDB: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Load returns the saved state, or nil when none was saved.
func (s *BadgerStore) Load(_ context.Context) (*backup.ScheduleState, error) {
	var st *backup.ScheduleState
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(scheduleKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get schedule state: %w", err)
		}
		return item.Value(func(val []byte) error {
			var decoded backup.ScheduleState
			if err := json.Unmarshal(val, &decoded); err != nil {
				return fmt.Errorf("unmarshal schedule state: %w", err)
			}
			st = &decoded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Save overwrites the saved state.
func (s *BadgerStore) Save(_ context.Context, st backup.ScheduleState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal schedule state: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(scheduleKey, data)
	})
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
