// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package backup

import (
	"context"
	"errors"
	"fmt"
)

// Dumper produces a complete snapshot of the protected data.
type Dumper interface {
	ProduceSnapshot(ctx context.Context) ([]byte, error)
}

// Restorer checks and applies snapshots.
type Restorer interface {
	// ValidateSnapshot reports whether data is a well-formed snapshot.
	ValidateSnapshot(data []byte) error
	// ApplySnapshot replaces the protected data with data.
	ApplySnapshot(ctx context.Context, data []byte) error
}

// Executor runs the dump and restore collaborators and moves their bytes
// through the store. Every collaborator failure is returned as *ExecutionError.
type Executor struct {
	dumper   Dumper
	restorer Restorer

	dumpBreaker    *breaker[[]byte]
	restoreBreaker *breaker[struct{}]
}

// NewExecutor creates an executor. Breakers are only installed when cfg.Enabled.
func NewExecutor(dumper Dumper, restorer Restorer, cfg BreakerConfig) *Executor {
	return &Executor{
		dumper:         dumper,
		restorer:       restorer,
		dumpBreaker:    newBreaker[[]byte]("snapshot-dump", cfg),
		restoreBreaker: newBreaker[struct{}]("snapshot-restore", cfg),
	}
}

// Backup produces a snapshot and writes it as a new artifact. The caller
// holds the store's write lock through tx.
func (e *Executor) Backup(ctx context.Context, tx *Tx, trigger Trigger) (ArtifactDescriptor, error) {
	data, err := e.dumpBreaker.execute(func() ([]byte, error) {
		return e.dumper.ProduceSnapshot(ctx)
	})
	if err != nil {
		return ArtifactDescriptor{}, &ExecutionError{Op: "backup", Trigger: trigger, Err: err}
	}
	if len(data) == 0 {
		return ArtifactDescriptor{}, &ExecutionError{Op: "backup", Trigger: trigger, Err: errors.New("snapshot is empty")}
	}

	desc, err := tx.Create(data)
	if err != nil {
		return ArtifactDescriptor{}, fmt.Errorf("failed to store artifact: %w", err)
	}
	return desc, nil
}

// Validate asks the restorer whether data is a well-formed snapshot. A
// rejected snapshot is a *ValidationError carrying the restorer's message.
func (e *Executor) Validate(data []byte) error {
	if len(data) == 0 {
		return newValidationError("backup", "uploaded snapshot is empty")
	}
	if err := e.restorer.ValidateSnapshot(data); err != nil {
		return &ValidationError{Field: "backup", Message: err.Error()}
	}
	return nil
}

// Restore applies data through the restorer.
func (e *Executor) Restore(ctx context.Context, data []byte) error {
	_, err := e.restoreBreaker.execute(func() (struct{}, error) {
		return struct{}{}, e.restorer.ApplySnapshot(ctx, data)
	})
	if err != nil {
		return &ExecutionError{Op: "restore", Err: err}
	}
	return nil
}

// BreakerStates reports the state of each collaborator breaker.
func (e *Executor) BreakerStates() map[string]string {
	return map[string]string{
		"dump":    e.dumpBreaker.state(),
		"restore": e.restoreBreaker.state(),
	}
}
