// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package backup

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned (wrapped with the artifact name) when an artifact
// does not exist in the backup directory.
var ErrNotFound = errors.New("backup not found")

// ValidationError reports a single invalid input field. Configuration updates
// that fail validation leave the current state untouched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ExecutionError wraps a failure reported by the dump or restore collaborator.
// Err carries the collaborator's own message, which is shown to users verbatim.
type ExecutionError struct {
	Op      string // "backup" or "restore"
	Trigger Trigger
	Err     error
}

func (e *ExecutionError) Error() string {
	if e.Trigger != "" {
		return fmt.Sprintf("%s %s failed: %v", e.Trigger, e.Op, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// PartialEvictionError lists the artifacts retention selected but could not delete.
// It never fails a cycle.
type PartialEvictionError struct {
	Failed map[string]error
}

func (e *PartialEvictionError) Error() string {
	names := make([]string, 0, len(e.Failed))
	for name := range e.Failed {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %v", name, e.Failed[name]))
	}
	return fmt.Sprintf("failed to evict %d artifact(s): %s", len(names), strings.Join(parts, "; "))
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
