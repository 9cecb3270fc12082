// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package backup

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	verr := &ValidationError{Field: "dayOfWeek", Message: "is required for weekly schedules"}
	if got := verr.Error(); got != "invalid dayOfWeek: is required for weekly schedules" {
		t.Errorf("ValidationError.Error() = %q", got)
	}

	cause := errors.New("disk quota exceeded")
	exec := &ExecutionError{Op: "backup", Trigger: TriggerScheduled, Err: cause}
	if got := exec.Error(); got != "scheduled backup failed: disk quota exceeded" {
		t.Errorf("ExecutionError.Error() = %q", got)
	}
	if !errors.Is(exec, cause) {
		t.Error("ExecutionError does not unwrap to its cause")
	}

	partial := &PartialEvictionError{Failed: map[string]error{
		"backup-b": errors.New("busy"),
		"backup-a": errors.New("permission denied"),
	}}
	want := "failed to evict 2 artifact(s): backup-a: permission denied; backup-b: busy"
	if got := partial.Error(); got != want {
		t.Errorf("PartialEvictionError.Error() = %q, want %q", got, want)
	}

	if !IsNotFound(fmt.Errorf("%w: backup-x", ErrNotFound)) {
		t.Error("IsNotFound(wrapped) = false")
	}
}
