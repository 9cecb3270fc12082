// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoginLimiter_BlocksAfterFailures(t *testing.T) {
	l := NewLoginLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if l.Blocked("10.0.0.1") {
			t.Fatalf("blocked after %d failures, want 3 allowed", i)
		}
		l.RecordFailure("10.0.0.1")
	}
	if !l.Blocked("10.0.0.1") {
		t.Error("expected 10.0.0.1 to be blocked after 3 failures")
	}
	if l.Blocked("10.0.0.2") {
		t.Error("other IPs must not be affected")
	}
}

func TestLoginLimiter_Refills(t *testing.T) {
	now := time.Now()
	l := NewLoginLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	l.RecordFailure("ip")
	l.RecordFailure("ip")
	if !l.Blocked("ip") {
		t.Fatal("expected block")
	}

	now = now.Add(31 * time.Second)
	if l.Blocked("ip") {
		t.Error("one attempt should refill after window/attempts")
	}
}

func TestLoginLimiter_Cleanup(t *testing.T) {
	now := time.Now()
	l := NewLoginLimiter(5, time.Minute)
	l.now = func() time.Time { return now }

	l.RecordFailure("old")
	now = now.Add(2 * time.Hour)
	l.RecordFailure("fresh")

	if removed := l.cleanup(); removed != 1 {
		t.Errorf("cleanup() removed %d, want 1", removed)
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}

func TestLoginLimiter_ServeStopsOnCancel(t *testing.T) {
	l := NewLoginLimiter(5, time.Minute)
	if l.String() != "login-limiter" {
		t.Errorf("String() = %q", l.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not stop")
	}
}
