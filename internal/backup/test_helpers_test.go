// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package backup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced Clock. Every timer it creates is announced
// on armed with its deadline.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	armed  chan time.Time
}

type fakeTimer struct {
	clock    *fakeClock
	c        chan time.Time
	deadline time.Time
	done     bool
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start, armed: make(chan time.Time, 256)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	t := &fakeTimer{clock: c, c: make(chan time.Time, 1), deadline: c.now.Add(d)}
	if d <= 0 {
		t.done = true
		t.c <- c.now
	} else {
		c.timers = append(c.timers, t)
	}
	c.mu.Unlock()

	c.armed <- t.deadline
	return t
}

// Set moves the clock to now and fires every due timer.
func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = now
	pending := c.timers[:0]
	for _, t := range c.timers {
		if t.done {
			continue
		}
		if !t.deadline.After(now) {
			t.done = true
			t.c <- now
			continue
		}
		pending = append(pending, t)
	}
	c.timers = pending
}

func (t *fakeTimer) C() <-chan time.Time {
	return t.c
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.done
	t.done = true
	return wasActive
}

// waitArmedAt waits until the scheduler arms a timer for want.
func waitArmedAt(t *testing.T, c *fakeClock, want time.Time) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-c.armed:
			if got.Equal(want) {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for timer armed at %s", want)
		}
	}
}

func waitReport(t *testing.T, reports <-chan CycleReport) CycleReport {
	t.Helper()
	select {
	case r := <-reports:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for backup cycle")
		return CycleReport{}
	}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition never became true: %s", what)
}

// fakeSnapshotter implements Dumper and Restorer.
type fakeSnapshotter struct {
	mu          sync.Mutex
	dumps       int
	dumpErr     error
	dumpHook    func()
	validateErr error
	applyErr    error
	applied     [][]byte
}

func (f *fakeSnapshotter) ProduceSnapshot(_ context.Context) ([]byte, error) {
	f.mu.Lock()
	hook := f.dumpHook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dumpErr != nil {
		return nil, f.dumpErr
	}
	f.dumps++
	return []byte(fmt.Sprintf("snapshot-%d", f.dumps)), nil
}

func (f *fakeSnapshotter) ValidateSnapshot(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.validateErr != nil {
		return f.validateErr
	}
	if len(data) < len("snapshot-") || string(data[:len("snapshot-")]) != "snapshot-" {
		return errors.New("not a snapshot")
	}
	return nil
}

func (f *fakeSnapshotter) ApplySnapshot(_ context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied = append(f.applied, append([]byte(nil), data...))
	return nil
}

func (f *fakeSnapshotter) appliedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.applied)
}

func (f *fakeSnapshotter) setDumpErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dumpErr = err
}

func (f *fakeSnapshotter) setDumpHook(hook func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dumpHook = hook
}

// memStateStore is an in-memory StateStore.
type memStateStore struct {
	mu      sync.Mutex
	state   *ScheduleState
	saveErr error
	saves   int
}

func (m *memStateStore) Load(_ context.Context) (*ScheduleState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, nil
	}
	st := m.state.clone()
	return &st, nil
}

func (m *memStateStore) Save(_ context.Context, state ScheduleState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	st := state.clone()
	m.state = &st
	m.saves++
	return nil
}

func (m *memStateStore) saved() *ScheduleState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil
	}
	st := m.state.clone()
	return &st
}

type testEnv struct {
	clock   *fakeClock
	snap    *fakeSnapshotter
	states  *memStateStore
	mgr     *Manager
	reports chan CycleReport
}

func newTestEnv(t *testing.T, start time.Time) *testEnv {
	t.Helper()
	return newTestEnvWithState(t, start, nil)
}

func newTestEnvWithState(t *testing.T, start time.Time, saved *ScheduleState) *testEnv {
	t.Helper()

	env := &testEnv{
		clock:   newFakeClock(start),
		snap:    &fakeSnapshotter{},
		states:  &memStateStore{state: saved},
		reports: make(chan CycleReport, 16),
	}

	cfg := DefaultConfig(t.TempDir())
	cfg.Breaker.Enabled = false

	mgr, err := NewManager(context.Background(), cfg, env.snap, env.snap, env.states, WithClock(env.clock))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	mgr.SetOnCycle(func(r CycleReport) { env.reports <- r })
	env.mgr = mgr
	return env
}

func (e *testEnv) start(t *testing.T) {
	t.Helper()
	if err := e.mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = e.mgr.Stop() })
}

func ptr[T any](v T) *T {
	return &v
}
