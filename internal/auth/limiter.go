// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/backupd/internal/logging"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterIdleExpiry      = time.Hour
)

// LoginLimiter throttles failed authentication attempts per client IP.
// Only failures spend tokens, so a client that keeps authenticating
// successfully is never throttled.
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewLoginLimiter allows attempts failures per IP, refilled evenly over window.
func NewLoginLimiter(attempts int, window time.Duration) *LoginLimiter {
	if attempts < 1 {
		attempts = 1
	}
	return &LoginLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Every(window / time.Duration(attempts)),
		burst:    attempts,
		now:      time.Now,
	}
}

func (l *LoginLimiter) entry(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.limiters[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[ip] = e
	}
	e.lastAccess = l.now()
	return e.limiter
}

// Blocked reports whether ip has no failures left.
func (l *LoginLimiter) Blocked(ip string) bool {
	return l.entry(ip).TokensAt(l.now()) < 1
}

// RecordFailure spends one attempt for ip.
func (l *LoginLimiter) RecordFailure(ip string) {
	l.entry(ip).AllowN(l.now(), 1)
}

// Len returns the number of tracked IPs.
func (l *LoginLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *LoginLimiter) cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	threshold := l.now().Add(-limiterIdleExpiry)
	removed := 0
	for ip, e := range l.limiters {
		if e.lastAccess.Before(threshold) {
			delete(l.limiters, ip)
			removed++
		}
	}
	return removed
}

// Serve implements suture.Service. It evicts idle IPs until ctx is done.
func (l *LoginLimiter) Serve(ctx context.Context) error {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := l.cleanup(); n > 0 {
				logging.Debug().Int("removed", n).Msg("evicted idle login limiters")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (l *LoginLimiter) String() string {
	return "login-limiter"
}
