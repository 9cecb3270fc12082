// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package backup

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultExtension      = ".tar.gz"
	DefaultMaxFiles       = 7
	DefaultPerPage        = 20
	DefaultMaxUploadBytes = 1 << 30
)

// Config holds backup engine settings.
type Config struct {
	// Dir is the absolute path of the backup directory.
	Dir string

	// Extension is appended to every artifact name, including the dot.
	Extension string

	// Timezone is the IANA location in which recurrence rules are evaluated.
	Timezone string

	// DefaultMaxFiles is the retention bound used until a schedule is saved.
	DefaultMaxFiles int

	// MaxUploadBytes caps the size of an uploaded snapshot.
	MaxUploadBytes int64

	Breaker BreakerConfig
}

// BreakerConfig configures the circuit breakers around the dump and restore
// collaborators.
type BreakerConfig struct {
	Enabled bool
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval after which closed-state counts reset. Zero never resets.
	Interval time.Duration
	// Timeout spent open before probing again.
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
}

// DefaultConfig returns a configuration rooted at dir.
func DefaultConfig(dir string) *Config {
	return &Config{
		Dir:             dir,
		Extension:       DefaultExtension,
		Timezone:        "UTC",
		DefaultMaxFiles: DefaultMaxFiles,
		MaxUploadBytes:  DefaultMaxUploadBytes,
		Breaker: BreakerConfig{
			Enabled:          true,
			MaxRequests:      1,
			Interval:         0,
			Timeout:          5 * time.Minute,
			FailureThreshold: 3,
		},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("backup directory is required")
	}
	if !filepath.IsAbs(c.Dir) {
		return fmt.Errorf("backup directory must be an absolute path, got: %s", c.Dir)
	}
	if c.Extension != "" && (!strings.HasPrefix(c.Extension, ".") || strings.ContainsAny(c.Extension, `/\`)) {
		return fmt.Errorf("backup extension must start with a dot and contain no path separators, got: %s", c.Extension)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.DefaultMaxFiles < 1 {
		return fmt.Errorf("default max files must be at least 1, got: %d", c.DefaultMaxFiles)
	}
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("max upload bytes must not be negative, got: %d", c.MaxUploadBytes)
	}
	if c.Breaker.Enabled && c.Breaker.FailureThreshold < 1 {
		return fmt.Errorf("breaker failure threshold must be at least 1")
	}
	return nil
}

// Location loads the configured time zone. An empty timezone means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid backup timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
