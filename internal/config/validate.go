// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/tomtom215/backupd/internal/auth"
	"github.com/tomtom215/backupd/internal/logging"
	"github.com/tomtom215/backupd/internal/state"
)

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateBackup,
		c.validateBreaker,
		c.validateDatabase,
		c.validateState,
		c.validateAPI,
		c.validateSecurity,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got: %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server timeout must be positive, got: %v", c.Server.Timeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown timeout must be positive, got: %v", c.Server.ShutdownTimeout)
	}
	return nil
}

func (c *Config) validateBackup() error {
	if c.Backup.Dir == "" {
		return fmt.Errorf("BACKUP_DIR is required")
	}
	if !filepath.IsAbs(c.Backup.Dir) {
		return fmt.Errorf("BACKUP_DIR must be an absolute path, got: %s", c.Backup.Dir)
	}
	if c.Backup.Timezone != "" {
		if _, err := time.LoadLocation(c.Backup.Timezone); err != nil {
			return fmt.Errorf("BACKUP_TIMEZONE %q is not a valid IANA time zone: %w", c.Backup.Timezone, err)
		}
	}
	if c.Backup.DefaultMaxFiles < 1 {
		return fmt.Errorf("BACKUP_DEFAULT_MAX_FILES must be at least 1, got: %d", c.Backup.DefaultMaxFiles)
	}
	if c.Backup.MaxUploadBytes < 1 {
		return fmt.Errorf("BACKUP_MAX_UPLOAD_BYTES must be positive, got: %d", c.Backup.MaxUploadBytes)
	}
	if c.Backup.CompressionLevel < 1 || c.Backup.CompressionLevel > 9 {
		return fmt.Errorf("BACKUP_COMPRESSION_LEVEL must be between 1 and 9, got: %d", c.Backup.CompressionLevel)
	}
	return nil
}

func (c *Config) validateBreaker() error {
	b := c.Backup.Breaker
	if !b.Enabled {
		return nil
	}
	if b.FailureThreshold < 1 {
		return fmt.Errorf("BACKUP_BREAKER_FAILURE_THRESHOLD must be at least 1, got: %d", b.FailureThreshold)
	}
	if b.Timeout <= 0 {
		return fmt.Errorf("BACKUP_BREAKER_TIMEOUT must be positive, got: %v", b.Timeout)
	}
	if b.Interval < 0 {
		return fmt.Errorf("BACKUP_BREAKER_INTERVAL must not be negative, got: %v", b.Interval)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative, got: %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateState() error {
	switch c.State.Backend {
	case state.BackendBadger, state.BackendFile:
	default:
		return fmt.Errorf("STATE_BACKEND must be %q or %q, got: %q", state.BackendBadger, state.BackendFile, c.State.Backend)
	}
	if c.State.Path == "" {
		return fmt.Errorf("STATE_PATH is required")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPerPage < 1 {
		return fmt.Errorf("API_DEFAULT_PER_PAGE must be at least 1, got: %d", c.API.DefaultPerPage)
	}
	if c.API.MaxPerPage < c.API.DefaultPerPage {
		return fmt.Errorf("API_MAX_PER_PAGE (%d) must not be smaller than API_DEFAULT_PER_PAGE (%d)",
			c.API.MaxPerPage, c.API.DefaultPerPage)
	}
	if c.API.RateLimitDisabled {
		return nil
	}
	if c.API.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQS must be at least 1, got: %d", c.API.RateLimitReqs)
	}
	if c.API.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got: %v", c.API.RateLimitWindow)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	mode := auth.Mode(c.Security.AuthMode)
	if !mode.Valid() {
		return fmt.Errorf("AUTH_MODE must be none, basic or jwt, got: %q", c.Security.AuthMode)
	}
	if c.Security.LoginAttempts < 1 {
		return fmt.Errorf("LOGIN_ATTEMPTS must be at least 1, got: %d", c.Security.LoginAttempts)
	}
	if c.Security.LoginWindow <= 0 {
		return fmt.Errorf("LOGIN_WINDOW must be positive, got: %v", c.Security.LoginWindow)
	}
	if mode == auth.ModeNone {
		return nil
	}

	if c.Security.AdminUsername == "" {
		return fmt.Errorf("ADMIN_USERNAME is required when AUTH_MODE=%s", mode)
	}
	if len(c.Security.AdminPassword) < auth.MinPasswordLength {
		return fmt.Errorf("ADMIN_PASSWORD must be at least %d characters when AUTH_MODE=%s", auth.MinPasswordLength, mode)
	}
	if mode != auth.ModeJWT {
		return nil
	}
	if len(c.Security.JWTSecret) < auth.MinSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters when AUTH_MODE=jwt", auth.MinSecretLength)
	}
	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive, got: %v", c.Security.SessionTimeout)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got: %q", c.Logging.Format)
	}
	return nil
}
