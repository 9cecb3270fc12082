// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package config

import (
	"time"

	"github.com/tomtom215/backupd/internal/auth"
	"github.com/tomtom215/backupd/internal/backup"
	"github.com/tomtom215/backupd/internal/database"
	"github.com/tomtom215/backupd/internal/logging"
	"github.com/tomtom215/backupd/internal/snapshot"
	"github.com/tomtom215/backupd/internal/state"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Backup   BackupConfig   `koanf:"backup"`
	Database DatabaseConfig `koanf:"database"`
	State    StateConfig    `koanf:"state"`
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// BackupConfig holds backup engine settings
type BackupConfig struct {
	// Dir is the absolute path of the backup directory.
	Dir string `koanf:"dir"`

	// Timezone is the IANA zone used to evaluate schedules.
	// Default: UTC
	Timezone string `koanf:"timezone"`

	// DefaultMaxFiles is the retention bound until a schedule is saved.
	DefaultMaxFiles int `koanf:"default_max_files"`

	// MaxUploadBytes caps uploaded snapshots.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// CompressionLevel is the gzip level of new archives (1-9).
	CompressionLevel int `koanf:"compression_level"`

	// VerifyRestore opens a restored database read-only before it replaces
	// the live file.
	VerifyRestore bool `koanf:"verify_restore"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig holds circuit breaker settings for snapshot dump and restore
type BreakerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// DatabaseConfig holds DuckDB settings
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
	MaxMemory string `koanf:"max_memory"`
}

// StateConfig selects where the schedule is persisted
type StateConfig struct {
	Backend    string `koanf:"backend"` // badger or file
	Path       string `koanf:"path"`
	SyncWrites bool   `koanf:"sync_writes"`
}

// APIConfig holds API pagination and throttling settings
type APIConfig struct {
	DefaultPerPage    int           `koanf:"default_per_page"`
	MaxPerPage        int           `koanf:"max_per_page"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// SecurityConfig holds API authentication settings
type SecurityConfig struct {
	// AuthMode is none, basic or jwt.
	// Default: none
	AuthMode       string        `koanf:"auth_mode"`
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`
	AdminUsername  string        `koanf:"admin_username"`
	AdminPassword  string        `koanf:"admin_password"`
	// LoginAttempts failed attempts are allowed per client IP per LoginWindow.
	LoginAttempts int           `koanf:"login_attempts"`
	LoginWindow   time.Duration `koanf:"login_window"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller adds file:line to every entry.
	Caller bool `koanf:"caller"`
}

// ToBackupConfig converts to the backup engine configuration.
func (c *Config) ToBackupConfig() *backup.Config {
	cfg := backup.DefaultConfig(c.Backup.Dir)
	cfg.Timezone = c.Backup.Timezone
	cfg.DefaultMaxFiles = c.Backup.DefaultMaxFiles
	cfg.MaxUploadBytes = c.Backup.MaxUploadBytes
	cfg.Breaker = backup.BreakerConfig{
		Enabled:          c.Backup.Breaker.Enabled,
		MaxRequests:      c.Backup.Breaker.MaxRequests,
		Interval:         c.Backup.Breaker.Interval,
		Timeout:          c.Backup.Breaker.Timeout,
		FailureThreshold: c.Backup.Breaker.FailureThreshold,
	}
	return cfg
}

// ToSnapshotConfig converts to the archiver configuration.
func (c *Config) ToSnapshotConfig(appVersion string) snapshot.Config {
	return snapshot.Config{
		CompressionLevel: c.Backup.CompressionLevel,
		VerifyRestore:    c.Backup.VerifyRestore,
		AppVersion:       appVersion,
	}
}

// ToDatabaseConfig converts to the DuckDB handle configuration.
func (c *Config) ToDatabaseConfig() database.Config {
	return database.Config{
		Path:      c.Database.Path,
		Threads:   c.Database.Threads,
		MaxMemory: c.Database.MaxMemory,
	}
}

// ToStateConfig converts to the state backend configuration.
func (c *Config) ToStateConfig() state.Config {
	return state.Config{
		Backend:    c.State.Backend,
		Path:       c.State.Path,
		SyncWrites: c.State.SyncWrites,
	}
}

// ToAuthConfig converts to the authenticator configuration.
func (c *Config) ToAuthConfig() auth.Config {
	return auth.Config{
		Mode:           auth.Mode(c.Security.AuthMode),
		JWTSecret:      c.Security.JWTSecret,
		SessionTimeout: c.Security.SessionTimeout,
		Username:       c.Security.AdminUsername,
		Password:       c.Security.AdminPassword,
		LoginAttempts:  c.Security.LoginAttempts,
		LoginWindow:    c.Security.LoginWindow,
	}
}

// ToLoggingConfig converts to the logging configuration. Every entry carries
// the service name and appVersion.
func (c *Config) ToLoggingConfig(appVersion string) logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]string{"service": "backupd", "version": appVersion}
	cfg.Level = c.Logging.Level
	cfg.Format = c.Logging.Format
	cfg.Caller = c.Logging.Caller
	return cfg
}
