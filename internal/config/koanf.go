// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/backupd/internal/auth"
	"github.com/tomtom215/backupd/internal/backup"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/backupd/config.yaml",
	"/etc/backupd/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8089,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Backup: BackupConfig{
			Dir:              "/data/backups",
			Timezone:         "UTC",
			DefaultMaxFiles:  backup.DefaultMaxFiles,
			MaxUploadBytes:   backup.DefaultMaxUploadBytes,
			CompressionLevel: 6,
			VerifyRestore:    true,
			Breaker: BreakerConfig{
				Enabled:          true,
				MaxRequests:      1,
				Interval:         0, // never reset closed-state counts
				Timeout:          5 * time.Minute,
				FailureThreshold: 3,
			},
		},
		Database: DatabaseConfig{
			Path:      "/data/backupd.duckdb",
			Threads:   0,
			MaxMemory: "1GB",
		},
		State: StateConfig{
			Backend:    "badger",
			Path:       "/data/state",
			SyncWrites: true,
		},
		API: APIConfig{
			DefaultPerPage:  backup.DefaultPerPage,
			MaxPerPage:      100,
			RateLimitReqs:   100,
			RateLimitWindow: 1 * time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Security: SecurityConfig{
			AuthMode:       string(auth.ModeNone),
			SessionTimeout: 24 * time.Hour,
			LoginAttempts:  5,
			LoginWindow:    15 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while YAML already yields slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	// Backup
	"backup_dir":               "backup.dir",
	"backup_timezone":          "backup.timezone",
	"backup_default_max_files": "backup.default_max_files",
	"backup_max_upload_bytes":  "backup.max_upload_bytes",
	"backup_compression_level": "backup.compression_level",
	"backup_verify_restore":    "backup.verify_restore",

	// Circuit breaker
	"backup_breaker_enabled":           "backup.breaker.enabled",
	"backup_breaker_max_requests":      "backup.breaker.max_requests",
	"backup_breaker_interval":          "backup.breaker.interval",
	"backup_breaker_timeout":           "backup.breaker.timeout",
	"backup_breaker_failure_threshold": "backup.breaker.failure_threshold",

	// Database
	"duckdb_path":       "database.path",
	"duckdb_threads":    "database.threads",
	"duckdb_max_memory": "database.max_memory",

	// State
	"state_backend":     "state.backend",
	"state_path":        "state.path",
	"state_sync_writes": "state.sync_writes",

	// API
	"api_default_per_page": "api.default_per_page",
	"api_max_per_page":     "api.max_per_page",
	"rate_limit_reqs":      "api.rate_limit_reqs",
	"rate_limit_window":    "api.rate_limit_window",
	"disable_rate_limit":   "api.rate_limit_disabled",
	"cors_origins":         "api.cors_origins",

	// Security
	"auth_mode":       "security.auth_mode",
	"jwt_secret":      "security.jwt_secret",
	"session_timeout": "security.session_timeout",
	"admin_username":  "security.admin_username",
	"admin_password":  "security.admin_password",
	"login_attempts":  "security.login_attempts",
	"login_window":    "security.login_window",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - BACKUP_DIR -> backup.dir
//   - BACKUP_TIMEZONE -> backup.timezone
//   - DUCKDB_PATH -> database.path
//   - HTTP_PORT -> server.port
//
// Unmapped variables return "" and are skipped, so unrelated environment
// variables never reach the configuration.
func envTransformFunc(key string) string {
	if path, ok := envMappings[strings.ToLower(key)]; ok {
		return path
	}
	return ""
}
