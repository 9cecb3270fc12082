// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

/*
Package config loads backupd configuration with Koanf v2.

# Configuration Sources

Sources are layered, later ones winning:
  - Built-in defaults (defaultConfig)
  - An optional YAML file: CONFIG_PATH, ./config.yaml, /etc/backupd/config.yaml
  - Environment variables

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT (default: 8089), HTTP_TIMEOUT, HTTP_SHUTDOWN_TIMEOUT

Backup:
  - BACKUP_DIR: Absolute backup directory (default: /data/backups)
  - BACKUP_TIMEZONE: IANA zone for schedules (default: UTC)
  - BACKUP_DEFAULT_MAX_FILES: Retention before a schedule is saved (default: 7)
  - BACKUP_MAX_UPLOAD_BYTES: Upload cap (default: 1GiB)
  - BACKUP_COMPRESSION_LEVEL: gzip level 1-9 (default: 6)
  - BACKUP_VERIFY_RESTORE: Probe restored databases (default: true)
  - BACKUP_BREAKER_*: Circuit breaker around snapshot dump and restore

Database:
  - DUCKDB_PATH (default: /data/backupd.duckdb), DUCKDB_THREADS, DUCKDB_MAX_MEMORY

State:
  - STATE_BACKEND: badger or file (default: badger)
  - STATE_PATH: BadgerDB directory or JSON file (default: /data/state)

API:
  - API_DEFAULT_PER_PAGE, API_MAX_PER_PAGE
  - RATE_LIMIT_REQS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - CORS_ORIGINS: Comma-separated list

Security:
  - AUTH_MODE: none, basic or jwt (default: none)
  - ADMIN_USERNAME, ADMIN_PASSWORD: The single administrator account
  - JWT_SECRET: HS256 signing secret, 32+ characters (jwt mode)
  - SESSION_TIMEOUT: Token lifetime (default: 24h)
  - LOGIN_ATTEMPTS, LOGIN_WINDOW: Failed attempts allowed per IP (default: 5 per 15m)

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	manager, err := backup.NewManager(ctx, cfg.ToBackupConfig(), archiver, archiver, states)
*/
package config
