// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

// Package logging provides centralized zerolog-based structured logging for backupd.
//
// A single global logger is configured once from main via Init and used
// everywhere through the level helpers:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("artifact", name).Int64("size_bytes", n).Msg("Backup created")
//	logging.Error().Err(err).Msg("Scheduled backup failed")
//
// Long-lived components create a child logger tagged with their name:
//
//	logger := logging.WithComponent("backup-scheduler")
//
// HTTP handlers log through Ctx so that the correlation ID returned to a
// client in an error response can be found in the log stream.
//
// # Configuration
//
//	LOG_LEVEL   - trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - json, console (default: json)
//	LOG_CALLER  - include caller file:line (default: false)
//
// # slog Adapter
//
// SlogHandler lets slog-only libraries such as sutureslog write through zerolog.
//
// Always terminate log chains with .Msg() or .Send(); an unterminated event
// is never written.
package logging
