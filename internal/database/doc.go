// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

// Package database manages the DuckDB file that backupd protects.
//
// The DB handle serializes access to the connection so that snapshots can be
// taken from a checkpointed file (Freeze) and restores can swap the file out
// from under a closed connection (Suspend/Resume). Verify probes a candidate
// file before it replaces the live one.
package database
