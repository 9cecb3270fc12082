// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

/*
Package models defines the HTTP response shapes of backupd.

Every endpoint answers with an APIResponse envelope. Backup-specific payloads
(ScheduleResponse, BackupRunResponse, RetentionPreviewResponse,
RestoreResponse) are built from backup package types by the New* helpers so
handlers never format domain values themselves.
*/
package models
