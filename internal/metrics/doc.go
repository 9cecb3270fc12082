// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

// Package metrics defines the Prometheus instrumentation for backupd.
//
// All collectors are registered with the default registry through promauto
// and exposed by the HTTP server at /metrics.
//
// # Backup Metrics
//
//   - backup_runs_total{trigger,result}: cycles by manual/scheduled and success/failure
//   - backup_run_duration_seconds{trigger}: cycle latency
//   - backup_last_size_bytes, backup_last_success_timestamp_seconds
//   - backup_artifacts_stored: artifacts on disk after the last mutation
//   - backup_evictions_total{result}: retention deletions
//   - backup_restores_total{source,result}: restores from an artifact or an upload
//
// # Schedule Metrics
//
//   - backup_schedule_enabled: 1 when armed
//   - backup_next_run_timestamp_seconds: next firing, 0 when idle
//   - backup_skipped_firings_total{reason}: duplicate or missed slots
//
// # Circuit Breaker Metrics
//
//   - backup_circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open
//   - backup_circuit_breaker_requests_total{name,result}
//   - backup_circuit_breaker_state_transitions_total{name,from_state,to_state}
//
// Example alert:
//
//	- alert: BackupFailing
//	  expr: increase(backup_runs_total{result="failure"}[1d]) > 0
package metrics
