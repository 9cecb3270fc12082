// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Backup Cycle Metrics
	BackupRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_runs_total",
			Help: "Total number of backup cycles by trigger and result",
		},
		[]string{"trigger", "result"}, // trigger: manual, scheduled; result: success, failure
	)

	BackupRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backup_run_duration_seconds",
			Help:    "Duration of backup cycles in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"trigger"},
	)

	BackupLastSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backup_last_size_bytes",
			Help: "Size in bytes of the most recently created artifact",
		},
	)

	BackupLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backup_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful backup cycle",
		},
	)

	BackupArtifactsStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backup_artifacts_stored",
			Help: "Number of artifacts currently in the backup directory",
		},
	)

	BackupEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_evictions_total",
			Help: "Total number of artifacts evicted by retention",
		},
		[]string{"result"}, // success, failure
	)

	BackupRestoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_restores_total",
			Help: "Total number of restores by source and result",
		},
		[]string{"source", "result"}, // source: artifact, upload
	)

	// Schedule Metrics
	BackupScheduleEnabled = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backup_schedule_enabled",
			Help: "Whether unattended backups are enabled (1) or not (0)",
		},
	)

	BackupNextRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backup_next_run_timestamp_seconds",
			Help: "Unix timestamp of the next scheduled backup, 0 when idle",
		},
	)

	BackupSkippedFirings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_skipped_firings_total",
			Help: "Total number of scheduled firings that did not run a cycle",
		},
		[]string{"reason"}, // duplicate, missed
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "backup_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// Event stream
	EventClientsConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "event_stream_clients_connected",
			Help: "Number of connected event stream clients",
		},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_stream_dropped_total",
			Help: "Events not delivered because a buffer was full",
		},
		[]string{"reason"}, // hub_full, client_slow
	)

	// Authentication
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Authentication attempts by mode and result",
		},
		[]string{"mode", "result"}, // result: success, failure, throttled
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordBackupRun records the outcome of one backup cycle.
func RecordBackupRun(trigger string, duration time.Duration, sizeBytes int64, err error) {
	BackupRunDuration.WithLabelValues(trigger).Observe(duration.Seconds())
	if err != nil {
		BackupRunsTotal.WithLabelValues(trigger, "failure").Inc()
		return
	}
	BackupRunsTotal.WithLabelValues(trigger, "success").Inc()
	BackupLastSizeBytes.Set(float64(sizeBytes))
	BackupLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordEviction records one retention deletion attempt.
func RecordEviction(err error) {
	if err != nil {
		BackupEvictionsTotal.WithLabelValues("failure").Inc()
		return
	}
	BackupEvictionsTotal.WithLabelValues("success").Inc()
}

// RecordRestore records a restore attempt.
func RecordRestore(source string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	BackupRestoresTotal.WithLabelValues(source, result).Inc()
}

// SetSchedule publishes the scheduler state. A zero next time means idle.
func SetSchedule(enabled bool, next time.Time) {
	if enabled {
		BackupScheduleEnabled.Set(1)
	} else {
		BackupScheduleEnabled.Set(0)
	}
	if next.IsZero() {
		BackupNextRun.Set(0)
		return
	}
	BackupNextRun.Set(float64(next.Unix()))
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordAuthAttempt records one authentication decision.
func RecordAuthAttempt(mode, result string) {
	AuthAttemptsTotal.WithLabelValues(mode, result).Inc()
}
