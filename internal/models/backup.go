// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package models

import (
	"time"

	"github.com/tomtom215/backupd/internal/backup"
)

// ScheduleResponse is the schedule as returned by GET/PUT /api/v1/backup/schedule.
type ScheduleResponse struct {
	Enabled   bool            `json:"enabled"`
	Rule      backup.RuleSpec `json:"rule"`
	RuleText  string          `json:"ruleText"`
	MaxFiles  int             `json:"maxFiles"`
	LastRunAt *time.Time      `json:"lastRunAt,omitempty"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
	NextRunAt *time.Time      `json:"nextRunAt,omitempty"`
	Timezone  string          `json:"timezone"`
}

// NewScheduleResponse converts a schedule state and its next firing.
func NewScheduleResponse(s backup.ScheduleState, next time.Time, hasNext bool, timezone string) ScheduleResponse {
	resp := ScheduleResponse{
		Enabled:   s.Enabled,
		MaxFiles:  s.MaxFiles,
		LastRunAt: s.LastRunAt,
		Timezone:  timezone,
	}
	if s.Rule != nil {
		resp.Rule = s.Rule.Spec()
		resp.RuleText = s.Rule.String()
	}
	if !s.UpdatedAt.IsZero() {
		u := s.UpdatedAt
		resp.UpdatedAt = &u
	}
	if hasNext {
		resp.NextRunAt = &next
	}
	return resp
}

// BackupRunResponse describes a completed manual backup.
type BackupRunResponse struct {
	Artifact         backup.ArtifactDescriptor `json:"artifact"`
	Evicted          []string                  `json:"evicted"`
	EvictionFailures map[string]string         `json:"evictionFailures,omitempty"`
	StartedAt        time.Time                 `json:"startedAt"`
	DurationMS       int64                     `json:"durationMs"`
}

// NewBackupRunResponse converts a cycle report.
func NewBackupRunResponse(r backup.CycleReport) BackupRunResponse {
	resp := BackupRunResponse{
		Artifact:   r.Artifact,
		Evicted:    r.Evicted,
		StartedAt:  r.StartedAt,
		DurationMS: r.Duration.Milliseconds(),
	}
	if resp.Evicted == nil {
		resp.Evicted = []string{}
	}
	if r.EvictionErr != nil {
		resp.EvictionFailures = make(map[string]string, len(r.EvictionErr.Failed))
		for name, err := range r.EvictionErr.Failed {
			resp.EvictionFailures[name] = err.Error()
		}
	}
	return resp
}

// RetentionPreviewResponse lists what the current retention bound would evict.
type RetentionPreviewResponse struct {
	MaxFiles  int                         `json:"maxFiles"`
	WouldKeep int                         `json:"wouldKeep"`
	Evict     []backup.ArtifactDescriptor `json:"evict"`
}

// RestoreResponse acknowledges a completed restore.
type RestoreResponse struct {
	Source     backup.RestoreSource `json:"source"`
	Name       string               `json:"name,omitempty"`
	RestoredAt time.Time            `json:"restoredAt"`
}

// HealthResponse is returned by /health/live.
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Uptime   float64           `json:"uptimeSeconds"`
	Breakers map[string]string `json:"breakers,omitempty"`
}

// LoginResponse is returned by a successful token login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Username  string    `json:"username"`
}
