// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package backup

import (
	"time"

	"github.com/goccy/go-json"
)

// Trigger identifies what started a backup cycle.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
)

// RestoreSource identifies where restored bytes came from.
type RestoreSource string

const (
	RestoreFromArtifact RestoreSource = "artifact"
	RestoreFromUpload   RestoreSource = "upload"
)

// ArtifactDescriptor describes one backup file in the backup directory.
type ArtifactDescriptor struct {
	Name       string    `json:"name"`
	SizeBytes  int64     `json:"sizeBytes"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// ScheduleState is the persisted configuration of unattended backups.
type ScheduleState struct {
	Enabled   bool
	Rule      Rule
	MaxFiles  int
	LastRunAt *time.Time
	UpdatedAt time.Time
}

// scheduleStateJSON is the durable form. The rule is stored in its flat spec shape.
type scheduleStateJSON struct {
	Enabled   bool       `json:"enabled"`
	Rule      RuleSpec   `json:"rule"`
	MaxFiles  int        `json:"maxFiles"`
	LastRunAt *time.Time `json:"lastRunAt,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// MarshalJSON encodes the state with the rule in its wire form.
func (s ScheduleState) MarshalJSON() ([]byte, error) {
	out := scheduleStateJSON{
		Enabled:   s.Enabled,
		MaxFiles:  s.MaxFiles,
		LastRunAt: s.LastRunAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.Rule != nil {
		out.Rule = s.Rule.Spec()
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes and validates a persisted state.
func (s *ScheduleState) UnmarshalJSON(data []byte) error {
	var in scheduleStateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	rule, err := ParseRule(in.Rule)
	if err != nil {
		return err
	}
	if in.MaxFiles < 1 {
		return newValidationError("maxFiles", "must be at least 1, got %d", in.MaxFiles)
	}
	*s = ScheduleState{
		Enabled:   in.Enabled,
		Rule:      rule,
		MaxFiles:  in.MaxFiles,
		LastRunAt: in.LastRunAt,
		UpdatedAt: in.UpdatedAt,
	}
	return nil
}

// clone returns a copy that shares no pointers with s.
func (s ScheduleState) clone() ScheduleState {
	if s.LastRunAt != nil {
		t := *s.LastRunAt
		s.LastRunAt = &t
	}
	return s
}

// DefaultScheduleState is the state used on first boot: disabled, daily at
// midnight, keeping maxFiles artifacts.
func DefaultScheduleState(maxFiles int) ScheduleState {
	if maxFiles < 1 {
		maxFiles = DefaultMaxFiles
	}
	return ScheduleState{
		Enabled:  false,
		Rule:     Daily{Hour: 0, Minute: 0},
		MaxFiles: maxFiles,
	}
}

// ScheduleConfig is a requested change of the schedule. It is validated as a
// whole; nothing is applied unless every field is valid.
type ScheduleConfig struct {
	Enabled  bool     `json:"enabled"`
	Rule     RuleSpec `json:"rule"`
	MaxFiles int      `json:"maxFiles"`
}

// Validate parses the rule and checks maxFiles.
func (c ScheduleConfig) Validate() (Rule, error) {
	rule, err := ParseRule(c.Rule)
	if err != nil {
		return nil, err
	}
	if c.MaxFiles < 1 {
		return nil, newValidationError("maxFiles", "must be at least 1, got %d", c.MaxFiles)
	}
	return rule, nil
}

// ListOptions selects a page of artifacts.
type ListOptions struct {
	// Page is 1-based. Zero means the first page.
	Page int
	// PerPage is the page size. Zero means DefaultPerPage.
	PerPage int
	// Days keeps only artifacts modified within the last Days days. Zero disables the filter.
	Days int
}

// ListResult is one page of artifacts, newest first. Total counts every
// artifact that passed the date filter, across all pages.
type ListResult struct {
	Page    int                  `json:"page"`
	PerPage int                  `json:"perPage"`
	Total   int                  `json:"total"`
	Items   []ArtifactDescriptor `json:"items"`
}

// CycleReport summarizes one backup cycle.
type CycleReport struct {
	Trigger   Trigger
	StartedAt time.Time
	Duration  time.Duration
	Artifact  ArtifactDescriptor
	Evicted   []string
	// EvictionErr is set when some selected artifacts could not be deleted.
	EvictionErr *PartialEvictionError
	// Err is set when the cycle failed. No artifact was created.
	Err error
}

// Stats summarizes the backup directory and schedule.
type Stats struct {
	TotalArtifacts int        `json:"totalArtifacts"`
	TotalSizeBytes int64      `json:"totalSizeBytes"`
	OldestArtifact *time.Time `json:"oldestArtifact,omitempty"`
	NewestArtifact *time.Time `json:"newestArtifact,omitempty"`
	LastRunAt      *time.Time `json:"lastRunAt,omitempty"`
	NextRunAt      *time.Time `json:"nextRunAt,omitempty"`
	Enabled        bool       `json:"enabled"`
	MaxFiles       int        `json:"maxFiles"`
}
