// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package api

import (
	"github.com/tomtom215/backupd/internal/backup"
)

// ListBackupsRequest holds the query parameters of GET /api/v1/backups.
// The upper bound of perPage is configuration and is checked by the handler.
type ListBackupsRequest struct {
	Page    int `query:"page" validate:"min=1,max=1000000"`
	PerPage int `query:"perPage" validate:"min=1"`
	Days    int `query:"days" validate:"min=0,max=36500"`
}

// BackupNameRequest holds the {name} path parameter.
type BackupNameRequest struct {
	Name string `json:"name" validate:"required,backupname,max=255"`
}

// SetScheduleRequest is the request body for PUT /api/v1/backup/schedule.
// Every field is required; rule semantics are checked by backup.ParseRule.
type SetScheduleRequest struct {
	Enabled  *bool            `json:"enabled" validate:"required"`
	Rule     *backup.RuleSpec `json:"rule" validate:"required"`
	MaxFiles *int             `json:"maxFiles" validate:"required"`
}

// toScheduleConfig converts a validated request.
func (req *SetScheduleRequest) toScheduleConfig() backup.ScheduleConfig {
	return backup.ScheduleConfig{
		Enabled:  *req.Enabled,
		Rule:     *req.Rule,
		MaxFiles: *req.MaxFiles,
	}
}

// LoginRequest is the request body for POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=1024"`
}
