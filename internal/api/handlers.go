// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/backupd/internal/auth"
	"github.com/tomtom215/backupd/internal/backup"
	ws "github.com/tomtom215/backupd/internal/websocket"
)

// BackupManager is the interface for backup operations
type BackupManager interface {
	GetScheduleConfig() backup.ScheduleState
	NextScheduledBackup() (time.Time, bool)
	SetScheduleConfig(ctx context.Context, cfg backup.ScheduleConfig) (backup.ScheduleState, error)
	CreateBackup(ctx context.Context) (backup.CycleReport, error)
	ListBackups(opts backup.ListOptions) (backup.ListResult, error)
	DownloadBackup(name string) ([]byte, backup.ArtifactDescriptor, error)
	DeleteBackup(name string) error
	RestoreBackup(ctx context.Context, name string) error
	RestoreUpload(ctx context.Context, data []byte) error
	RetentionPreview() ([]backup.ArtifactDescriptor, error)
	GetStats() (backup.Stats, error)
	BreakerStates() map[string]string
}

// HandlerConfig holds the request limits and display settings of the handlers.
type HandlerConfig struct {
	DefaultPerPage int
	MaxPerPage     int
	MaxUploadBytes int64
	// Timezone is echoed in schedule responses so clients can render times.
	Timezone string
	Version  string
	// AllowedOrigins are the browser origins accepted by the event stream.
	// "*" accepts any origin.
	AllowedOrigins []string
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_helpers.go: Response and error helpers
//   - handlers_schedule.go: Schedule, manual run, stats and retention preview
//   - handlers_artifacts.go: Listing, download, delete and restore
//   - handlers_health.go: Liveness
//   - handlers_auth.go: Token login and logout
//   - handlers_events.go: Event stream upgrade
type Handler struct {
	manager   BackupManager
	cfg       HandlerConfig
	startTime time.Time
	authn     *auth.Authenticator
	events    *ws.Hub
}

// NewHandler creates a new API handler. Zero limits fall back to the engine defaults.
func NewHandler(manager BackupManager, cfg HandlerConfig) *Handler {
	if cfg.DefaultPerPage <= 0 {
		cfg.DefaultPerPage = backup.DefaultPerPage
	}
	if cfg.MaxPerPage < cfg.DefaultPerPage {
		cfg.MaxPerPage = cfg.DefaultPerPage
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = backup.DefaultMaxUploadBytes
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}

	return &Handler{
		manager:   manager,
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// WithAuthenticator enables authentication. Without one every request is allowed.
func (h *Handler) WithAuthenticator(a *auth.Authenticator) *Handler {
	h.authn = a
	return h
}

// WithEventHub enables GET /api/v1/events.
func (h *Handler) WithEventHub(hub *ws.Hub) *Handler {
	h.events = hub
	return h
}

// authenticate returns the authentication middleware for protected routes.
func (h *Handler) authenticate() func(http.Handler) http.Handler {
	if h.authn == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return h.authn.Middleware()
}
