// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/backupd/internal/backup"
	"github.com/tomtom215/backupd/internal/logging"
	"github.com/tomtom215/backupd/internal/models"
)

// maxScheduleBodyBytes bounds the schedule request body.
const maxScheduleBodyBytes = 64 << 10

// scheduleResponse pairs a schedule state with its next firing.
func (h *Handler) scheduleResponse(state backup.ScheduleState) models.ScheduleResponse {
	next, ok := h.manager.NextScheduledBackup()
	return models.NewScheduleResponse(state, next, ok, h.cfg.Timezone)
}

// HandleGetScheduleConfig returns the current schedule
// GET /api/v1/backup/schedule
func (h *Handler) HandleGetScheduleConfig(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, h.scheduleResponse(h.manager.GetScheduleConfig()))
}

// HandleSetScheduleConfig validates and applies a new schedule. Nothing
// changes unless every field is valid.
// PUT /api/v1/backup/schedule
func (h *Handler) HandleSetScheduleConfig(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxScheduleBodyBytes)

	var req SetScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
			return
		}
		respondValidationError(w, r, "body", "request body must be a JSON schedule: "+err.Error())
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	state, err := h.manager.SetScheduleConfig(r.Context(), req.toScheduleConfig())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Bool("enabled", state.Enabled).
		Str("rule", state.Rule.String()).
		Int("max_files", state.MaxFiles).
		Msg("Backup schedule updated via API")

	respondSuccess(w, r, http.StatusOK, h.scheduleResponse(state))
}

// HandleCreateBackup runs one backup cycle now, including retention
// POST /api/v1/backup
func (h *Handler) HandleCreateBackup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	report, err := h.manager.CreateBackup(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := models.NewSuccessResponse(models.NewBackupRunResponse(report))
	resp.Metadata.DurationMS = time.Since(start).Milliseconds()
	respondJSON(w, r, http.StatusCreated, resp)
}

// HandleGetBackupStats returns a summary of the backup directory and schedule
// GET /api/v1/backup/stats
func (h *Handler) HandleGetBackupStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.manager.GetStats()
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, stats)
}

// HandleRetentionPreview lists what the current maxFiles would evict
// GET /api/v1/backup/retention/preview
func (h *Handler) HandleRetentionPreview(w http.ResponseWriter, r *http.Request) {
	stats, err := h.manager.GetStats()
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	evict, err := h.manager.RetentionPreview()
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	keep := stats.TotalArtifacts - len(evict)
	if keep < 0 {
		keep = 0
	}
	respondSuccess(w, r, http.StatusOK, models.RetentionPreviewResponse{
		MaxFiles:  stats.MaxFiles,
		WouldKeep: keep,
		Evict:     evict,
	})
}
