// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/backupd/internal/models"
)

// HealthLive handles liveness probe requests. It reports the collaborator
// breaker states but never fails on them.
// GET /health/live
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	resp := models.NewSuccessResponse(models.HealthResponse{
		Status:   "ok",
		Version:  h.cfg.Version,
		Uptime:   time.Since(h.startTime).Seconds(),
		Breakers: h.manager.BreakerStates(),
	})
	respondJSON(w, r, http.StatusOK, resp)
}
