// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/backupd/internal/backup"
	"github.com/tomtom215/backupd/internal/logging"
	"github.com/tomtom215/backupd/internal/models"
)

// uploadFieldName is the multipart field carrying an uploaded snapshot.
const uploadFieldName = "backup"

// multipartOverheadBytes is the allowance for multipart headers and boundaries
// on top of the snapshot size cap.
const multipartOverheadBytes = 1 << 20

// parseListRequest extracts and validates the listing query parameters.
func (h *Handler) parseListRequest(w http.ResponseWriter, r *http.Request) (ListBackupsRequest, bool) {
	var req ListBackupsRequest
	var err error

	if req.Page, err = parseIntQuery(r, "page", 1); err == nil {
		if req.PerPage, err = parseIntQuery(r, "perPage", h.cfg.DefaultPerPage); err == nil {
			req.Days, err = parseIntQuery(r, "days", 0)
		}
	}
	if err != nil {
		handleServiceError(w, r, err)
		return req, false
	}

	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return req, false
	}
	if req.PerPage > h.cfg.MaxPerPage {
		respondValidationError(w, r, "perPage", fmt.Sprintf("perPage must be at most %d", h.cfg.MaxPerPage))
		return req, false
	}
	return req, true
}

// backupName extracts and validates the {name} path parameter.
func backupName(w http.ResponseWriter, r *http.Request) (string, bool) {
	req := BackupNameRequest{Name: chi.URLParam(r, "name")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return "", false
	}
	return req.Name, true
}

// HandleListBackups returns a newest-first page of artifacts
// GET /api/v1/backups?page=1&perPage=20&days=7
func (h *Handler) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseListRequest(w, r)
	if !ok {
		return
	}

	result, err := h.manager.ListBackups(backup.ListOptions{
		Page:    req.Page,
		PerPage: req.PerPage,
		Days:    req.Days,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if result.Items == nil {
		result.Items = []backup.ArtifactDescriptor{}
	}
	respondSuccess(w, r, http.StatusOK, result)
}

// HandleDownloadBackup streams the raw bytes of an artifact
// GET /api/v1/backups/{name}/download
func (h *Handler) HandleDownloadBackup(w http.ResponseWriter, r *http.Request) {
	name, ok := backupName(w, r)
	if !ok {
		return
	}

	data, desc, err := h.manager.DownloadBackup(name)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", desc.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Last-Modified", desc.ModifiedAt.UTC().Format(http.TimeFormat))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("artifact", name).Msg("Failed to stream backup download")
	}
}

// HandleDeleteBackup removes an artifact
// DELETE /api/v1/backups/{name}
func (h *Handler) HandleDeleteBackup(w http.ResponseWriter, r *http.Request) {
	name, ok := backupName(w, r)
	if !ok {
		return
	}

	if err := h.manager.DeleteBackup(name); err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]string{"deleted": name})
}

// HandleRestoreBackup replaces the live data with a stored artifact
// POST /api/v1/backups/{name}/restore
func (h *Handler) HandleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	name, ok := backupName(w, r)
	if !ok {
		return
	}

	start := time.Now()
	if err := h.manager.RestoreBackup(r.Context(), name); err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := models.NewSuccessResponse(models.RestoreResponse{
		Source:     backup.RestoreFromArtifact,
		Name:       name,
		RestoredAt: time.Now().UTC(),
	})
	resp.Metadata.DurationMS = time.Since(start).Milliseconds()
	respondJSON(w, r, http.StatusOK, resp)
}

// HandleRestoreUpload validates an uploaded snapshot and applies it. The
// upload is never stored as an artifact.
// POST /api/v1/backups/restore/upload (multipart/form-data, field "backup")
func (h *Handler) HandleRestoreUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+multipartOverheadBytes)

	data, err := h.readUpload(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || errors.Is(err, errUploadTooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
				fmt.Sprintf("upload exceeds %d bytes", h.cfg.MaxUploadBytes), nil)
			return
		}
		handleServiceError(w, r, err)
		return
	}

	start := time.Now()
	if err := h.manager.RestoreUpload(r.Context(), data); err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := models.NewSuccessResponse(models.RestoreResponse{
		Source:     backup.RestoreFromUpload,
		RestoredAt: time.Now().UTC(),
	})
	resp.Metadata.DurationMS = time.Since(start).Milliseconds()
	respondJSON(w, r, http.StatusOK, resp)
}

var errUploadTooLarge = errors.New("upload too large")

// readUpload returns the content of the "backup" multipart field without
// buffering other parts to disk.
func (h *Handler) readUpload(r *http.Request) ([]byte, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, &backup.ValidationError{Field: uploadFieldName, Message: "request must be multipart/form-data"}
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, &backup.ValidationError{Field: uploadFieldName, Message: "file is required"}
		}
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, err
			}
			return nil, &backup.ValidationError{Field: uploadFieldName, Message: "malformed multipart body"}
		}
		if part.FormName() != uploadFieldName {
			_ = part.Close()
			continue
		}

		data, err := io.ReadAll(io.LimitReader(part, h.cfg.MaxUploadBytes+1))
		_ = part.Close()
		if err != nil {
			return nil, err
		}
		if int64(len(data)) > h.cfg.MaxUploadBytes {
			return nil, errUploadTooLarge
		}
		return data, nil
	}
}
