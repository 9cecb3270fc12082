// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/backupd/internal/backup"
	"github.com/tomtom215/backupd/internal/logging"
	"github.com/tomtom215/backupd/internal/models"
	"github.com/tomtom215/backupd/internal/validation"
)

// sanitizeLogValue removes control characters from a string to prevent log injection.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, r *http.Request, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	if response.Metadata.Timestamp.IsZero() {
		response.Metadata.Timestamp = time.Now().UTC()
	}
	if r != nil && response.Metadata.RequestID == "" {
		response.Metadata.RequestID = logging.RequestIDFromContext(r.Context())
	}

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondSuccess wraps data in a success envelope
func respondSuccess(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	respondJSON(w, r, status, models.NewSuccessResponse(data))
}

// respondError sends an error envelope
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	respondJSON(w, r, status, models.NewErrorResponse(code, message, details))
}

// respondValidationError reports a single invalid field.
func respondValidationError(w http.ResponseWriter, r *http.Request, field, message string) {
	respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", message, map[string]interface{}{"field": field})
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil if validation passes, or a models.APIError if validation fails.
//
// Example:
//
//	req := ListBackupsRequest{Page: page, PerPage: perPage}
//	if apiErr := validateRequest(&req); apiErr != nil {
//	    respondAPIError(w, r, http.StatusBadRequest, apiErr)
//	    return
//	}
func validateRequest(v interface{}) *models.APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}

	apiErr := validationErr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// respondAPIError sends a prepared APIError
func respondAPIError(w http.ResponseWriter, r *http.Request, status int, apiErr *models.APIError) {
	respondError(w, r, status, apiErr.Code, apiErr.Message, apiErr.Details)
}

// parseIntQuery reads an integer query parameter. A missing parameter yields
// defaultValue; a malformed one is a validation error naming the parameter.
func parseIntQuery(r *http.Request, key string, defaultValue int) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &backup.ValidationError{Field: key, Message: fmt.Sprintf("must be an integer, got %q", value)}
	}
	return n, nil
}

// handleServiceError maps a manager error onto the response contract.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *backup.ValidationError
	var xerr *backup.ExecutionError

	switch {
	case errors.As(err, &verr):
		respondValidationError(w, r, verr.Field, verr.Field+" "+verr.Message)

	case backup.IsNotFound(err):
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)

	case errors.As(err, &xerr):
		code := "BACKUP_FAILED"
		if xerr.Op == "restore" {
			code = "RESTORE_FAILED"
		}
		logging.Ctx(r.Context()).Error().
			Str("code", code).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API Error")
		respondError(w, r, http.StatusBadGateway, code, xerr.Err.Error(), nil)

	default:
		ref := logging.CorrelationIDFromContext(r.Context())
		if ref == "" {
			ref = logging.GenerateCorrelationID()
		}
		logging.Ctx(r.Context()).Error().
			Str("reference", ref).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API Error")
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "operation failed",
			map[string]interface{}{"reference": ref})
	}
}
