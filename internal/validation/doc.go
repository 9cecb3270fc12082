// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by all HTTP handlers. Field errors
// are reported by their wire names (the json or query tag), so a failure on
//
//	PerPage int `query:"perPage" validate:"min=1,max=1000"`
//
// produces details.field = "perPage", matching what the client sent.
//
// # Custom Tags
//
//   - backupname: a bare artifact file name (no separators, no leading dot)
//
// # Usage
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
package validation
