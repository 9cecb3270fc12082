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

	"github.com/tomtom215/backupd/internal/auth"
	"github.com/tomtom215/backupd/internal/logging"
	"github.com/tomtom215/backupd/internal/models"
)

const maxLoginBodyBytes = 8 << 10

// HandleLogin exchanges administrator credentials for a session token,
// returned in the body and as an HttpOnly cookie.
// POST /api/v1/auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if h.authn == nil || h.authn.Mode() != auth.ModeJWT {
		respondError(w, r, http.StatusForbidden, "LOGIN_DISABLED", auth.ErrLoginUnavailable.Error(), nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodyBytes)
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidationError(w, r, "body", "request body must be JSON credentials")
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	token, err := h.authn.Login(auth.ClientIP(r), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrTooManyAttempts):
		respondError(w, r, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", err.Error(), nil)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error(), nil)
		return
	case err != nil:
		handleServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    token.Value,
		Path:     "/",
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteStrictMode,
	})

	logging.Ctx(r.Context()).Info().Str("username", sanitizeLogValue(req.Username)).Msg("Administrator logged in")
	respondSuccess(w, r, http.StatusOK, models.LoginResponse{
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
		Username:  req.Username,
	})
}

// HandleLogout clears the session cookie. Tokens stay valid until they expire.
// POST /api/v1/auth/logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteStrictMode,
	})
	respondSuccess(w, r, http.StatusOK, map[string]bool{"loggedOut": true})
}

func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
