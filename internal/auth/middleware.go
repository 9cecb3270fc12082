// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/backupd/internal/logging"
	"github.com/tomtom215/backupd/internal/models"
)

// TokenCookieName carries the session token for browser clients.
const TokenCookieName = "backupd_token"

const basicRealm = `Basic realm="backupd", charset="UTF-8"`

type contextKey string

// ClaimsContextKey holds the authenticated *Claims.
const ClaimsContextKey contextKey = "claims"

// ClaimsFromContext returns the authenticated claims, or nil in mode none.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(ClaimsContextKey).(*Claims)
	return claims
}

// ClientIP returns the request's remote IP without the port. Run it after
// chi's RealIP middleware when behind a proxy.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Middleware enforces the configured mode on every request.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				claims *Claims
				err    error
			)
			switch a.mode {
			case ModeNone:
				next.ServeHTTP(w, r)
				return
			case ModeBasic:
				claims, err = a.authenticateBasic(r)
			case ModeJWT:
				claims, err = a.authenticateJWT(r)
			}

			if err != nil {
				a.reject(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ClaimsContextKey, claims)))
		})
	}
}

func (a *Authenticator) authenticateBasic(r *http.Request) (*Claims, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return nil, errMissingCredentials
	}
	return a.checkCredentials(ClientIP(r), username, password)
}

func (a *Authenticator) authenticateJWT(r *http.Request) (*Claims, error) {
	token, err := extractToken(r)
	if err != nil {
		return nil, err
	}
	return a.validateToken(ClientIP(r), token)
}

var errMissingCredentials = errors.New("authentication required")

// extractToken reads a Bearer header, falling back to the session cookie.
func extractToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		cookie, err := r.Cookie(TokenCookieName)
		if err != nil || cookie.Value == "" {
			return "", errMissingCredentials
		}
		return cookie.Value, nil
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errors.New("invalid authorization header")
	}
	return token, nil
}

func (a *Authenticator) reject(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := http.StatusUnauthorized, "UNAUTHORIZED", "authentication required"
	switch {
	case errors.Is(err, ErrTooManyAttempts):
		status, code, message = http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", err.Error()
	case errors.Is(err, errMissingCredentials):
	default:
		message = "invalid credentials"
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Request authentication failed")
	}

	if a.mode == ModeBasic && status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", basicRealm)
	}
	writeError(w, r, status, code, message)
}

// writeError sends the API error envelope.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	resp := models.NewErrorResponse(code, message, nil)
	resp.Metadata.RequestID = logging.RequestIDFromContext(r.Context())

	data, err := json.Marshal(resp)
	if err != nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
