// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/backupd/internal/logging"
	"github.com/tomtom215/backupd/internal/metrics"
)

// Mode selects how API requests are authenticated.
type Mode string

const (
	ModeNone  Mode = "none"
	ModeBasic Mode = "basic"
	ModeJWT   Mode = "jwt"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeNone, ModeBasic, ModeJWT:
		return true
	}
	return false
}

var (
	// ErrInvalidCredentials is returned for a wrong username or password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrTooManyAttempts is returned while the client IP is throttled.
	ErrTooManyAttempts = errors.New("too many failed attempts")

	// ErrLoginUnavailable is returned by Login outside jwt mode.
	ErrLoginUnavailable = errors.New("token login is not enabled")
)

// Config holds authentication settings.
type Config struct {
	Mode           Mode
	JWTSecret      string
	SessionTimeout time.Duration
	Username       string
	Password       string
	// LoginAttempts failures are allowed per IP, refilled over LoginWindow.
	LoginAttempts int
	LoginWindow   time.Duration
	// BcryptCost of 0 uses DefaultBcryptCost.
	BcryptCost int
}

// Authenticator checks credentials and tokens for the configured mode.
type Authenticator struct {
	mode    Mode
	creds   *Credentials
	tokens  *JWTManager
	limiter *LoginLimiter
}

// NewAuthenticator builds an Authenticator. Mode none needs no credentials.
func NewAuthenticator(cfg Config) (*Authenticator, error) {
	if cfg.Mode == "" {
		cfg.Mode = ModeNone
	}
	if !cfg.Mode.Valid() {
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
	if cfg.LoginWindow <= 0 {
		cfg.LoginWindow = 15 * time.Minute
	}

	a := &Authenticator{
		mode:    cfg.Mode,
		limiter: NewLoginLimiter(cfg.LoginAttempts, cfg.LoginWindow),
	}
	if cfg.Mode == ModeNone {
		logging.Warn().Msg("Authentication is disabled (AUTH_MODE=none); every API request is allowed")
		return a, nil
	}

	creds, err := NewCredentials(cfg.Username, cfg.Password, cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("admin credentials: %w", err)
	}
	a.creds = creds

	if cfg.Mode == ModeJWT {
		tokens, err := NewJWTManager(cfg.JWTSecret, cfg.SessionTimeout)
		if err != nil {
			return nil, err
		}
		a.tokens = tokens
	}
	return a, nil
}

// Mode returns the configured mode.
func (a *Authenticator) Mode() Mode {
	return a.mode
}

// Limiter returns the failed-attempt limiter so it can be supervised.
func (a *Authenticator) Limiter() *LoginLimiter {
	return a.limiter
}

// Login exchanges administrator credentials for a session token.
func (a *Authenticator) Login(clientIP, username, password string) (Token, error) {
	if a.mode != ModeJWT {
		return Token{}, ErrLoginUnavailable
	}
	if _, err := a.checkCredentials(clientIP, username, password); err != nil {
		return Token{}, err
	}
	return a.tokens.GenerateToken(username)
}

// checkCredentials verifies username and password against the limiter.
func (a *Authenticator) checkCredentials(clientIP, username, password string) (*Claims, error) {
	if a.limiter.Blocked(clientIP) {
		metrics.RecordAuthAttempt(string(a.mode), "throttled")
		return nil, ErrTooManyAttempts
	}
	if !a.creds.Verify(username, password) {
		a.limiter.RecordFailure(clientIP)
		metrics.RecordAuthAttempt(string(a.mode), "failure")
		logging.Warn().Str("client_ip", clientIP).Str("mode", string(a.mode)).Msg("Authentication failed")
		return nil, ErrInvalidCredentials
	}
	metrics.RecordAuthAttempt(string(a.mode), "success")
	return &Claims{Username: username}, nil
}

// validateToken verifies a session token. Only failures spend limiter attempts.
func (a *Authenticator) validateToken(clientIP, token string) (*Claims, error) {
	if a.limiter.Blocked(clientIP) {
		metrics.RecordAuthAttempt(string(a.mode), "throttled")
		return nil, ErrTooManyAttempts
	}
	claims, err := a.tokens.ValidateToken(token)
	if err != nil {
		a.limiter.RecordFailure(clientIP)
		metrics.RecordAuthAttempt(string(a.mode), "failure")
		return nil, err
	}
	return claims, nil
}
