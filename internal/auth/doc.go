// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

// Package auth protects the backup API with a single administrator account.
//
// Three modes are supported:
//
//	none   every request is allowed (the default; a warning is logged at startup)
//	basic  HTTP Basic credentials on every request
//	jwt    POST /api/v1/auth/login exchanges credentials for an HS256 token,
//	       sent back as a Bearer header or the backupd_token cookie
//
// The administrator password is kept only as a bcrypt hash. Failed attempts
// are throttled per client IP with a token bucket: each IP may fail
// LoginAttempts times, refilled over LoginWindow. While an IP is throttled
// even correct credentials are refused.
//
// Usage:
//
//	authn, err := auth.NewAuthenticator(cfg.ToAuthConfig())
//	r.Use(authn.Middleware())
//	tree.AddAPIService(authn.Limiter())
package auth
