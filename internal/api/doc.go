// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

/*
Package api provides the HTTP REST API layer for Backupd.

It is a thin adapter over backup.Manager: every route maps onto one manager
operation and every domain error onto one status code.

Key Components:

  - Router: Chi route table and middleware stack
  - Handler: Request handlers, one per route
  - ChiMiddleware: CORS (go-chi/cors) and per-IP rate limiting (go-chi/httprate)
  - Response formatting: models.APIResponse envelope with request metadata

Endpoints:

	GET    /api/v1/backup/schedule            current schedule and next firing
	PUT    /api/v1/backup/schedule            replace the schedule
	POST   /api/v1/backup                     run a backup now (201)
	GET    /api/v1/backup/stats               directory and schedule summary
	GET    /api/v1/backup/retention/preview   what the current maxFiles would evict
	GET    /api/v1/backups?page&perPage&days  newest-first page of artifacts
	GET    /api/v1/backups/{name}/download    raw artifact bytes
	DELETE /api/v1/backups/{name}             delete an artifact
	POST   /api/v1/backups/{name}/restore     restore from a stored artifact
	POST   /api/v1/backups/restore/upload     restore from a multipart upload (field "backup")
	GET    /api/v1/events                     websocket stream of backup and restore events
	POST   /api/v1/auth/login                 exchange credentials for a token (jwt mode)
	POST   /api/v1/auth/logout                clear the session cookie
	GET    /health/live                       liveness
	GET    /metrics                           Prometheus metrics

Error Mapping:

	*backup.ValidationError  400 VALIDATION_ERROR (details.field)
	backup.ErrNotFound       404 NOT_FOUND
	*backup.ExecutionError   502 BACKUP_FAILED or RESTORE_FAILED
	oversized upload         413 PAYLOAD_TOO_LARGE
	anything else            500 INTERNAL_ERROR (details.reference)

Authentication (auth.Authenticator) guards /api/v1/backup, /api/v1/backups and
/api/v1/events. It answers 401 UNAUTHORIZED, or 429 TOO_MANY_ATTEMPTS while the
client IP is throttled after failed attempts. Health and metrics stay open.

Execution failures carry the collaborator's message. Internal failures never
leak their cause; the reference matches the correlation_id of the log entry.

Example Usage:

	handler := api.NewHandler(manager, api.HandlerConfig{
	    DefaultPerPage: 20,
	    MaxPerPage:     100,
	    MaxUploadBytes: 1 << 30,
	    Timezone:       "UTC",
	    Version:        version,
	})
	handler.WithAuthenticator(authn).WithEventHub(hub)
	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(cfg.API))
	srv := &http.Server{Handler: router.SetupChi()}
*/
package api
