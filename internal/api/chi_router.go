// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires handlers and middleware into a Chi route table.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil middleware factory uses the defaults.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: mw,
	}
}

// SetupChi configures all HTTP routes using Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(PrometheusMetrics())
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	// ========================
	// Health and Metrics
	// ========================
	r.Get("/health/live", router.handler.HealthLive)
	r.Handle("/metrics", promhttp.Handler())

	authenticate := router.handler.authenticate()

	// ========================
	// Authentication
	// ========================
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())

		r.Post("/login", router.handler.HandleLogin)
		r.Post("/logout", router.handler.HandleLogout)
	})

	// ========================
	// Backup Endpoints
	// ========================
	r.Route("/api/v1/backup", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(authenticate)

		r.Post("/", router.handler.HandleCreateBackup)
		r.Get("/stats", router.handler.HandleGetBackupStats)
		r.Get("/retention/preview", router.handler.HandleRetentionPreview)
		r.Get("/schedule", router.handler.HandleGetScheduleConfig)
		r.Put("/schedule", router.handler.HandleSetScheduleConfig)
	})

	r.Route("/api/v1/backups", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(authenticate)

		r.Get("/", router.handler.HandleListBackups)
		r.Post("/restore/upload", router.handler.HandleRestoreUpload)

		r.Route("/{name}", func(r chi.Router) {
			r.Delete("/", router.handler.HandleDeleteBackup)
			r.Get("/download", router.handler.HandleDownloadBackup)
			r.Post("/restore", router.handler.HandleRestoreBackup)
		})
	})

	// ========================
	// Event Stream
	// ========================
	r.With(router.chiMiddleware.RateLimit(), authenticate).Get("/api/v1/events", router.handler.HandleEvents)

	return r
}
