// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

// Package main is the entry point for the Backupd server.
//
// Backupd takes unattended, rule-scheduled snapshots of a DuckDB database,
// keeps the newest maxFiles of them, and restores from a stored or uploaded
// snapshot on request.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, optional YAML file, environment (Koanf v2)
//  2. Logging: zerolog with the configured level and format
//  3. Database: the DuckDB file that snapshots protect
//  4. State store: BadgerDB or JSON file holding the schedule
//  5. Archiver: gzip+tar snapshots with a checksummed manifest
//  6. Backup manager: scheduler, artifact store and retention
//  7. Event hub: websocket fan-out of backup and restore events
//  8. Authenticator: none, basic or jwt access to the API
//  9. HTTP server: REST API, event stream, liveness and Prometheus metrics
//  10. Supervisor tree: runs the scheduler, event hub, login limiter and
//     HTTP server under suture
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor tree. A running backup cycle
// finishes before the scheduler stops; the HTTP server drains in-flight
// requests for up to HTTP_SHUTDOWN_TIMEOUT.
//
// # Example Usage
//
//	export BACKUP_DIR=/srv/backups
//	export DUCKDB_PATH=/srv/app.duckdb
//	export BACKUP_TIMEZONE=Europe/Berlin
//	./backupd
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/backupd/internal/api"
	"github.com/tomtom215/backupd/internal/auth"
	"github.com/tomtom215/backupd/internal/backup"
	"github.com/tomtom215/backupd/internal/config"
	"github.com/tomtom215/backupd/internal/database"
	"github.com/tomtom215/backupd/internal/logging"
	"github.com/tomtom215/backupd/internal/metrics"
	"github.com/tomtom215/backupd/internal/snapshot"
	"github.com/tomtom215/backupd/internal/state"
	"github.com/tomtom215/backupd/internal/supervisor"
	"github.com/tomtom215/backupd/internal/supervisor/services"
	"github.com/tomtom215/backupd/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Backupd failed")
	}
}

//nolint:gocyclo // Sequential setup steps
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.Init(cfg.ToLoggingConfig(version))

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
	logging.Info().
		Str("backup_dir", cfg.Backup.Dir).
		Str("db_path", cfg.Database.Path).
		Str("state_backend", cfg.State.Backend).
		Str("timezone", cfg.Backup.Timezone).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Starting Backupd with supervisor tree")

	db, err := database.Open(cfg.ToDatabaseConfig())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	states, err := state.Open(cfg.ToStateConfig())
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer func() {
		if err := states.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing state store")
		}
	}()

	archiver, err := snapshot.NewArchiver(db, cfg.ToSnapshotConfig(version), snapshot.WithVerifier(database.Verify))
	if err != nil {
		return fmt.Errorf("failed to create archiver: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager, err := backup.NewManager(ctx, cfg.ToBackupConfig(), archiver, archiver, states)
	if err != nil {
		return fmt.Errorf("failed to create backup manager: %w", err)
	}
	hub := websocket.NewHub()
	manager.SetOnCycle(func(r backup.CycleReport) {
		if len(r.Evicted) > 0 {
			logging.Debug().Str("trigger", string(r.Trigger)).Strs("artifacts", r.Evicted).Msg("Retention evicted artifacts")
		}
		hub.BroadcastCycle(r)
	})
	manager.SetOnRestore(func(source backup.RestoreSource, name string) {
		checkRestoredDatabase(ctx, db, source, name)
		hub.BroadcastRestore(source, name)
	})

	authn, err := auth.NewAuthenticator(cfg.ToAuthConfig())
	if err != nil {
		return fmt.Errorf("failed to configure authentication: %w", err)
	}

	handler := api.NewHandler(manager, api.HandlerConfig{
		DefaultPerPage: cfg.API.DefaultPerPage,
		MaxPerPage:     cfg.API.MaxPerPage,
		MaxUploadBytes: cfg.Backup.MaxUploadBytes,
		Timezone:       cfg.Backup.Timezone,
		Version:        version,
		AllowedOrigins: cfg.API.CORSOrigins,
	}).WithAuthenticator(authn).WithEventHub(hub)
	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(cfg.API))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		// Uploads and restores can outlast a normal request timeout.
		ReadTimeout:  0,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create supervisor tree: %w", err)
	}
	tree.AddSchedulerService(services.NewBackupSchedulerService(manager))
	tree.AddAPIService(services.NewEventHubService(hub))
	tree.AddAPIService(authn.Limiter())
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
		cancel()
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Backupd stopped gracefully")
	return nil
}

// checkRestoredDatabase confirms the reopened database answers queries.
func checkRestoredDatabase(ctx context.Context, db *database.DB, source backup.RestoreSource, name string) {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tables, err := db.QueryInt(checkCtx, restoredTablesQuery)
	if err != nil {
		logging.Error().Err(err).Str("source", string(source)).Str("artifact", name).
			Msg("Restored database does not answer queries")
		return
	}
	logging.Info().Str("source", string(source)).Str("artifact", name).Int64("tables", tables).
		Msg("Restored database is serving")
}

const restoredTablesQuery = `SELECT count(*) FROM information_schema.tables
	WHERE table_schema NOT IN ('information_schema', 'pg_catalog')`
