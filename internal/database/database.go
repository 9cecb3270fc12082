// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

/*
database.go - DuckDB Handle

This file owns the connection to the DuckDB file protected by backupd.

Lifecycle:
  - Open(): creates the parent directory and opens the file read-write
  - Suspend(): checkpoints and closes the connection so the file can be replaced
  - Resume(): reopens the file after a restore
  - Close(): checkpoints and closes for good

Consistency:
  - Exec/QueryRow hold a read lock on the connection
  - Freeze() checkpoints and holds the write lock while the caller reads the
    file, so a snapshot never observes a half-written page
*/
//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB driver

	"github.com/tomtom215/backupd/internal/logging"
)

// ErrSuspended is returned by operations attempted while the connection is
// closed for a restore.
var ErrSuspended = errors.New("database is suspended")

// Config holds DuckDB connection settings.
type Config struct {
	// Path of the database file.
	Path string
	// Threads used by DuckDB. Zero means runtime.NumCPU().
	Threads int
	// MaxMemory is passed to DuckDB as max_memory, e.g. "1GB".
	MaxMemory string
}

// DB wraps the DuckDB connection.
type DB struct {
	mu        sync.RWMutex
	conn      *sql.DB
	cfg       Config
	suspended bool
}

// Open opens the database file, creating it and its directory if needed.
func Open(cfg Config) (*DB, error) {
	if cfg.Path == "" {
		return nil, errors.New("database path is required")
	}

	// 0750: owner rwx, group rx (gosec G301)
	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	conn, err := openConn(cfg)
	if err != nil {
		return nil, err
	}

	logging.Info().Str("path", cfg.Path).Msg("Database opened")
	return &DB{conn: conn, cfg: cfg}, nil
}

func openConn(cfg Config) (*sql.DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d", cfg.Path, threads)
	if cfg.MaxMemory != "" {
		connStr += "&max_memory=" + cfg.MaxMemory
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}

// GetDatabasePath returns the path to the database file.
func (db *DB) GetDatabasePath() string {
	return db.cfg.Path
}

// Exec runs a statement on the live connection.
func (db *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.suspended {
		return nil, ErrSuspended
	}
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	return db.conn.ExecContext(ctx, query, args...)
}

// QueryInt runs a query that returns a single integer.
func (db *DB) QueryInt(ctx context.Context, query string, args ...any) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.suspended {
		return 0, ErrSuspended
	}
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	var n int64
	if err := db.conn.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Checkpoint forces a WAL checkpoint.
func (db *DB) Checkpoint(ctx context.Context) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.suspended {
		return ErrSuspended
	}
	return checkpoint(ctx, db.conn)
}

func checkpoint(ctx context.Context, conn *sql.DB) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	if _, err := conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// Freeze checkpoints the database and calls fn with the file path while no
// statement can run. fn must not use db.
func (db *DB) Freeze(ctx context.Context, fn func(path string) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.suspended {
		return ErrSuspended
	}
	if err := checkpoint(ctx, db.conn); err != nil {
		return err
	}
	return fn(db.cfg.Path)
}

// Suspend checkpoints and closes the connection. Until Resume, every
// operation returns ErrSuspended.
func (db *DB) Suspend(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.suspended {
		return ErrSuspended
	}
	if err := checkpoint(ctx, db.conn); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint database before suspend")
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	db.conn = nil
	db.suspended = true
	logging.Info().Str("path", db.cfg.Path).Msg("Database suspended")
	return nil
}

// Resume reopens a suspended database.
func (db *DB) Resume() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if !db.suspended {
		return nil
	}
	conn, err := openConn(db.cfg)
	if err != nil {
		return err
	}
	db.conn = conn
	db.suspended = false
	logging.Info().Str("path", db.cfg.Path).Msg("Database resumed")
	return nil
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.suspended {
		return ErrSuspended
	}
	return db.conn.PingContext(ctx)
}

// Close checkpoints and closes the connection. It is a no-op while suspended.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := checkpoint(ctx, db.conn); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
	}
	cancel()

	err := db.conn.Close()
	db.conn = nil
	db.suspended = true
	return err
}

// Verify opens the database file at path read-only and runs a probe query.
// It reports the number of user tables.
func Verify(ctx context.Context, path string) (int64, error) {
	conn, err := sql.Open("duckdb", path+"?access_mode=read_only")
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer closeQuietly(conn)

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var one int
	if err := conn.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return 0, fmt.Errorf("database probe failed: %w", err)
	}
	var tables int64
	err = conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema NOT IN ('information_schema', 'pg_catalog')").Scan(&tables)
	if err != nil {
		return 0, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

// ensureContext creates a context with 30-second timeout if none provided
func ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}
	if _, ok := ctx.Deadline(); !ok {
		return context.WithTimeout(ctx, 30*time.Second)
	}
	return ctx, func() {}
}

func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logging.Debug().Err(err).Msg("Failed to close database connection")
	}
}
