// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/tomtom215/backupd/internal/logging"
)

// Database is the subset of *database.DB the archiver needs.
type Database interface {
	GetDatabasePath() string
	Freeze(ctx context.Context, fn func(path string) error) error
	Suspend(ctx context.Context) error
	Resume() error
}

// VerifyFunc probes a database file and reports how many tables it holds.
type VerifyFunc func(ctx context.Context, path string) (int64, error)

// Config controls archive creation and restore.
type Config struct {
	// CompressionLevel is a gzip level from 1 (fastest) to 9 (smallest).
	CompressionLevel int
	// VerifyRestore probes the restored file before it replaces the live one.
	VerifyRestore bool
	// AppVersion is recorded in the manifest.
	AppVersion string
}

// Archiver produces and applies snapshots of a DuckDB file.
type Archiver struct {
	db     Database
	cfg    Config
	verify VerifyFunc
	now    func() time.Time
}

// Option configures an Archiver.
type Option func(*Archiver)

// WithVerifier sets the function used to probe restored files.
func WithVerifier(fn VerifyFunc) Option {
	return func(a *Archiver) { a.verify = fn }
}

// WithNow sets the clock used for manifest timestamps.
func WithNow(now func() time.Time) Option {
	return func(a *Archiver) { a.now = now }
}

// NewArchiver creates an archiver for db.
func NewArchiver(db Database, cfg Config, opts ...Option) (*Archiver, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	if cfg.CompressionLevel == 0 {
		cfg.CompressionLevel = gzip.DefaultCompression
	} else if cfg.CompressionLevel < gzip.BestSpeed || cfg.CompressionLevel > gzip.BestCompression {
		return nil, fmt.Errorf("compression level must be between %d and %d, got: %d",
			gzip.BestSpeed, gzip.BestCompression, cfg.CompressionLevel)
	}

	a := &Archiver{db: db, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	if a.cfg.VerifyRestore && a.verify == nil {
		return nil, errors.New("restore verification enabled without a verifier")
	}
	return a, nil
}

// ProduceSnapshot checkpoints the database and archives the file.
func (a *Archiver) ProduceSnapshot(ctx context.Context) ([]byte, error) {
	var files []archiveFile
	var dbName string

	err := a.db.Freeze(ctx, func(dbPath string) error {
		dbName = filepath.Base(dbPath)

		data, err := os.ReadFile(dbPath) //nolint:gosec // G304: configured database path
		if err != nil {
			return fmt.Errorf("failed to read database file: %w", err)
		}
		files = append(files, archiveFile{name: databasePrefix + dbName, data: data})

		wal, err := os.ReadFile(dbPath + walSuffix) //nolint:gosec // G304: configured database path
		switch {
		case err == nil && len(wal) > 0:
			files = append(files, archiveFile{name: databasePrefix + dbName + walSuffix, data: wal})
		case err != nil && !errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("failed to read WAL file: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m := Manifest{
		FormatVersion: FormatVersion,
		CreatedAt:     a.now().UTC(),
		AppVersion:    a.cfg.AppVersion,
		Database:      dbName,
	}
	var total int64
	for _, f := range files {
		m.Files = append(m.Files, FileEntry{Name: f.name, SizeBytes: int64(len(f.data)), SHA256: checksum(f.data)})
		total += int64(len(f.data))
	}

	out, err := encodeArchive(m, files, a.cfg.CompressionLevel)
	if err != nil {
		return nil, err
	}

	logging.Debug().
		Str("database", dbName).
		Int("files", len(files)).
		Int64("raw_bytes", total).
		Int("archive_bytes", len(out)).
		Msg("Snapshot produced")
	return out, nil
}

// ValidateSnapshot reports whether data is a complete archive whose files
// match the manifest.
func (a *Archiver) ValidateSnapshot(data []byte) error {
	_, err := decodeArchive(data)
	return err
}

// ApplySnapshot replaces the live database with the one in data. The live
// file is untouched unless the archive is valid and, when enabled, the
// restored file passes verification.
func (a *Archiver) ApplySnapshot(ctx context.Context, data []byte) error {
	c, err := decodeArchive(data)
	if err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}

	livePath := a.db.GetDatabasePath()
	tempPath := filepath.Join(filepath.Dir(livePath), ".restore-"+uuid.New().String()[:8]+"-"+filepath.Base(livePath))
	defer func() {
		removeIfExists(tempPath)
		removeIfExists(tempPath + walSuffix)
	}()

	if err := writeSynced(tempPath, c.database); err != nil {
		return err
	}
	if len(c.wal) > 0 {
		if err := writeSynced(tempPath+walSuffix, c.wal); err != nil {
			return err
		}
	}

	if a.cfg.VerifyRestore {
		tables, err := a.verify(ctx, tempPath)
		if err != nil {
			return fmt.Errorf("restored database failed verification: %w", err)
		}
		logging.Debug().Int64("tables", tables).Msg("Restored database verified")
	}

	if err := a.db.Suspend(ctx); err != nil {
		return fmt.Errorf("failed to suspend database: %w", err)
	}

	swapErr := swapFiles(tempPath, livePath)
	if err := a.db.Resume(); err != nil {
		if swapErr != nil {
			return errors.Join(swapErr, fmt.Errorf("failed to resume database: %w", err))
		}
		return fmt.Errorf("failed to resume database: %w", err)
	}
	if swapErr != nil {
		return swapErr
	}

	logging.Info().
		Str("database", livePath).
		Time("snapshot_created_at", c.manifest.CreatedAt).
		Bool("wal", len(c.wal) > 0).
		Msg("Snapshot applied")
	return nil
}

// swapFiles moves the restored file (and WAL) over the live ones. The live
// WAL goes first so it can never be replayed against the restored file.
func swapFiles(tempPath, livePath string) error {
	if err := os.Remove(livePath + walSuffix); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale WAL file: %w", err)
	}
	if err := os.Rename(tempPath, livePath); err != nil {
		return fmt.Errorf("failed to install database file: %w", err)
	}
	if _, err := os.Stat(tempPath + walSuffix); err == nil {
		if err := os.Rename(tempPath+walSuffix, livePath+walSuffix); err != nil {
			return fmt.Errorf("failed to install WAL file: %w", err)
		}
	}
	return syncDir(filepath.Dir(livePath))
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640) //nolint:gosec // G304: path derived from configured database path
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close() //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		f.Close() //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("failed to sync %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func syncDir(dir string) error {
	d, err := os.Open(dir) //nolint:gosec // G304: configured database directory
	if err != nil {
		return fmt.Errorf("failed to open database directory: %w", err)
	}
	defer d.Close() //nolint:errcheck // Read-only handle
	if err := d.Sync(); err != nil {
		return fmt.Errorf("failed to sync database directory: %w", err)
	}
	return nil
}

func removeIfExists(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Str("path", path).Msg("Failed to remove temporary restore file")
	}
}
