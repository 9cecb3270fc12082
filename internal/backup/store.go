// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

/*
store.go - Artifact Store

The Store owns the backup directory. Every artifact is a regular file named

	backup-<UTC creation time>-<random suffix><extension>

so that lexicographic order follows creation order. Files are written to a
temporary name in the same directory, fsynced and renamed into place, so a
reader never sees a partially written artifact. Leftover temporary files from
a crash are removed when the store is opened.

Locking:
A single RWMutex guards the directory. Listing and reading take the read
lock. Creating, deleting, restoring and the whole backup cycle take the write
lock through Exclusive, so they never interleave.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/backupd/internal/logging"
	"github.com/tomtom215/backupd/internal/metrics"
)

const (
	artifactPrefix = "backup-"
	tempPrefix     = ".tmp-"
	nameTimeFormat = "20060102T150405.000000000Z"
)

// Store manages backup artifacts on disk.
type Store struct {
	dir    string
	ext    string
	now    func() time.Time
	remove func(path string) error
	logger zerolog.Logger

	mu sync.RWMutex
}

// NewStore opens (creating if needed) the backup directory. ext is the file
// extension of artifacts, including the leading dot. now supplies creation
// timestamps; nil means time.Now.
func NewStore(dir, ext string, now func() time.Time) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("backup directory is required")
	}
	if ext == "" {
		ext = DefaultExtension
	}
	if now == nil {
		now = time.Now
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	s := &Store{
		dir:    dir,
		ext:    ext,
		now:    now,
		remove: os.Remove,
		logger: logging.WithComponent("artifact-store"),
	}
	s.removeStaleTemps()
	return s, nil
}

// Dir returns the backup directory.
func (s *Store) Dir() string {
	return s.dir
}

// Tx gives access to the store while the write lock is held. It is only valid
// inside the function passed to Exclusive.
type Tx struct {
	s *Store
}

// Exclusive runs fn with the store's write lock held.
func (s *Store) Exclusive(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Tx{s: s})
}

// Create writes data as a new artifact.
func (tx *Tx) Create(data []byte) (ArtifactDescriptor, error) {
	return tx.s.createLocked(data)
}

// Delete removes the named artifact.
func (tx *Tx) Delete(name string) error {
	return tx.s.deleteLocked(name)
}

// Read returns the content of the named artifact.
func (tx *Tx) Read(name string) ([]byte, ArtifactDescriptor, error) {
	return tx.s.readLocked(name)
}

// Artifacts returns every artifact in no particular order.
func (tx *Tx) Artifacts() ([]ArtifactDescriptor, error) {
	return tx.s.scanLocked()
}

// Create writes data as a new artifact under the write lock.
func (s *Store) Create(data []byte) (ArtifactDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(data)
}

// Delete removes the named artifact. Deleting a missing artifact returns an
// error wrapping ErrNotFound.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(name)
}

// Read returns the content and descriptor of the named artifact.
func (s *Store) Read(name string) ([]byte, ArtifactDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readLocked(name)
}

// All returns every artifact, newest first.
func (s *Store) All() ([]ArtifactDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, err := s.scanLocked()
	if err != nil {
		return nil, err
	}
	slices.SortFunc(items, compareNewestFirst)
	return items, nil
}

// List returns one page of artifacts, newest first, optionally restricted to
// those modified within [now - opts.Days days, now].
func (s *Store) List(opts ListOptions) (ListResult, error) {
	if opts.Page < 0 {
		return ListResult{}, newValidationError("page", "must be at least 1, got %d", opts.Page)
	}
	if opts.PerPage < 0 {
		return ListResult{}, newValidationError("perPage", "must be at least 1, got %d", opts.PerPage)
	}
	if opts.Days < 0 {
		return ListResult{}, newValidationError("days", "must not be negative, got %d", opts.Days)
	}
	if opts.Page == 0 {
		opts.Page = 1
	}
	if opts.PerPage == 0 {
		opts.PerPage = DefaultPerPage
	}

	s.mu.RLock()
	items, err := s.scanLocked()
	s.mu.RUnlock()
	if err != nil {
		return ListResult{}, err
	}

	if opts.Days > 0 {
		now := s.now()
		cutoff := now.Add(-time.Duration(opts.Days) * 24 * time.Hour)
		items = slices.DeleteFunc(items, func(a ArtifactDescriptor) bool {
			return a.ModifiedAt.Before(cutoff) || a.ModifiedAt.After(now)
		})
	}
	slices.SortFunc(items, compareNewestFirst)

	result := ListResult{
		Page:    opts.Page,
		PerPage: opts.PerPage,
		Total:   len(items),
		Items:   []ArtifactDescriptor{},
	}
	start := (opts.Page - 1) * opts.PerPage
	if start >= len(items) {
		return result, nil
	}
	end := min(start+opts.PerPage, len(items))
	result.Items = append(result.Items, items[start:end]...)
	return result, nil
}

func (s *Store) createLocked(data []byte) (ArtifactDescriptor, error) {
	created := s.now()
	name := fmt.Sprintf("%s%s-%s%s",
		artifactPrefix,
		created.UTC().Format(nameTimeFormat),
		uuid.New().String()[:8],
		s.ext,
	)
	finalPath := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, tempPrefix+"*")
	if err != nil {
		return ArtifactDescriptor{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()        //nolint:errcheck // cleanup on error path
			_ = os.Remove(tmpPath) //nolint:errcheck // cleanup on error path
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return ArtifactDescriptor{}, fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return ArtifactDescriptor{}, fmt.Errorf("failed to sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return ArtifactDescriptor{}, fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return ArtifactDescriptor{}, fmt.Errorf("failed to move artifact into place: %w", err)
	}
	success = true
	syncDir(s.dir)

	if err := os.Chtimes(finalPath, created, created); err != nil {
		s.logger.Warn().Err(err).Str("artifact", name).Msg("Failed to set artifact modification time")
	}

	desc, err := s.statLocked(name)
	if err != nil {
		return ArtifactDescriptor{}, err
	}
	s.publishCountLocked()
	return desc, nil
}

func (s *Store) deleteLocked(name string) error {
	if err := s.checkName(name); err != nil {
		return err
	}
	if err := s.remove(filepath.Join(s.dir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("failed to delete artifact %s: %w", name, err)
	}
	s.publishCountLocked()
	return nil
}

func (s *Store) readLocked(name string) ([]byte, ArtifactDescriptor, error) {
	desc, err := s.statLocked(name)
	if err != nil {
		return nil, ArtifactDescriptor{}, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ArtifactDescriptor{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, ArtifactDescriptor{}, fmt.Errorf("failed to read artifact %s: %w", name, err)
	}
	return data, desc, nil
}

func (s *Store) statLocked(name string) (ArtifactDescriptor, error) {
	if err := s.checkName(name); err != nil {
		return ArtifactDescriptor{}, err
	}
	info, err := os.Stat(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ArtifactDescriptor{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return ArtifactDescriptor{}, fmt.Errorf("failed to stat artifact %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return ArtifactDescriptor{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return ArtifactDescriptor{Name: name, SizeBytes: info.Size(), ModifiedAt: info.ModTime()}, nil
}

func (s *Store) scanLocked() ([]ArtifactDescriptor, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	items := make([]ArtifactDescriptor, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !s.isArtifactName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		items = append(items, ArtifactDescriptor{
			Name:       entry.Name(),
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	return items, nil
}

func (s *Store) isArtifactName(name string) bool {
	return strings.HasPrefix(name, artifactPrefix) && strings.HasSuffix(name, s.ext) &&
		len(name) > len(artifactPrefix)+len(s.ext)
}

// checkName rejects anything that is not a plain artifact file name.
func (s *Store) checkName(name string) error {
	if name == "" {
		return newValidationError("name", "is required")
	}
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return newValidationError("name", "must be a plain file name")
	}
	if !s.isArtifactName(name) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

func (s *Store) removeStaleTemps() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to scan backup directory for stale temp files")
		return
	}
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), tempPrefix) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to remove stale temp file")
			continue
		}
		s.logger.Info().Str("file", entry.Name()).Msg("Removed stale temp file")
	}
}

func (s *Store) publishCountLocked() {
	items, err := s.scanLocked()
	if err != nil {
		return
	}
	metrics.BackupArtifactsStored.Set(float64(len(items)))
}

// syncDir flushes directory metadata so a completed rename survives a crash.
// Not every platform supports fsync on a directory.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()  //nolint:errcheck // unsupported on some platforms
	_ = d.Close() //nolint:errcheck // read-only handle
}
