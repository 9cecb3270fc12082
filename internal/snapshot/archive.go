// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

/*
archive.go - Snapshot Archive Format

Encoding and decoding of the tar.gz archive. Decoding never touches the
filesystem: entries are read into memory with per-entry and total size
limits, then checked against the manifest.
*/
//nolint:staticcheck // File documentation, not package doc
package snapshot

import (
	"archive/tar"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

const (
	// FormatVersion is written to every manifest.
	FormatVersion = 1

	manifestName   = "manifest.json"
	databasePrefix = "database/"
	walSuffix      = ".wal"

	// maxEntryBytes limits a single decompressed entry.
	maxEntryBytes = 8 << 30
	maxEntries    = 8
)

var (
	errNoManifest = errors.New("archive has no manifest.json")
	errNoDatabase = errors.New("archive has no database file")
)

// Manifest describes the contents of a snapshot archive.
type Manifest struct {
	FormatVersion int         `json:"formatVersion"`
	CreatedAt     time.Time   `json:"createdAt"`
	AppVersion    string      `json:"appVersion,omitempty"`
	Database      string      `json:"database"`
	Files         []FileEntry `json:"files"`
}

// FileEntry is one file recorded in the manifest.
type FileEntry struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"sizeBytes"`
	SHA256    string `json:"sha256"`
}

// archiveFile is a file to be written into an archive.
type archiveFile struct {
	name string
	data []byte
}

// contents is a decoded and verified archive.
type contents struct {
	manifest Manifest
	database []byte
	wal      []byte
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// encodeArchive writes manifest.json followed by files into a gzip-compressed tar.
func encodeArchive(m Manifest, files []archiveFile, level int) ([]byte, error) {
	manifestJSON, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}

	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	tw := tar.NewWriter(gz)

	all := append([]archiveFile{{name: manifestName, data: manifestJSON}}, files...)
	for _, f := range all {
		header := &tar.Header{
			Name:     f.name,
			Size:     int64(len(f.data)),
			Mode:     0o640,
			ModTime:  m.CreatedAt,
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(header); err != nil {
			return nil, fmt.Errorf("failed to write header for %s: %w", f.name, err)
		}
		if _, err := tw.Write(f.data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", f.name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish tar stream: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeArchive reads and verifies an archive.
func decodeArchive(data []byte) (*contents, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("not a gzip archive: %w", err)
	}
	defer gz.Close() //nolint:errcheck // Reader close only releases resources

	entries, err := readEntries(tar.NewReader(gz))
	if err != nil {
		return nil, err
	}

	raw, ok := entries[manifestName]
	if !ok {
		return nil, errNoManifest
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if m.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("unsupported snapshot format version %d", m.FormatVersion)
	}
	if !validDatabaseName(m.Database) {
		return nil, fmt.Errorf("invalid database name in manifest: %q", m.Database)
	}

	listed := make(map[string]bool, len(m.Files))
	for _, f := range m.Files {
		content, ok := entries[f.Name]
		if !ok {
			return nil, fmt.Errorf("archive is missing %s", f.Name)
		}
		if int64(len(content)) != f.SizeBytes {
			return nil, fmt.Errorf("size mismatch for %s: manifest %d, archive %d", f.Name, f.SizeBytes, len(content))
		}
		if checksum(content) != f.SHA256 {
			return nil, fmt.Errorf("checksum mismatch for %s", f.Name)
		}
		listed[f.Name] = true
	}
	for name := range entries {
		if name != manifestName && !listed[name] {
			return nil, fmt.Errorf("archive contains unlisted file %s", name)
		}
	}

	dbEntry := databasePrefix + m.Database
	c := &contents{manifest: m, database: entries[dbEntry], wal: entries[dbEntry+walSuffix]}
	if !listed[dbEntry] || len(c.database) == 0 {
		return nil, errNoDatabase
	}
	for name := range listed {
		if name != dbEntry && name != dbEntry+walSuffix {
			return nil, fmt.Errorf("unexpected file %s", name)
		}
	}
	return c, nil
}

func readEntries(tr *tar.Reader) (map[string][]byte, error) {
	entries := make(map[string][]byte)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar entry: %w", err)
		}
		if header.Typeflag == tar.TypeDir {
			continue
		}
		if header.Typeflag != tar.TypeReg {
			return nil, fmt.Errorf("unsupported entry type for %s", header.Name)
		}
		if !safeEntryName(header.Name) {
			return nil, fmt.Errorf("unsafe entry name %q", header.Name)
		}
		if _, dup := entries[header.Name]; dup {
			return nil, fmt.Errorf("duplicate entry %s", header.Name)
		}
		if len(entries) >= maxEntries {
			return nil, fmt.Errorf("archive has more than %d entries", maxEntries)
		}
		if header.Size < 0 || header.Size > maxEntryBytes {
			return nil, fmt.Errorf("entry %s too large: %d bytes", header.Name, header.Size)
		}

		// LimitReader guards against headers that understate the payload.
		content, err := io.ReadAll(io.LimitReader(tr, header.Size+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", header.Name, err)
		}
		if int64(len(content)) != header.Size {
			return nil, fmt.Errorf("entry %s has wrong length", header.Name)
		}
		entries[header.Name] = content
	}
}

// safeEntryName accepts manifest.json and single-level names under database/.
func safeEntryName(name string) bool {
	if name == manifestName {
		return true
	}
	if !strings.HasPrefix(name, databasePrefix) || path.Clean(name) != name {
		return false
	}
	return validDatabaseName(strings.TrimPrefix(name, databasePrefix))
}

func validDatabaseName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}
