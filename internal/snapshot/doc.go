// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

/*
Package snapshot turns the DuckDB file into backup artifacts and back.

Archive layout (gzip-compressed tar):

	manifest.json                 format version, creation time, checksums
	database/<name>.duckdb        checkpointed database file
	database/<name>.duckdb.wal    WAL file, only when non-empty

The Archiver implements both collaborator interfaces of the backup package:
ProduceSnapshot (backup.Dumper) and ValidateSnapshot/ApplySnapshot
(backup.Restorer). An archive is only applied after every file in the
manifest has been found with a matching size and SHA-256.

Restore sequence:
 1. Validate the archive in memory
 2. Write the database (and WAL) next to the live file under a temp name
 3. Optionally open the temp file read-only and probe it
 4. Suspend the live connection
 5. Rename the temp files over the live ones, dropping a stale WAL
 6. Resume the connection
*/
package snapshot
