// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package backup

import (
	"slices"
	"strings"
)

// SelectForEviction returns the artifacts that must be deleted so that at most
// maxFiles remain: the oldest len(artifacts)-maxFiles by modification time,
// ties broken by name ascending. The result is ordered oldest first. The input
// slice is not modified.
func SelectForEviction(artifacts []ArtifactDescriptor, maxFiles int) []ArtifactDescriptor {
	if maxFiles < 1 {
		maxFiles = 1
	}
	excess := len(artifacts) - maxFiles
	if excess <= 0 {
		return nil
	}

	sorted := slices.Clone(artifacts)
	slices.SortStableFunc(sorted, compareOldestFirst)
	return sorted[:excess]
}

func compareOldestFirst(a, b ArtifactDescriptor) int {
	if c := a.ModifiedAt.Compare(b.ModifiedAt); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}

func compareNewestFirst(a, b ArtifactDescriptor) int {
	return compareOldestFirst(b, a)
}
