// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

// Package services adapts Backupd components to suture.Service.
//
// Each wrapper translates a component's own lifecycle (Start/Stop or
// ListenAndServe/Shutdown) into suture's context-aware Serve, and implements
// fmt.Stringer so supervisor events name the service.
package services
