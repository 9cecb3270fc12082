// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

// Package websocket streams backup lifecycle events to connected clients.
//
// The Hub fans out one Message per event to every registered Client. Events
// are produced by the backup manager callbacks:
//
//	backup_completed   a cycle wrote an artifact (and maybe evicted old ones)
//	backup_failed      a cycle produced no artifact
//	restore_completed  the live database was replaced from an artifact or upload
//
// Delivery is best effort. A client whose send buffer is full is dropped
// rather than slowing the hub down, and events published while the hub
// buffer is full are counted in event_stream_dropped_total.
//
// Clients may send {"type":"ping"} and receive {"type":"pong"}; any other
// inbound message is ignored.
//
// The hub runs under the supervisor tree through RunWithContext:
//
//	hub := websocket.NewHub()
//	tree.AddAPIService(services.NewEventHubService(hub))
//	manager.SetOnCycle(hub.BroadcastCycle)
package websocket
