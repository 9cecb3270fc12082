// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

/*
Package supervisor runs Backupd's long-lived services under a suture v4 tree.

Tree layout:

	backupd (root)
	├── scheduler-layer
	│   └── backup-scheduler   timer-driven backup cycles
	└── api-layer
	    ├── event-hub          websocket event fan-out
	    ├── login-limiter      evicts idle failed-login buckets
	    └── http-server        REST API, health and metrics

A crash in one layer restarts only that layer's services. Supervisor events
(restarts, backoff, timeouts) are logged through sutureslog into the zerolog
pipeline via logging.NewSlogHandler.

Example:

	tree, err := supervisor.NewSupervisorTree(slog.New(logging.NewSlogHandler()), supervisor.DefaultTreeConfig())
	tree.AddSchedulerService(services.NewBackupSchedulerService(manager))
	tree.AddAPIService(services.NewHTTPServerService(server, 30*time.Second))
	err = tree.Serve(ctx)
*/
package supervisor
