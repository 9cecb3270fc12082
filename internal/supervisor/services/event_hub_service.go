// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package services

import (
	"context"
)

// ContextHub matches *websocket.Hub's run loop.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// EventHubService wraps the event stream hub as a supervised service.
//
// The hub already blocks until its context is canceled, so the wrapper only
// delegates and names the service.
//
// Example usage:
//
//	hub := websocket.NewHub()
//	tree.AddAPIService(services.NewEventHubService(hub))
type EventHubService struct {
	hub  ContextHub
	name string
}

// NewEventHubService creates a new event hub service wrapper.
func NewEventHubService(hub ContextHub) *EventHubService {
	return &EventHubService{
		hub:  hub,
		name: "event-hub",
	}
}

// Serve implements suture.Service.
func (s *EventHubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for supervisor logs.
func (s *EventHubService) String() string {
	return s.name
}
