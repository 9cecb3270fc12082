// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package websocket

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/backupd/internal/backup"
	"github.com/tomtom215/backupd/internal/logging"
	"github.com/tomtom215/backupd/internal/metrics"
)

// Message types
const (
	MessageTypeBackupCompleted  = "backup_completed"
	MessageTypeBackupFailed     = "backup_failed"
	MessageTypeRestoreCompleted = "restore_completed"
	MessageTypePing             = "ping"
	MessageTypePong             = "pong"
)

const hubBufferSize = 256

// Message is one event on the stream.
type Message struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// BackupEvent describes a finished backup cycle.
type BackupEvent struct {
	Trigger       string                     `json:"trigger"`
	StartedAt     time.Time                  `json:"startedAt"`
	DurationMS    int64                      `json:"durationMs"`
	Artifact      *backup.ArtifactDescriptor `json:"artifact,omitempty"`
	Evicted       []string                   `json:"evicted,omitempty"`
	EvictionError string                     `json:"evictionError,omitempty"`
	Error         string                     `json:"error,omitempty"`
}

// RestoreEvent describes a completed restore.
type RestoreEvent struct {
	Source   string `json:"source"`
	Artifact string `json:"artifact,omitempty"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	stopped    chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

// NewHub creates a Hub. Nothing is delivered until RunWithContext is running.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, hubBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopped:    make(chan struct{}),
	}
}

// Register hands a client to the hub. It returns false once the hub has
// stopped, in which case the caller owns the connection.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.stopped:
		return false
	}
}

// RunWithContext processes registrations and broadcasts until ctx is done,
// then closes every client.
//
// Lifecycle events are drained before broadcasts so a client registered
// before an event is published always receives it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	defer h.stopOnce.Do(func() { close(h.stopped) })

	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case c := <-h.register:
			h.addClient(c)
			continue
		case c := <-h.unregister:
			h.removeClient(c)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		case msg := <-h.broadcast:
			h.broadcastToClients(msg)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.EventClientsConnected.Set(float64(n))
	logging.Debug().Uint64("client_id", c.id).Int("total_clients", n).Msg("event stream client connected")
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.EventClientsConnected.Set(float64(n))
	logging.Debug().Uint64("client_id", c.id).Int("total_clients", n).Msg("event stream client disconnected")
}

// sortedClients returns clients in connection order. Callers hold h.mu.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

func (h *Hub) broadcastToClients(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.sortedClients() {
		select {
		case c.send <- msg:
		default:
			close(c.send)
			delete(h.clients, c)
			metrics.EventsDropped.WithLabelValues("client_slow").Inc()
			logging.Warn().Uint64("client_id", c.id).Str("type", msg.Type).
				Msg("event stream client too slow, disconnecting")
		}
	}
	metrics.EventClientsConnected.Set(float64(len(h.clients)))
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	n := len(h.clients)
	for _, c := range h.sortedClients() {
		close(c.send)
		delete(h.clients, c)
	}
	h.mu.Unlock()
	metrics.EventClientsConnected.Set(0)

	reason := "context_canceled"
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		reason = "context_deadline"
	}
	logging.Info().
		Str("component", "event-hub").
		Str("reason", reason).
		Int("clients_closed", n).
		Msg("event hub stopped")
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues msg for every client without blocking. A zero timestamp
// is set to now.
func (h *Hub) Broadcast(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	select {
	case h.broadcast <- msg:
	default:
		metrics.EventsDropped.WithLabelValues("hub_full").Inc()
		logging.Warn().Str("type", msg.Type).Msg("event hub buffer full, dropping event")
	}
}

// BroadcastCycle publishes the outcome of a backup cycle. Its signature
// matches backup.Manager.SetOnCycle.
func (h *Hub) BroadcastCycle(r backup.CycleReport) {
	h.Broadcast(cycleMessage(r))
}

// BroadcastRestore publishes a completed restore. Its signature matches
// backup.Manager.SetOnRestore.
func (h *Hub) BroadcastRestore(source backup.RestoreSource, name string) {
	h.Broadcast(Message{
		Type: MessageTypeRestoreCompleted,
		Data: RestoreEvent{Source: string(source), Artifact: name},
	})
}

func cycleMessage(r backup.CycleReport) Message {
	event := BackupEvent{
		Trigger:    string(r.Trigger),
		StartedAt:  r.StartedAt,
		DurationMS: r.Duration.Milliseconds(),
	}

	if r.Err != nil {
		// Only execution failures carry a message meant for operators.
		event.Error = "operation failed"
		var xerr *backup.ExecutionError
		if errors.As(r.Err, &xerr) {
			event.Error = xerr.Err.Error()
		}
		return Message{Type: MessageTypeBackupFailed, Data: event}
	}

	artifact := r.Artifact
	event.Artifact = &artifact
	event.Evicted = r.Evicted
	if r.EvictionErr != nil {
		event.EvictionError = r.EvictionErr.Error()
	}
	return Message{Type: MessageTypeBackupCompleted, Data: event}
}
