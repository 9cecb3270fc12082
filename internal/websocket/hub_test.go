// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package websocket

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/backupd/internal/backup"
	"github.com/tomtom215/backupd/internal/logging"
	"github.com/tomtom215/backupd/internal/metrics"
)

//nolint:gochecknoinits // keep hub logs out of test output
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// startHub runs a hub until the test ends.
func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub, cancel
}

// dial connects a real websocket client through an httptest server.
func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(hub, conn)
		if !hub.Register(c) {
			_ = conn.Close()
			return
		}
		c.Start()
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type received struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readMessage(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var msg received
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("invalid message %s: %v", data, err)
	}
	return msg
}

func TestHub_BroadcastCycleCompleted(t *testing.T) {
	hub, _ := startHub(t)
	conn := dial(t, hub)
	waitFor(t, "client registration", func() bool { return hub.ClientCount() == 1 })

	hub.BroadcastCycle(backup.CycleReport{
		Trigger:   backup.TriggerScheduled,
		StartedAt: time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Artifact:  backup.ArtifactDescriptor{Name: "backup-a.tar.gz", SizeBytes: 42},
		Evicted:   []string{"backup-old.tar.gz"},
	})

	msg := readMessage(t, conn)
	if msg.Type != MessageTypeBackupCompleted {
		t.Fatalf("Type = %q, want %q", msg.Type, MessageTypeBackupCompleted)
	}
	var event BackupEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		t.Fatal(err)
	}
	if event.Trigger != "scheduled" || event.DurationMS != 1500 {
		t.Errorf("event = %+v", event)
	}
	if event.Artifact == nil || event.Artifact.Name != "backup-a.tar.gz" {
		t.Errorf("Artifact = %+v", event.Artifact)
	}
	if len(event.Evicted) != 1 || event.Evicted[0] != "backup-old.tar.gz" {
		t.Errorf("Evicted = %v", event.Evicted)
	}
}

func TestCycleMessage_Failures(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantError string
	}{
		{
			name:      "execution error exposes cause",
			err:       &backup.ExecutionError{Op: "backup", Trigger: backup.TriggerManual, Err: errors.New("disk full")},
			wantError: "disk full",
		},
		{
			name:      "internal error is hidden",
			err:       errors.New("state store: permission denied"),
			wantError: "operation failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := cycleMessage(backup.CycleReport{Trigger: backup.TriggerManual, Err: tt.err})
			if msg.Type != MessageTypeBackupFailed {
				t.Fatalf("Type = %q, want %q", msg.Type, MessageTypeBackupFailed)
			}
			event, ok := msg.Data.(BackupEvent)
			if !ok {
				t.Fatalf("Data = %T, want BackupEvent", msg.Data)
			}
			if event.Error != tt.wantError {
				t.Errorf("Error = %q, want %q", event.Error, tt.wantError)
			}
			if event.Artifact != nil {
				t.Error("failed cycle should not carry an artifact")
			}
		})
	}
}

func TestHub_BroadcastRestore(t *testing.T) {
	hub, _ := startHub(t)
	conn := dial(t, hub)
	waitFor(t, "client registration", func() bool { return hub.ClientCount() == 1 })

	hub.BroadcastRestore(backup.RestoreFromUpload, "")

	msg := readMessage(t, conn)
	if msg.Type != MessageTypeRestoreCompleted {
		t.Fatalf("Type = %q", msg.Type)
	}
	var event RestoreEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		t.Fatal(err)
	}
	if event.Source != "upload" || event.Artifact != "" {
		t.Errorf("event = %+v", event)
	}
}

func TestClient_PingPong(t *testing.T) {
	hub, _ := startHub(t)
	conn := dial(t, hub)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); msg.Type != MessageTypePong {
		t.Errorf("Type = %q, want pong", msg.Type)
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	hub, _ := startHub(t)
	before := testutil.ToFloat64(metrics.EventsDropped.WithLabelValues("client_slow"))

	// No pumps: nothing drains the buffer.
	slow := &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, 1)}
	if !hub.Register(slow) {
		t.Fatal("Register() = false on a running hub")
	}

	hub.Broadcast(Message{Type: "first"})
	hub.Broadcast(Message{Type: "second"})

	waitFor(t, "slow client removal", func() bool { return hub.ClientCount() == 0 })
	if got := testutil.ToFloat64(metrics.EventsDropped.WithLabelValues("client_slow")) - before; got != 1 {
		t.Errorf("client_slow drops = %v, want 1", got)
	}
	if msg := <-slow.send; msg.Type != "first" {
		t.Errorf("buffered message = %q, want first", msg.Type)
	}
	if _, ok := <-slow.send; ok {
		t.Error("send channel should be closed after removal")
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub, cancel := startHub(t)
	conn := dial(t, hub)
	waitFor(t, "client registration", func() bool { return hub.ClientCount() == 1 })

	cancel()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("ReadMessage() error = %v, want going-away close", err)
	}

	waitFor(t, "hub stop", func() bool {
		select {
		case <-hub.stopped:
			return true
		default:
			return false
		}
	})
	if hub.Register(&Client{hub: hub, send: make(chan Message, 1)}) {
		t.Error("Register() = true after the hub stopped")
	}
}

func TestBroadcast_SetsTimestamp(t *testing.T) {
	hub := NewHub()
	hub.Broadcast(Message{Type: "x"})

	msg := <-hub.broadcast
	if msg.Timestamp.IsZero() {
		t.Error("Broadcast should stamp messages")
	}
}
