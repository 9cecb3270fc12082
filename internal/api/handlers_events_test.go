// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/backupd/internal/backup"
	ws "github.com/tomtom215/backupd/internal/websocket"
)

func newEventServer(t *testing.T, origins []string) (*httptest.Server, *ws.Hub) {
	t.Helper()
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()

	mwCfg := DefaultChiMiddlewareConfig()
	mwCfg.RateLimitDisabled = true
	handler := NewHandler(newMockManager(), HandlerConfig{AllowedOrigins: origins}).WithEventHub(hub)
	srv := httptest.NewServer(NewRouter(handler, NewChiMiddleware(mwCfg)).SetupChi())

	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return srv, hub
}

func eventURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/events"
}

func TestHandleEvents_StreamsCycle(t *testing.T) {
	srv, hub := newEventServer(t, nil)

	conn, resp, err := websocket.DefaultDialer.Dial(eventURL(srv), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	_ = resp.Body.Close()
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	hub.BroadcastCycle(backup.CycleReport{
		Trigger:  backup.TriggerManual,
		Artifact: backup.ArtifactDescriptor{Name: "backup-x.tar.gz"},
	})

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var msg struct {
		Type string `json:"type"`
		Data struct {
			Artifact struct {
				Name string `json:"name"`
			} `json:"artifact"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != ws.MessageTypeBackupCompleted || msg.Data.Artifact.Name != "backup-x.tar.gz" {
		t.Errorf("message = %s", data)
	}
}

func TestHandleEvents_OriginCheck(t *testing.T) {
	srv, _ := newEventServer(t, []string{"https://console.example"})

	tests := []struct {
		origin string
		wantOK bool
	}{
		{"", true},
		{"https://console.example", true},
		{srv.URL, true},
		{"https://evil.example", false},
	}
	for _, tt := range tests {
		header := http.Header{}
		if tt.origin != "" {
			header.Set("Origin", tt.origin)
		}
		conn, resp, err := websocket.DefaultDialer.Dial(eventURL(srv), header)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if tt.wantOK {
			if err != nil {
				t.Errorf("origin %q: Dial() error = %v", tt.origin, err)
				continue
			}
			_ = conn.Close()
			continue
		}
		if err == nil {
			_ = conn.Close()
			t.Errorf("origin %q: expected handshake rejection", tt.origin)
		} else if resp == nil || resp.StatusCode != http.StatusForbidden {
			t.Errorf("origin %q: response = %v, want 403", tt.origin, resp)
		}
	}
}

func TestHandleEvents_WithoutHub(t *testing.T) {
	h := newTestServer(t, newMockManager(), HandlerConfig{})
	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/events", nil)
	expectError(t, rec, env, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE")
}
