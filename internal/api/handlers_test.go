// Backupd - Automated Backup Scheduling and Retention Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/backupd

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/backupd/internal/backup"
)

// mockManager is an in-memory BackupManager.
type mockManager struct {
	mu sync.Mutex

	state     backup.ScheduleState
	next      time.Time
	hasNext   bool
	artifacts map[string][]byte

	createErr  error
	restoreErr error
	uploadErr  error
	statsErr   error

	lastList backup.ListOptions
	restored []string
	uploads  [][]byte
}

func newMockManager() *mockManager {
	return &mockManager{
		state:     backup.DefaultScheduleState(7),
		artifacts: map[string][]byte{},
	}
}

func (m *mockManager) GetScheduleConfig() backup.ScheduleState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *mockManager) NextScheduledBackup() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.next, m.hasNext
}

func (m *mockManager) SetScheduleConfig(_ context.Context, cfg backup.ScheduleConfig) (backup.ScheduleState, error) {
	rule, err := cfg.Validate()
	if err != nil {
		return backup.ScheduleState{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = backup.ScheduleState{
		Enabled:   cfg.Enabled,
		Rule:      rule,
		MaxFiles:  cfg.MaxFiles,
		UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	return m.state, nil
}

func (m *mockManager) CreateBackup(_ context.Context) (backup.CycleReport, error) {
	if m.createErr != nil {
		return backup.CycleReport{}, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	name := fmt.Sprintf("backup-%d.tar.gz", len(m.artifacts)+1)
	m.artifacts[name] = []byte("snapshot")
	return backup.CycleReport{
		Trigger:   backup.TriggerManual,
		StartedAt: time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Artifact:  backup.ArtifactDescriptor{Name: name, SizeBytes: 8},
	}, nil
}

func (m *mockManager) ListBackups(opts backup.ListOptions) (backup.ListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastList = opts
	return backup.ListResult{Page: opts.Page, PerPage: opts.PerPage, Total: len(m.artifacts)}, nil
}

func (m *mockManager) DownloadBackup(name string) ([]byte, backup.ArtifactDescriptor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.artifacts[name]
	if !ok {
		return nil, backup.ArtifactDescriptor{}, fmt.Errorf("%w: %s", backup.ErrNotFound, name)
	}
	return data, backup.ArtifactDescriptor{
		Name:       name,
		SizeBytes:  int64(len(data)),
		ModifiedAt: time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC),
	}, nil
}

func (m *mockManager) DeleteBackup(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.artifacts[name]; !ok {
		return fmt.Errorf("%w: %s", backup.ErrNotFound, name)
	}
	delete(m.artifacts, name)
	return nil
}

func (m *mockManager) RestoreBackup(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.artifacts[name]; !ok {
		return fmt.Errorf("%w: %s", backup.ErrNotFound, name)
	}
	if m.restoreErr != nil {
		return m.restoreErr
	}
	m.restored = append(m.restored, name)
	return nil
}

func (m *mockManager) RestoreUpload(_ context.Context, data []byte) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, data)
	return nil
}

func (m *mockManager) RetentionPreview() ([]backup.ArtifactDescriptor, error) {
	return []backup.ArtifactDescriptor{{Name: "backup-old.tar.gz", SizeBytes: 10}}, nil
}

func (m *mockManager) GetStats() (backup.Stats, error) {
	if m.statsErr != nil {
		return backup.Stats{}, m.statsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return backup.Stats{TotalArtifacts: 8, MaxFiles: m.state.MaxFiles}, nil
}

func (m *mockManager) BreakerStates() map[string]string {
	return map[string]string{"dump": "closed", "restore": "closed"}
}

// envelope mirrors models.APIResponse with raw data for decoding in tests.
type envelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Metadata struct {
		RequestID  string `json:"request_id"`
		DurationMS int64  `json:"duration_ms"`
	} `json:"metadata"`
	Error *struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func newTestServer(t *testing.T, mgr *mockManager, cfg HandlerConfig) http.Handler {
	t.Helper()
	mwCfg := DefaultChiMiddlewareConfig()
	mwCfg.RateLimitDisabled = true
	return NewRouter(NewHandler(mgr, cfg), NewChiMiddleware(mwCfg)).SetupChi()
}

func doRequest(t *testing.T, h http.Handler, method, target string, body io.Reader) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, env envelope, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	if env.Status != "error" || env.Error == nil {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
	if env.Error.Code != code {
		t.Errorf("error code = %q, want %q", env.Error.Code, code)
	}
}

func TestGetScheduleConfig(t *testing.T) {
	mgr := newMockManager()
	h := newTestServer(t, mgr, HandlerConfig{Timezone: "Europe/Berlin"})

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/backup/schedule", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var data map[string]interface{}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data["enabled"] != false {
		t.Errorf("enabled = %v, want false", data["enabled"])
	}
	if data["ruleText"] != "daily at 00:00" {
		t.Errorf("ruleText = %v", data["ruleText"])
	}
	if data["timezone"] != "Europe/Berlin" {
		t.Errorf("timezone = %v", data["timezone"])
	}
	if _, ok := data["nextRunAt"]; ok {
		t.Error("nextRunAt should be absent while disabled")
	}
}

func TestSetScheduleConfig(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantField string
	}{
		{
			name:     "weekly wednesday",
			body:     `{"enabled":true,"rule":{"kind":"weekly","dayOfWeek":3,"hour":9,"minute":30},"maxFiles":5}`,
			wantCode: http.StatusOK,
		},
		{
			name:      "weekly without day",
			body:      `{"enabled":true,"rule":{"kind":"weekly","hour":9,"minute":30},"maxFiles":5}`,
			wantCode:  http.StatusBadRequest,
			wantField: "dayOfWeek",
		},
		{
			name:      "hour out of range",
			body:      `{"enabled":true,"rule":{"kind":"daily","hour":24,"minute":0},"maxFiles":5}`,
			wantCode:  http.StatusBadRequest,
			wantField: "hour",
		},
		{
			name:      "maxFiles missing",
			body:      `{"enabled":true,"rule":{"kind":"daily","hour":2,"minute":0}}`,
			wantCode:  http.StatusBadRequest,
			wantField: "maxFiles",
		},
		{
			name:      "maxFiles zero",
			body:      `{"enabled":true,"rule":{"kind":"daily","hour":2,"minute":0},"maxFiles":0}`,
			wantCode:  http.StatusBadRequest,
			wantField: "maxFiles",
		},
		{
			name:      "malformed json",
			body:      `{"enabled":`,
			wantCode:  http.StatusBadRequest,
			wantField: "body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := newMockManager()
			h := newTestServer(t, mgr, HandlerConfig{})

			rec, env := doRequest(t, h, http.MethodPut, "/api/v1/backup/schedule", strings.NewReader(tt.body))
			if tt.wantCode == http.StatusOK {
				if rec.Code != http.StatusOK {
					t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
				}
				st := mgr.GetScheduleConfig()
				if !st.Enabled || st.MaxFiles != 5 || st.Rule.String() != "weekly on Wednesday at 09:30" {
					t.Errorf("state = %+v (%s)", st, st.Rule)
				}
				return
			}

			expectError(t, rec, env, tt.wantCode, "VALIDATION_ERROR")
			if env.Error.Details["field"] != tt.wantField {
				t.Errorf("details.field = %v, want %s", env.Error.Details["field"], tt.wantField)
			}
			if mgr.GetScheduleConfig().Enabled {
				t.Error("rejected update must not change the schedule")
			}
		})
	}
}

func TestCreateBackup(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mgr := newMockManager()
		h := newTestServer(t, mgr, HandlerConfig{})

		rec, env := doRequest(t, h, http.MethodPost, "/api/v1/backup", nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var data struct {
			Artifact backup.ArtifactDescriptor `json:"artifact"`
			Evicted  []string                  `json:"evicted"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatal(err)
		}
		if data.Artifact.Name != "backup-1.tar.gz" {
			t.Errorf("artifact = %+v", data.Artifact)
		}
		if data.Evicted == nil {
			t.Error("evicted should be an empty list, not null")
		}
	})

	t.Run("collaborator failure", func(t *testing.T) {
		mgr := newMockManager()
		mgr.createErr = &backup.ExecutionError{Op: "backup", Trigger: backup.TriggerManual, Err: errors.New("disk full")}
		h := newTestServer(t, mgr, HandlerConfig{})

		rec, env := doRequest(t, h, http.MethodPost, "/api/v1/backup", nil)
		expectError(t, rec, env, http.StatusBadGateway, "BACKUP_FAILED")
		if env.Error.Message != "disk full" {
			t.Errorf("message = %q, want collaborator message", env.Error.Message)
		}
	})

	t.Run("internal failure hides cause", func(t *testing.T) {
		mgr := newMockManager()
		mgr.createErr = errors.New("open /data/backups/.tmp: permission denied")
		h := newTestServer(t, mgr, HandlerConfig{})

		rec, env := doRequest(t, h, http.MethodPost, "/api/v1/backup", nil)
		expectError(t, rec, env, http.StatusInternalServerError, "INTERNAL_ERROR")
		if env.Error.Message != "operation failed" {
			t.Errorf("message = %q", env.Error.Message)
		}
		if ref, _ := env.Error.Details["reference"].(string); ref == "" {
			t.Error("details.reference should be set")
		}
		if strings.Contains(rec.Body.String(), "permission denied") {
			t.Error("internal cause leaked to the client")
		}
	})
}

func TestStatsAndRetentionPreview(t *testing.T) {
	mgr := newMockManager()
	h := newTestServer(t, mgr, HandlerConfig{})

	rec, _ := doRequest(t, h, http.MethodGet, "/api/v1/backup/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/backup/retention/preview", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("preview status = %d", rec.Code)
	}
	var data struct {
		MaxFiles  int                         `json:"maxFiles"`
		WouldKeep int                         `json:"wouldKeep"`
		Evict     []backup.ArtifactDescriptor `json:"evict"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.MaxFiles != 7 || data.WouldKeep != 7 || len(data.Evict) != 1 {
		t.Errorf("preview = %+v", data)
	}

	mgr.statsErr = errors.New("readdir failed")
	rec, env = doRequest(t, h, http.MethodGet, "/api/v1/backup/stats", nil)
	expectError(t, rec, env, http.StatusInternalServerError, "INTERNAL_ERROR")
}

func TestListBackups(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantField string
		wantOpts  backup.ListOptions
	}{
		{"defaults", "", http.StatusOK, "", backup.ListOptions{Page: 1, PerPage: 20}},
		{"explicit", "?page=3&perPage=10&days=7", http.StatusOK, "", backup.ListOptions{Page: 3, PerPage: 10, Days: 7}},
		{"page not integer", "?page=abc", http.StatusBadRequest, "page", backup.ListOptions{}},
		{"page zero", "?page=0", http.StatusBadRequest, "page", backup.ListOptions{}},
		{"perPage zero", "?perPage=0", http.StatusBadRequest, "perPage", backup.ListOptions{}},
		{"perPage over max", "?perPage=500", http.StatusBadRequest, "perPage", backup.ListOptions{}},
		{"negative days", "?days=-1", http.StatusBadRequest, "days", backup.ListOptions{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := newMockManager()
			h := newTestServer(t, mgr, HandlerConfig{DefaultPerPage: 20, MaxPerPage: 100})

			rec, env := doRequest(t, h, http.MethodGet, "/api/v1/backups"+tt.query, nil)
			if tt.wantCode != http.StatusOK {
				expectError(t, rec, env, tt.wantCode, "VALIDATION_ERROR")
				if env.Error.Details["field"] != tt.wantField {
					t.Errorf("details.field = %v, want %s", env.Error.Details["field"], tt.wantField)
				}
				return
			}

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			if mgr.lastList != tt.wantOpts {
				t.Errorf("ListOptions = %+v, want %+v", mgr.lastList, tt.wantOpts)
			}
			var data map[string]interface{}
			if err := json.Unmarshal(env.Data, &data); err != nil {
				t.Fatal(err)
			}
			for _, key := range []string{"page", "perPage", "total", "items"} {
				if _, ok := data[key]; !ok {
					t.Errorf("response missing %q", key)
				}
			}
			if items, ok := data["items"].([]interface{}); !ok || len(items) != 0 {
				t.Errorf("items = %#v, want empty list", data["items"])
			}
		})
	}
}

func TestDownloadBackup(t *testing.T) {
	mgr := newMockManager()
	mgr.artifacts["backup-1.tar.gz"] = []byte("gzip-bytes")
	h := newTestServer(t, mgr, HandlerConfig{})

	rec, _ := doRequest(t, h, http.MethodGet, "/api/v1/backups/backup-1.tar.gz/download", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "gzip-bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="backup-1.tar.gz"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/gzip" {
		t.Errorf("Content-Type = %q", got)
	}

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/backups/missing.tar.gz/download", nil)
	expectError(t, rec, env, http.StatusNotFound, "NOT_FOUND")
}

func TestDeleteBackup_Twice(t *testing.T) {
	mgr := newMockManager()
	mgr.artifacts["backup-1.tar.gz"] = []byte("x")
	h := newTestServer(t, mgr, HandlerConfig{})

	rec, _ := doRequest(t, h, http.MethodDelete, "/api/v1/backups/backup-1.tar.gz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("first delete status = %d, body %s", rec.Code, rec.Body.String())
	}
	for i := 0; i < 2; i++ {
		rec, env := doRequest(t, h, http.MethodDelete, "/api/v1/backups/backup-1.tar.gz", nil)
		expectError(t, rec, env, http.StatusNotFound, "NOT_FOUND")
	}
}

func TestRestoreBackup(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mgr := newMockManager()
		mgr.artifacts["backup-1.tar.gz"] = []byte("x")
		h := newTestServer(t, mgr, HandlerConfig{})

		rec, _ := doRequest(t, h, http.MethodPost, "/api/v1/backups/backup-1.tar.gz/restore", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if len(mgr.restored) != 1 || mgr.restored[0] != "backup-1.tar.gz" {
			t.Errorf("restored = %v", mgr.restored)
		}
	})

	t.Run("hidden name rejected", func(t *testing.T) {
		mgr := newMockManager()
		h := newTestServer(t, mgr, HandlerConfig{})

		rec, env := doRequest(t, h, http.MethodPost, "/api/v1/backups/.tmp-backup.tar.gz/restore", nil)
		expectError(t, rec, env, http.StatusBadRequest, "VALIDATION_ERROR")
		if env.Error.Details["field"] != "name" {
			t.Errorf("details.field = %v, want name", env.Error.Details["field"])
		}
	})

	t.Run("collaborator failure", func(t *testing.T) {
		mgr := newMockManager()
		mgr.artifacts["backup-1.tar.gz"] = []byte("x")
		mgr.restoreErr = &backup.ExecutionError{Op: "restore", Err: errors.New("database is locked")}
		h := newTestServer(t, mgr, HandlerConfig{})

		rec, env := doRequest(t, h, http.MethodPost, "/api/v1/backups/backup-1.tar.gz/restore", nil)
		expectError(t, rec, env, http.StatusBadGateway, "RESTORE_FAILED")
		if env.Error.Message != "database is locked" {
			t.Errorf("message = %q", env.Error.Message)
		}
	})
}

func multipartBody(t *testing.T, field string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "upload.tar.gz")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func postUpload(t *testing.T, h http.Handler, body io.Reader, contentType string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/backups/restore/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func TestRestoreUpload(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mgr := newMockManager()
		h := newTestServer(t, mgr, HandlerConfig{MaxUploadBytes: 1024})

		body, ct := multipartBody(t, "backup", []byte("snapshot-bytes"))
		rec, _ := postUpload(t, h, body, ct)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if len(mgr.uploads) != 1 || string(mgr.uploads[0]) != "snapshot-bytes" {
			t.Errorf("uploads = %q", mgr.uploads)
		}
	})

	t.Run("missing field", func(t *testing.T) {
		mgr := newMockManager()
		h := newTestServer(t, mgr, HandlerConfig{MaxUploadBytes: 1024})

		body, ct := multipartBody(t, "file", []byte("snapshot-bytes"))
		rec, env := postUpload(t, h, body, ct)
		expectError(t, rec, env, http.StatusBadRequest, "VALIDATION_ERROR")
		if env.Error.Details["field"] != "backup" {
			t.Errorf("details.field = %v, want backup", env.Error.Details["field"])
		}
	})

	t.Run("not multipart", func(t *testing.T) {
		mgr := newMockManager()
		h := newTestServer(t, mgr, HandlerConfig{MaxUploadBytes: 1024})

		rec, env := postUpload(t, h, strings.NewReader("{}"), "application/json")
		expectError(t, rec, env, http.StatusBadRequest, "VALIDATION_ERROR")
	})

	t.Run("too large", func(t *testing.T) {
		mgr := newMockManager()
		h := newTestServer(t, mgr, HandlerConfig{MaxUploadBytes: 16})

		body, ct := multipartBody(t, "backup", bytes.Repeat([]byte("a"), 64))
		rec, env := postUpload(t, h, body, ct)
		expectError(t, rec, env, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE")
		if len(mgr.uploads) != 0 {
			t.Error("oversized upload must not reach the manager")
		}
	})

	t.Run("invalid snapshot", func(t *testing.T) {
		mgr := newMockManager()
		mgr.uploadErr = &backup.ValidationError{Field: "backup", Message: "checksum mismatch"}
		h := newTestServer(t, mgr, HandlerConfig{MaxUploadBytes: 1024})

		body, ct := multipartBody(t, "backup", []byte("garbage"))
		rec, env := postUpload(t, h, body, ct)
		expectError(t, rec, env, http.StatusBadRequest, "VALIDATION_ERROR")
		if env.Error.Message != "backup checksum mismatch" {
			t.Errorf("message = %q", env.Error.Message)
		}
	})
}

func TestHealthLive(t *testing.T) {
	mgr := newMockManager()
	h := newTestServer(t, mgr, HandlerConfig{Version: "1.2.3"})

	rec, env := doRequest(t, h, http.MethodGet, "/health/live", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var data struct {
		Status   string            `json:"status"`
		Version  string            `json:"version"`
		Breakers map[string]string `json:"breakers"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Status != "ok" || data.Version != "1.2.3" || data.Breakers["dump"] != "closed" {
		t.Errorf("health = %+v", data)
	}
}

func TestUnknownRoute(t *testing.T) {
	h := newTestServer(t, newMockManager(), HandlerConfig{})

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/nope", nil)
	expectError(t, rec, env, http.StatusNotFound, "NOT_FOUND")

	rec, env = doRequest(t, h, http.MethodPatch, "/api/v1/backup/schedule", nil)
	expectError(t, rec, env, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
}
