package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/jobwatch/internal/simulator"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockProvider returns a settable snapshot.
type mockProvider struct {
	mu   sync.Mutex
	snap simulator.Snapshot
}

func (m *mockProvider) Snapshot() simulator.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

func (m *mockProvider) Set(s simulator.Snapshot) {
	m.mu.Lock()
	m.snap = s
	m.mu.Unlock()
}

func TestHandleStatus_ReturnsSnapshotJSON(t *testing.T) {
	mp := &mockProvider{snap: simulator.Snapshot{Status: "pending", Progress: 42, ExpectedTime: 120.5}}
	srv := NewServer(mp, 0, testLogger())

	req := httptest.NewRequest(http.MethodGet, StatusPath, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", cc)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	if body["status"] != "pending" {
		t.Errorf("status = %v, want pending", body["status"])
	}
	if body["progress"] != float64(42) {
		t.Errorf("progress = %v, want 42", body["progress"])
	}
	if body["expectedTime"] != 120.5 {
		t.Errorf("expectedTime = %v, want 120.5", body["expectedTime"])
	}
	if len(body) != 3 {
		t.Errorf("body has %d fields, want exactly 3: %v", len(body), body)
	}
}

func TestHandleStatus_MethodNotAllowed(t *testing.T) {
	srv := NewServer(&mockProvider{}, 0, testLogger())

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, StatusPath, nil)
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("status code = %d, want 405", rec.Code)
			}
		})
	}
}

func TestHandler_UnknownPath(t *testing.T) {
	srv := NewServer(&mockProvider{}, 0, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status code = %d, want 404", rec.Code)
	}
}

// TestHandleStatus_FollowsSimulatedJob verifies the endpoint reflects a
// simulated job as its clock advances.
func TestHandleStatus_FollowsSimulatedJob(t *testing.T) {
	var (
		mu  sync.Mutex
		now = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	job, err := simulator.NewJob(10*time.Second, simulator.StatusCompleted, clock(), clock)
	if err != nil {
		t.Fatalf("NewJob() error = %v", err)
	}

	ts := httptest.NewServer(NewServer(job, 0, testLogger()).Handler())
	defer ts.Close()

	get := func() simulator.Snapshot {
		t.Helper()
		resp, err := http.Get(ts.URL + StatusPath)
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		defer func() { _ = resp.Body.Close() }()
		var snap simulator.Snapshot
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		return snap
	}

	if got := get(); got.Status != simulator.StatusPending || got.Progress != 0 {
		t.Errorf("initial = %+v, want pending at 0", got)
	}

	advance(4 * time.Second)
	if got := get(); got.Status != simulator.StatusPending || got.Progress != 40 {
		t.Errorf("after 4s = %+v, want pending at 40", got)
	}

	advance(6 * time.Second)
	want := simulator.Snapshot{Status: simulator.StatusCompleted, Progress: 100, ExpectedTime: 10}
	if got := get(); got != want {
		t.Errorf("after 10s = %+v, want %+v", got, want)
	}
}

func TestStart_AvailablePort_ReturnsNil(t *testing.T) {
	srv := NewServer(&mockProvider{}, 0, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() on available port returned error: %v", err)
	}
	if srv.Addr() == nil {
		t.Error("Addr() = nil after Start")
	}
}

func TestStart_PortInUse_ReturnsError(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	defer func() { _ = ln.Close() }()

	port := ln.Addr().(*net.TCPAddr).Port

	srv := NewServer(&mockProvider{}, port, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = srv.Start(ctx)
	if err == nil {
		t.Fatal("Start() on occupied port should return error")
	}
	if !strings.Contains(err.Error(), "failed to bind") {
		t.Errorf("expected bind error, got: %v", err)
	}
	if srv.Addr() != nil {
		t.Errorf("Addr() = %v after failed Start, want nil", srv.Addr())
	}
}

func TestStart_InvalidPort_ReturnsError(t *testing.T) {
	srv := NewServer(&mockProvider{}, -1, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err == nil {
		t.Fatal("Start() with invalid port should return error")
	}
}

// TestStart_ServesAndShutsDown verifies the real listener serves requests
// and stops accepting them once the context is cancelled.
func TestStart_ServesAndShutsDown(t *testing.T) {
	mp := &mockProvider{}
	mp.Set(simulator.Snapshot{Status: "completed", Progress: 100, ExpectedTime: 30})
	srv := NewServer(mp, 0, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	port := srv.Addr().(*net.TCPAddr).Port
	url := fmt.Sprintf("http://127.0.0.1:%d%s", port, StatusPath)
	client := &http.Client{
		Timeout:   time.Second,
		Transport: &http.Transport{DisableKeepAlives: true},
	}

	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET before shutdown failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status code = %d, want 200", resp.StatusCode)
	}

	cancel()

	select {
	case <-srv.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done() not closed 2s after context cancellation")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := client.Get(url)
		if err != nil {
			return // listener closed
		}
		_ = resp.Body.Close()
		if time.Now().After(deadline) {
			t.Fatal("server still serving 2s after context cancellation")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
