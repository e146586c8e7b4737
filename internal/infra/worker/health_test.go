package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func getJSON(t *testing.T, h http.Handler, path string) (int, healthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	return rec.Code, resp
}

func TestHealthServer_Liveness(t *testing.T) {
	hs := NewHealthServer(":0", testLogger())

	code, resp := getJSON(t, hs.Handler(), "/health")
	if code != http.StatusOK || resp.Status != "ok" {
		t.Fatalf("liveness = %d %+v", code, resp)
	}
}

func TestHealthServer_Readiness(t *testing.T) {
	hs := NewHealthServer(":0", testLogger())
	h := hs.Handler()

	code, resp := getJSON(t, h, "/health/ready")
	if code != http.StatusServiceUnavailable || resp.Status != "not ready" {
		t.Fatalf("before ready = %d %+v", code, resp)
	}

	hs.SetReady(true)
	hs.SetSchedule("@daily")
	finished := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	hs.SetLastRun(RunStatus{RunID: "r1", FinishedAt: finished, Created: 3, Filtered: 2})

	code, resp = getJSON(t, h, "/health/ready")
	if code != http.StatusOK || resp.Status != "ok" {
		t.Fatalf("after ready = %d %+v", code, resp)
	}
	if resp.Schedule != "@daily" {
		t.Errorf("schedule = %q", resp.Schedule)
	}
	if resp.LastRun == nil || resp.LastRun.RunID != "r1" || resp.LastRun.Created != 3 || !resp.LastRun.FinishedAt.Equal(finished) {
		t.Errorf("last run = %+v", resp.LastRun)
	}

	hs.SetReady(false)
	if code, _ := getJSON(t, h, "/health/ready"); code != http.StatusServiceUnavailable {
		t.Errorf("after unready = %d", code)
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

func TestHealthServer_StartAndShutdown(t *testing.T) {
	addr := freeAddr(t)
	hs := NewHealthServer(addr, testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- hs.Start(ctx) }()

	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + addr + "/health")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never came up: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned %v, want nil", err)
		}
	case <-time.After(6 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeMetrics(t *testing.T) {
	addr := freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeMetrics(ctx, addr, testLogger()) }()

	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + addr + "/metrics")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("metrics server never came up: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("ServeMetrics returned %v", err)
	}
}
