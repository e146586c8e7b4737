package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthServer serves the worker probes:
//   - /health: liveness, always 200
//   - /health/ready: 200 once SetReady(true), 503 before; includes the
//     current cadence and the outcome of the last run
//
// Example usage:
//
//	hs := NewHealthServer(":9091", logger)
//	g.Go(func() error { return hs.Start(ctx) })
//	hs.SetReady(true)
type HealthServer struct {
	addr    string
	logger  *slog.Logger
	isReady *atomic.Bool

	mu       sync.RWMutex
	schedule string
	lastRun  *RunStatus
}

// RunStatus is the last run outcome reported on /health/ready.
type RunStatus struct {
	RunID      string    `json:"run_id"`
	FinishedAt time.Time `json:"finished_at"`
	Created    int       `json:"created"`
	Updated    int       `json:"updated"`
	Filtered   int       `json:"filtered"`
	Error      string    `json:"error,omitempty"`
}

type healthResponse struct {
	Status   string     `json:"status"`
	Schedule string     `json:"schedule,omitempty"`
	LastRun  *RunStatus `json:"last_run,omitempty"`
}

// NewHealthServer creates a health server that is not ready yet.
func NewHealthServer(addr string, logger *slog.Logger) *HealthServer {
	return &HealthServer{
		addr:    addr,
		logger:  logger,
		isReady: &atomic.Bool{},
	}
}

// Handler returns the probe routes.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleLiveness)
	mux.HandleFunc("/health/ready", h.handleReadiness)
	return mux
}

// Start serves until ctx is cancelled, then shuts down within 5 seconds.
// It returns nil after a graceful shutdown.
func (h *HealthServer) Start(ctx context.Context) error {
	return serve(ctx, h.logger, "health", h.addr, h.Handler())
}

// SetReady sets the readiness state.
func (h *HealthServer) SetReady(ready bool) {
	h.isReady.Store(ready)
	h.logger.Info("health server readiness changed", slog.Bool("ready", ready))
}

// SetSchedule records the active cron spec.
func (h *HealthServer) SetSchedule(spec string) {
	h.mu.Lock()
	h.schedule = spec
	h.mu.Unlock()
}

// SetLastRun records the outcome of the latest run.
func (h *HealthServer) SetLastRun(status RunStatus) {
	h.mu.Lock()
	h.lastRun = &status
	h.mu.Unlock()
}

func (h *HealthServer) handleLiveness(w http.ResponseWriter, r *http.Request) {
	h.write(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *HealthServer) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if !h.isReady.Load() {
		h.write(w, http.StatusServiceUnavailable, healthResponse{Status: "not ready"})
		return
	}
	h.mu.RLock()
	resp := healthResponse{Status: "ok", Schedule: h.schedule, LastRun: h.lastRun}
	h.mu.RUnlock()
	h.write(w, http.StatusOK, resp)
}

func (h *HealthServer) write(w http.ResponseWriter, code int, resp healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}

// ServeMetrics exposes the default Prometheus registry on addr until ctx is
// cancelled.
func ServeMetrics(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return serve(ctx, logger, "metrics", addr, mux)
}

func serve(ctx context.Context, logger *slog.Logger, name, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info(name+" server starting", slog.String("addr", addr))
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error(name+" server shutdown failed", slog.Any("error", err))
			return err
		}
		logger.Info(name + " server stopped")
		return nil
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error(name+" server failed", slog.Any("error", err))
		return err
	}
}
