// Package server exposes snapshots and diagnostic metrics over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Dicklesworthstone/hwsnap/internal/monitor"
)

// Server routes HTTP requests to a monitor.
type Server struct {
	m   *monitor.Monitor
	log *zap.Logger
	mux *http.ServeMux
}

func New(m *monitor.Monitor, log *zap.Logger) *Server {
	s := &Server{m: m, log: log.Named("http"), mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /snapshot/{category}", s.handleSnapshot)
	s.mux.HandleFunc("POST /poll", s.handlePoll)
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("starting http server", zap.String("listen", addr))

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	var render func() ([]byte, error)
	switch category {
	case "cpu":
		render = s.m.CPUSnapshot
	case "gpu":
		render = s.m.GPUSnapshot
	case "memory":
		render = s.m.MemorySnapshot
	case "storage":
		render = s.m.StorageSnapshot
	case "network":
		render = s.m.NetworkSnapshot
	case "all":
		render = s.m.AllSnapshot
	default:
		http.Error(w, "unknown category", http.StatusNotFound)
		return
	}

	data, err := render()
	if err != nil {
		s.fail(w, "error rendering snapshot", err, zap.String("category", category))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	if err := s.m.PollOnce(r.Context()); err != nil {
		s.fail(w, "error polling sensors", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type status struct {
	Running   bool   `json:"running"`
	LoopError string `json:"loopError,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := status{Running: s.m.Running()}
	if err := s.m.LoopErr(); err != nil {
		st.LoopError = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

func (s *Server) fail(w http.ResponseWriter, msg string, err error, fields ...zap.Field) {
	code := http.StatusInternalServerError
	if errors.Is(err, monitor.ErrClosed) {
		code = http.StatusServiceUnavailable
	}
	s.log.Error(msg, append(fields, zap.Error(err))...)
	http.Error(w, fmt.Sprintf("%s: %s", msg, err), code)
}
