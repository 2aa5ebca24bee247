// Package server exposes the latest snapshot over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/theoremus-urban-solutions/rail-live/config"
	"github.com/theoremus-urban-solutions/rail-live/metrics"
	"github.com/theoremus-urban-solutions/rail-live/nmbs"
	"github.com/theoremus-urban-solutions/rail-live/tracking"
)

// Server serves the assembled snapshot, a health probe, and the metrics
// endpoint.
type Server struct {
	http   *http.Server
	poller *tracking.Poller
	client *nmbs.Client
}

// New builds the HTTP server around a running poller.
func New(cfg config.ServerConfig, poller *tracking.Poller, client *nmbs.Client, col *metrics.Collector) *Server {
	s := &Server{poller: poller, client: client}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	if col != nil {
		mux.Handle("/metrics", col.Handler())
	}

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start listens in a background goroutine.
func (s *Server) Start() {
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()
	log.Info().Str("addr", s.http.Addr).Msg("server listening")
}

// WaitForShutdown blocks until SIGINT/SIGTERM, then drains the server
// and stops the poller.
func (s *Server) WaitForShutdown() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	s.poller.Stop()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	upstream := "ok"
	code := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := s.client.Health(ctx); err != nil {
		upstream = "unreachable"
	}
	if s.poller.Snapshot() == nil {
		status = "starting"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status":   status,
		"upstream": upstream,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.poller.Snapshot()
	if snap == nil {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		log.Error().Err(err).Msg("encode snapshot")
	}
}
