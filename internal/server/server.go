// Package server exposes the operational status of the feed over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/monsterwatch/scvfeed/internal/feed"
	"github.com/monsterwatch/scvfeed/internal/logger"
	"github.com/monsterwatch/scvfeed/internal/notify"
)

// Server serves /healthz and /status.
type Server struct {
	srv        *http.Server
	feed       *feed.Feed
	dispatcher *notify.Dispatcher
	startedAt  time.Time
}

// New creates the status server bound to addr.
func New(addr string, f *feed.Feed, d *notify.Dispatcher) *Server {
	s := &Server{
		feed:       f,
		dispatcher: d,
		startedAt:  time.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		logger.Info("status server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("status server failed: %v", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type statusResponse struct {
	UptimeSeconds   int64      `json:"uptime_seconds"`
	Feed            feed.Stats `json:"feed"`
	AlertsDelivered uint64     `json:"alerts_delivered"`
	AlertsDropped   uint64     `json:"alerts_dropped"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	delivered, dropped := s.dispatcher.Stats()
	resp := statusResponse{
		UptimeSeconds:   int64(time.Since(s.startedAt).Seconds()),
		Feed:            s.feed.Stats(),
		AlertsDelivered: delivered,
		AlertsDropped:   dropped,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode status response: %v", err)
	}
}
