// Package server provides the health and admin HTTP sidecar.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"community-coin-bot/internal/config"
	"community-coin-bot/internal/pkg/db"
	"community-coin-bot/internal/service"
)

// Server exposes GET /healthz and a token-guarded POST /admin/reconcile
// for triggering reconciliation on demand.
type Server struct {
	httpServer *http.Server
	pool       *db.Pool
	reconciler *service.Reconciler
	adminToken string
}

// New creates a new Server instance.
func New(cfg *config.HTTPConfig, pool *db.Pool, reconciler *service.Reconciler) *Server {
	s := &Server{
		pool:       pool,
		reconciler: reconciler,
		adminToken: cfg.AdminToken,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Post("/admin/reconcile", s.handleReconcile)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		log.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server stopped unexpectedly")
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := s.pool.HealthCheck(ctx); err != nil {
		http.Error(w, "database unreachable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if s.adminToken == "" || r.Header.Get("Authorization") != "Bearer "+s.adminToken {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	outcome, err := s.reconciler.Run(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrReconcileBusy) {
			http.Error(w, "reconciliation already running", http.StatusConflict)
			return
		}
		log.Error().Err(err).Msg("On-demand reconciliation failed")
		http.Error(w, "reconciliation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"approved_processed": outcome.Approved.Processed,
		"approved_skipped":   outcome.Approved.Skipped,
		"approved_failed":    outcome.Approved.Failed,
		"coins_granted":      outcome.Approved.CoinsGranted,
		"declined_processed": outcome.Declined.Processed,
		"declined_failed":    outcome.Declined.Failed,
	})
}
