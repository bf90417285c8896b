package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"ghostsignal/internal/app/server/handlers"
	"ghostsignal/internal/core/services"
	"ghostsignal/pkg/middleware"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

type Server struct {
	log          *slog.Logger
	mux          *http.ServeMux
	name         string
	addr         string
	authHandler  *handlers.AuthHandler
	wsHandler    *handlers.WSHandler
	adminHandler *handlers.AdminHandler
	tokenSvc     *services.TokenService
}

func NewServer(
	log *slog.Logger,
	name string,
	addr string,
	authHandler *handlers.AuthHandler,
	wsHandler *handlers.WSHandler,
	adminHandler *handlers.AdminHandler,
	tokenSvc *services.TokenService,
) *Server {
	s := &Server{
		log:          log,
		mux:          http.NewServeMux(),
		name:         name,
		addr:         addr,
		authHandler:  authHandler,
		wsHandler:    wsHandler,
		adminHandler: adminHandler,
		tokenSvc:     tokenSvc,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	auth := middleware.AuthMiddleware(s.tokenSvc)
	// Credential endpoints sit behind a per-IP bucket so access keys
	// cannot be brute-forced at wire speed.
	limited := middleware.RateLimit(rate.Every(time.Second/5), 10)

	s.mux.Handle("POST /auth/register", limited(http.HandlerFunc(s.authHandler.Register)))
	s.mux.Handle("POST /auth/login", limited(http.HandlerFunc(s.authHandler.Login)))

	s.mux.Handle("/ws", auth(http.HandlerFunc(s.wsHandler.Handler)))

	s.mux.Handle("GET /admin/stats", auth(http.HandlerFunc(s.adminHandler.Stats)))
	s.mux.Handle("GET /admin/users", auth(http.HandlerFunc(s.adminHandler.Users)))
	s.mux.Handle("POST /admin/block", auth(http.HandlerFunc(s.adminHandler.Block)))

	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
}

// Start serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	handler := middleware.RequestLogger(s.log)(middleware.TracerMiddleware(s.name)(s.mux))
	server := &http.Server{
		Addr:         s.addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // long-lived websocket responses
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server - start - listening", "addr", s.addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("server - start - shutting down")
		return server.Shutdown(shutdownCtx)
	}
}
