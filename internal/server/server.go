// Package server hosts the HTTP and WebSocket API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/polyscan/internal/server/handler"
	"github.com/alanyoungcy/polyscan/internal/server/middleware"
	"github.com/alanyoungcy/polyscan/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIToken    string // empty disables authentication
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health *handler.HealthHandler
	Scan   *handler.ScanHandler
	Config *handler.ConfigHandler
}

// Server is the headless HTTP + WebSocket API for the scan engine.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New builds the route table and middleware chain.
func New(cfg Config, handlers Handlers, hub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	mux.HandleFunc("POST /api/scan/{type}", handlers.Scan.Trigger)
	mux.HandleFunc("GET /api/scan/{type}/last", handlers.Scan.Last)
	mux.HandleFunc("GET /api/scan/{type}/history", handlers.Scan.History)
	mux.HandleFunc("GET /api/opportunities", handlers.Scan.Opportunities)

	mux.HandleFunc("GET /api/scan/config", handlers.Config.GetConfig)
	mux.HandleFunc("PUT /api/scan/config", handlers.Config.UpdateConfig)

	if hub != nil {
		mux.HandleFunc("GET /ws", hub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIToken)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      h,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 2 * time.Minute, // synchronous scans can be slow
			IdleTimeout:  60 * time.Second,
		},
		logger: logger.With(slog.String("component", "server")),
	}
}

// Start blocks serving requests until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.logger.Info("listening", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
