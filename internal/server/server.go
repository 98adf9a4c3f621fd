package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"mcpconnect/internal/config"
	"mcpconnect/internal/session"
	"mcpconnect/pkg/logging"
)

const (
	// DefaultReadHeaderTimeout is the default timeout for reading request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultWriteTimeout is the default timeout for writing responses.
	DefaultWriteTimeout = 120 * time.Second
	// DefaultIdleTimeout is the default idle timeout for keepalive connections.
	DefaultIdleTimeout = 120 * time.Second
)

// Server is the mcpconnect HTTP API server. It owns no sessions itself; all
// session state lives in the injected registry.
type Server struct {
	cfg        config.Config
	sessions   *session.Registry
	httpServer *http.Server
}

// New creates the HTTP API server around the given session registry.
func New(cfg config.Config, sessions *session.Registry) *Server {
	s := &Server{
		cfg:      cfg,
		sessions: sessions,
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.CreateMux(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}
	return s
}

// CreateMux creates the HTTP mux with all API and browser-facing routes.
func (s *Server) CreateMux() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (unauthenticated)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("/api/mcp/auth/connect", s.handleConnect)
	mux.HandleFunc("/api/mcp/auth/finish", s.handleFinish)
	mux.HandleFunc("/api/mcp/auth/disconnect", s.handleDisconnect)
	mux.HandleFunc("/api/mcp/tool/list", s.handleToolList)
	mux.HandleFunc("/api/mcp/tool/call", s.handleToolCall)

	callbackPath := s.cfg.Connector.CallbackPath
	if callbackPath == "" {
		callbackPath = config.DefaultCallbackPath
	}
	mux.HandleFunc(callbackPath, s.handleOAuthCallback)

	return mux
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the HTTP server until it fails or is shut down. It blocks;
// http.ErrServerClosed is translated to nil.
func (s *Server) Start() error {
	logging.Info("Server", "HTTP API listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
