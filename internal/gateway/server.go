// Package gateway is the arbiter HTTP + WebSocket surface: the dispute
// analysis endpoint, health and session introspection, and a live event
// feed for observers.
package gateway

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/soyeahso/arbiter/internal/config"
	"github.com/soyeahso/arbiter/internal/dispute"
	"github.com/soyeahso/arbiter/internal/logging"
	"github.com/soyeahso/arbiter/internal/store"
	"github.com/soyeahso/arbiter/internal/version"
)

// reaperInterval is how often idle sessions are swept.
const reaperInterval = time.Minute

// Server is the arbiter HTTP server.
type Server struct {
	cfg   config.Config
	log   *logging.Logger
	orch  *dispute.Orchestrator
	hub   *Hub
	audit *store.DecisionLog

	startedAt  time.Time
	httpServer *http.Server
}

// ServerOption configures the gateway server.
type ServerOption func(*Server)

// WithHub attaches a WebSocket event hub served at /ws/events.
func WithHub(hub *Hub) ServerOption {
	return func(s *Server) { s.hub = hub }
}

// WithAudit exposes the decision audit trail at /dispute/decisions.
func WithAudit(audit *store.DecisionLog) ServerOption {
	return func(s *Server) { s.audit = audit }
}

// New creates a new gateway server.
func New(cfg config.Config, log *logging.Logger, orch *dispute.Orchestrator, opts ...ServerOption) *Server {
	s := &Server{
		cfg:  cfg,
		log:  log.Sub("gateway"),
		orch: orch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.ServerConfig) string {
	switch cfg.Bind {
	case "loopback":
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	case "lan":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return fmt.Sprintf("%s:%d", host, cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start begins listening for HTTP connections and runs the session reaper.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Server)

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := withMiddleware(mux, s.log, s.cfg.Server.AllowedOrigins)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // an analysis turn can span oracle retries
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	if s.cfg.Server.TLS.Enabled {
		cert, err := tls.LoadX509KeyPair(s.cfg.Server.TLS.CertPath, s.cfg.Server.TLS.KeyPath)
		if err != nil {
			ln.Close()
			return fmt.Errorf("loading TLS certificate: %w", err)
		}
		tlsCfg := &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
		ln = tls.NewListener(ln, tlsCfg)
		s.log.Info().Msg("TLS enabled")
	} else if s.cfg.Server.Bind != "loopback" {
		s.log.Warn().Msg("TLS is not enabled — tokens will be transmitted in cleartext")
	}

	s.startedAt = time.Now()
	s.orch.Sessions().StartReaper(ctx, reaperInterval)

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Server.Bind).
		Str("version", version.Version).
		Bool("auth", s.cfg.Server.AuthToken != "").
		Msg("arbiter server ready")

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if s.hub != nil {
			s.hub.CloseAll()
		}
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}

// registerRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /dispute/analyze", s.requireAuth(s.handleAnalyze))
	mux.HandleFunc("GET /dispute/sessions", s.requireAuth(s.handleSessions))
	if s.audit != nil {
		mux.HandleFunc("GET /dispute/decisions", s.requireAuth(s.handleDecisions))
	}
	if s.hub != nil {
		mux.HandleFunc("GET /ws/events", s.requireAuth(s.hub.handleWebSocket))
	}

	mux.HandleFunc("/", handleNotFound)
}
