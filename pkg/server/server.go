// Package server provides the public entry point for initializing the QA
// canvas control plane server.
//
// Usage:
//
//	srv, err := server.New(ctx)
//	http.ListenAndServe(":8080", srv.Handler)
package server

import (
	"context"
	"fmt"

	"net/http"

	"github.com/promadgenius/qacanvas/control-plane/internal/analyzer"
	"github.com/promadgenius/qacanvas/control-plane/internal/api"
	"github.com/promadgenius/qacanvas/control-plane/internal/api/handlers"
	"github.com/promadgenius/qacanvas/control-plane/internal/config"
	"github.com/promadgenius/qacanvas/control-plane/internal/gateway"
	"github.com/promadgenius/qacanvas/control-plane/internal/intent"
	"github.com/promadgenius/qacanvas/control-plane/internal/regenerator"
	"github.com/promadgenius/qacanvas/control-plane/internal/session"
	"github.com/promadgenius/qacanvas/control-plane/internal/suggest"
	"github.com/promadgenius/qacanvas/control-plane/internal/telemetry"
	"github.com/promadgenius/qacanvas/control-plane/pkg/contracts"

	"github.com/rs/zerolog/log"
)

// Config is the public configuration for the control plane server.
type Config struct {
	Port         int
	Version      string
	OTELEnabled  bool
	OTELEndpoint string
	ServiceName  string
}

// Server holds the initialized control plane.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Handlers is the HTTP handler collection, exposed so callers can
	// inspect or extend routing around it.
	Handlers *handlers.Handlers

	// Gateway is the Provider Gateway instance. Exposed so an embedding
	// caller can inspect or reset circuit state.
	Gateway *gateway.Gateway

	// Regenerator is exposed separately from Handlers because the Canvas
	// Regenerator has no HTTP route of its own — it is reached only
	// through the Intent Engine — but an embedding caller may still want
	// direct programmatic access to full-document regeneration.
	Regenerator contracts.RegeneratorService

	// Sessions manages multi-turn conversation sessions.
	Sessions contracts.SessionStore

	// Metrics is the bounded ring buffer of recent gateway events backing
	// GET /api/metrics.
	Metrics *gateway.RingBuffer

	// Config is the server configuration.
	Config *Config

	// Port is the port the server should listen on.
	Port int

	// ShutdownFunc should be called on graceful shutdown to flush telemetry.
	ShutdownFunc func(context.Context) error

	sessionStore *session.Store
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	cfg := config.Load()
	return &Config{
		Port:         cfg.Port,
		Version:      cfg.Version,
		OTELEnabled:  cfg.Telemetry.Enabled,
		OTELEndpoint: cfg.Telemetry.OTLPEndpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
	}
}

// New initializes all control plane components and returns a ready Server.
func New(ctx context.Context) (*Server, error) {
	return NewWithConfig(ctx, LoadConfig())
}

// NewWithConfig initializes the control plane from the environment-driven
// configuration, overriding its port with pubCfg.Port when that is > 0.
// The other pubCfg fields are not applied; pubCfg is kept as Server.Config.
func NewWithConfig(ctx context.Context, pubCfg *Config) (*Server, error) {
	cfg := config.Load()
	if pubCfg.Port > 0 {
		cfg.Port = pubCfg.Port
	}

	shutdown, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	return buildServer(ctx, cfg, pubCfg, shutdown)
}

// buildServer is the shared constructor that wires all services.
func buildServer(ctx context.Context, cfg *config.Config, pubCfg *Config, shutdown func(context.Context) error) (*Server, error) {
	ringBuffer := gateway.NewRingBuffer(1000)

	gw, err := gateway.New(&cfg.Gateway, ringBuffer)
	if err != nil {
		return nil, fmt.Errorf("init provider gateway: %w", err)
	}
	log.Info().Msg("✅ Provider Gateway initialized")

	sessionStore := session.New(cfg.Session.TTL)

	az := analyzer.New(gw)
	log.Info().Msg("✅ Ticket Analyzer initialized")

	regen := regenerator.New(gw)
	log.Info().Msg("✅ Canvas Regenerator initialized")

	ie := intent.New(gw, regen)
	log.Info().Msg("✅ Intent Engine initialized")

	sg := suggest.New(gw)
	log.Info().Msg("✅ Suggestion Engine initialized")

	uncertaintySvc := contracts.NewUncertaintyService()

	h := handlers.New(az, ie, sg, uncertaintySvc, sessionStore, gw, ringBuffer, cfg.Version)

	router := api.NewRouter(cfg, h)

	return &Server{
		Handler:      router,
		Handlers:     h,
		Gateway:      gw,
		Regenerator:  regen,
		Sessions:     sessionStore,
		Metrics:      ringBuffer,
		Config:       pubCfg,
		Port:         cfg.Port,
		ShutdownFunc: shutdown,
		sessionStore: sessionStore,
	}, nil
}

// Shutdown stops the session store's background eviction sweeper and
// flushes telemetry. Should be called on graceful shutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.sessionStore != nil {
		s.sessionStore.Close()
	}
	if s.ShutdownFunc != nil {
		return s.ShutdownFunc(ctx)
	}
	return nil
}
