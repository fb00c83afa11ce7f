// Package api assembles the HTTP router for the QA canvas control plane:
// the three domain routes (analyze-ticket, update-canvas,
// generate-suggestions) plus read-only health/metrics endpoints, behind a
// standard chi middleware stack.
//
// Middleware ordering follows the usual chi convention: RequestID, RealIP,
// and Recoverer first so every later layer (including panics) gets a
// request ID and a safe recovery boundary, then Compress, request
// logging, session extraction, telemetry, and finally CORS.
package api

import (
	"net/http"

	"github.com/promadgenius/qacanvas/control-plane/internal/api/handlers"
	"github.com/promadgenius/qacanvas/control-plane/internal/api/middleware"
	"github.com/promadgenius/qacanvas/control-plane/internal/config"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the HTTP handler for the control plane.
func NewRouter(cfg *config.Config, h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.Logger)
	r.Use(middleware.SessionExtractor)
	r.Use(middleware.Telemetry)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Session-Id", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: !isWildcardOrigin(cfg.CORS.AllowedOrigins),
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Get("/version", h.Version)

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze-ticket", h.AnalyzeTicket)
		r.Post("/update-canvas", h.UpdateCanvas)
		r.Post("/generate-suggestions", h.GenerateSuggestions)

		r.Get("/provider-health", h.ProviderHealth)
		r.Get("/metrics", h.Metrics)
	})

	return r
}

// isWildcardOrigin reports whether the CORS origin list is the open "*"
// default, which the Fetch spec forbids combining with AllowCredentials.
func isWildcardOrigin(origins []string) bool {
	return len(origins) == 1 && origins[0] == "*"
}
