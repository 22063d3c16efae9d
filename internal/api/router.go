// Package api provides the HTTP API for the CarrierWatch aggregator.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/carrierwatch/carrierwatch/internal/aggregator"
	"github.com/carrierwatch/carrierwatch/internal/api/handler"
	"github.com/carrierwatch/carrierwatch/internal/api/middleware"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics
	Service   *aggregator.Service

	// Ready reports whether dependencies are usable; nil means always.
	Ready func() bool

	// Stream, when set, serves GET /v1/stream (websocket).
	Stream http.Handler

	// AdminSigningKey enables the admin routes when non-empty.
	AdminSigningKey string
}

// NewRouter creates a chi router with all aggregator routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Ready)
	providersHandler := handler.NewProvidersHandler(cfg.Service)
	adminHandler := handler.NewAdminHandler(cfg.Service)

	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)
	adminRateLimit := middleware.RateLimitByIP(middleware.AdminRateLimit)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		r.Route("/providers", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", providersHandler.List)
			r.Route("/{provider}", func(r chi.Router) {
				r.Get("/", providersHandler.Get)
				r.Get("/history", providersHandler.History)
			})
		})

		if cfg.Stream != nil {
			r.Handle("/stream", cfg.Stream)
		}

		if cfg.AdminSigningKey != "" {
			r.Route("/admin", func(r chi.Router) {
				r.Use(adminRateLimit)
				r.Use(middleware.Auth(cfg.AdminSigningKey))
				r.Post("/providers/{provider}/reset", adminHandler.ResetProvider)
			})
		}
	})

	return r
}
