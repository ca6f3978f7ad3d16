package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/guardian/guardian/internal/config"
	"github.com/guardian/guardian/internal/handler"
	"github.com/guardian/guardian/internal/metrics"
	"github.com/guardian/guardian/internal/middleware"
)

// routerDeps are the services and health checks the HTTP surface is built on.
type routerDeps struct {
	invitations handler.Inviter
	children    handler.ChildrenManager
	safety      handler.SafetyFeed
	geofences   handler.GeofenceManager
	acceptance  handler.InviteAcceptor
	sessions    middleware.SessionVerifier
	limiter     middleware.InviteLimiter
	db          handler.HealthChecker
	cache       handler.HealthChecker
	metrics     metrics.Snapshotter
}

func newRouter(cfg *config.Config, deps routerDeps, logger *slog.Logger) *chi.Mux {
	h := handler.New()
	health := handler.NewHealthHandler(deps.db, deps.cache)
	metricsHandler := handler.NewMetricsHandler(deps.metrics)
	invitations := handler.NewInvitationHandler(deps.invitations, logger)
	children := handler.NewChildrenHandler(deps.children, logger)
	safety := handler.NewSafetyHandler(deps.safety, logger)
	geofences := handler.NewGeofenceHandler(deps.geofences, logger)
	acceptance := handler.NewAcceptanceHandler(deps.acceptance, logger)

	authenticate := middleware.Auth(middleware.AuthConfig{
		Logger:   logger,
		Verifier: deps.sessions,
	})
	limitInvites := middleware.RateLimitInvites(middleware.RateLimitConfig{
		Logger:        logger,
		Limiter:       deps.limiter,
		Enabled:       cfg.RateLimitInviteEnabled,
		RatePerMinute: cfg.RateLimitInvitePerMin,
		Burst:         cfg.RateLimitInviteBurst,
	})

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)
	r.Get("/", h.Hello)

	// Edge function compatible endpoint used by the mobile and web clients.
	r.Route("/functions/v1", func(r chi.Router) {
		r.Use(middleware.CORS(middleware.FunctionsCORSConfig()))
		r.Use(middleware.RequireJSON)
		r.With(authenticate, limitInvites).Post("/invite-child", invitations.Invite)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSAllowedOrigins)))
		r.Use(middleware.RequireJSON)

		r.Post("/invitations/accept", acceptance.Accept)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Route("/children", func(r chi.Router) {
				r.With(limitInvites).Post("/invite", invitations.Invite)
				r.Get("/", children.List)
				r.Patch("/{id}", children.Rename)
				r.Delete("/{id}", children.Unlink)
			})

			r.Route("/alerts", func(r chi.Router) {
				r.Get("/", safety.ListAlerts)
				r.Post("/sos", safety.RaiseSOS)
				r.Post("/{id}/read", safety.MarkAlertRead)
			})

			r.Route("/messages", func(r chi.Router) {
				r.Get("/", safety.ListMessages)
				r.Post("/", safety.SendMessage)
				r.Post("/{id}/read", safety.MarkMessageRead)
			})

			r.Route("/geofences", func(r chi.Router) {
				r.Get("/", geofences.List)
				r.Post("/", geofences.Create)
				r.Delete("/{id}", geofences.Delete)
			})

			r.Post("/locations", safety.ReportLocation)
		})
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
