package routes

import (
	"net/http"

	"github.com/BradenHooton/lure/internal/auth"
	"github.com/BradenHooton/lure/internal/handlers"
	"github.com/BradenHooton/lure/internal/middleware"
	"github.com/BradenHooton/lure/internal/models"
	"github.com/go-chi/chi/v5"
)

// CaptureRoutes are the paths decoy pages post submissions to
var CaptureRoutes = []string{"/functions/v1/log-attempt", "/api/attempts"}

// Config carries the route-level policy knobs
type Config struct {
	CaptureRateLimitPerMinute int
	AdminRateLimitPerMinute   int
	AllowedOrigins            []string
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	attemptHandler *handlers.AttemptHandler,
	campaignHandler *handlers.CampaignHandler,
	verifier *auth.TokenVerifier,
	cfg Config,
) {
	// Public capture endpoint: permissive CORS is set by the handler itself
	captureLimit := middleware.RateLimitByIP(middleware.RateLimitConfig{
		RequestsPerMinute: cfg.CaptureRateLimitPerMinute,
		OnLimited:         handlers.CaptureRateLimited,
	})
	for _, path := range CaptureRoutes {
		router.Method(http.MethodOptions, path, attemptHandler)
		router.With(captureLimit).Method(http.MethodPost, path, attemptHandler)
	}

	// Admin API - authenticated, admin role only
	router.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.CORS(middleware.AdminCORSConfig(cfg.AllowedOrigins)))
		r.Use(middleware.RateLimitByIP(middleware.RateLimitConfig{RequestsPerMinute: cfg.AdminRateLimitPerMinute}))
		r.Use(auth.RequireAuth(verifier))
		r.Use(auth.RequireRole(models.RoleAdmin))

		r.Post("/campaigns", campaignHandler.Create)
		r.Get("/campaigns", campaignHandler.List)
		r.Get("/campaigns/{id}", campaignHandler.Get)
		r.Delete("/campaigns/{id}", campaignHandler.Delete)
		r.Get("/campaigns/{id}/attempts", campaignHandler.ListAttempts)
	})
}
