package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/halolight/console/internal/middleware"
)

// RouterConfig holds the optional parts of the router.
type RouterConfig struct {
	// Metrics records every request when set.
	Metrics *middleware.Metrics
	// Gatherer backs GET /metrics. Nil leaves the route unmounted.
	Gatherer prometheus.Gatherer
	// Limiter throttles /api/auth per client IP.
	Limiter *middleware.RateLimiter
	// Proxy, when set, serves /api instead of the mock handlers.
	Proxy http.Handler
}

// NewRouter constructs the HTTP handler serving the auth API.
//
// Routes:
//
//	GET  /healthz                   → liveness
//	GET  /metrics                   → Prometheus exposition
//	POST /api/auth/login            → authHandler.Login
//	POST /api/auth/register         → authHandler.Register
//	POST /api/auth/forgot-password  → authHandler.ForgotPassword
//	POST /api/auth/reset-password   → authHandler.ResetPassword
//	POST /api/auth/social-login     → authHandler.SocialLogin
//	GET  /api/auth/me               → authHandler.Me
//	POST /api/auth/logout           → authHandler.Logout
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") rejects bodies of other types
//  2. RequestID and Recoverer
//  3. WithRequestLogging(logger)
//  4. Metrics, when configured
func NewRouter(authHandler *AuthHandler, logger *zap.Logger, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Handler)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, response{Success: true})
	})
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	if cfg.Proxy != nil {
		r.Handle("/api/*", cfg.Proxy)
		return r
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(cfg.Limiter.Handler)
		r.Use(middleware.SessionToken)

		r.Post("/login", authHandler.Login)
		r.Post("/register", authHandler.Register)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)
		r.Post("/social-login", authHandler.SocialLogin)
		r.Get("/me", authHandler.Me)
		r.Post("/logout", authHandler.Logout)
	})

	return r
}
