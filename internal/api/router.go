// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/scadenza/internal/auth"
	"github.com/tomtom215/scadenza/internal/config"
	"github.com/tomtom215/scadenza/internal/middleware"
)

// loginRateLimit caps authentication attempts per IP to slow down
// credential guessing.
const (
	loginRateLimit  = 5
	loginRateWindow = 5 * time.Minute
)

// Router wires handlers, auth middleware and configuration into an
// http.Handler.
type Router struct {
	handler *Handler
	authMW  *auth.Middleware
	limiter *auth.RateLimiter
	cfg     *config.Config
}

// NewRouter creates a Router.
func NewRouter(handler *Handler, authMW *auth.Middleware, limiter *auth.RateLimiter, cfg *config.Config) *Router {
	return &Router{handler: handler, authMW: authMW, limiter: limiter, cfg: cfg}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   router.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/health", router.handler.Health)

	// Authentication endpoints get the strictest rate limiting.
	r.Route("/api/auth", func(r chi.Router) {
		r.With(httprate.LimitByIP(loginRateLimit, loginRateWindow)).
			Post("/login", router.handler.Login)
		r.With(chiMiddleware(router.authMW.Authenticate)).
			Post("/change-password", router.handler.ChangePassword)
	})

	// Data endpoints: authenticated, instrumented, per-IP rate limited.
	r.Route("/api", func(r chi.Router) {
		r.Use(chiMiddleware(router.limiter.Limit))
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(router.authMW.Authenticate))

		r.Get("/users", router.handler.ListUsers)
		r.With(chiMiddleware(router.authMW.RequireAdmin)).Post("/users", router.handler.CreateUser)
		r.With(chiMiddleware(router.authMW.RequireAdmin)).Put("/users/{id}", router.handler.UpdateUser)
		r.With(chiMiddleware(router.authMW.RequireAdmin)).Delete("/users/{id}", router.handler.DeleteUser)

		r.Get("/deadlines", router.handler.ListDeadlines)
		r.Post("/deadlines", router.handler.CreateDeadline)
		r.Put("/deadlines/{id}", router.handler.UpdateDeadline)
		r.Delete("/deadlines/{id}", router.handler.DeleteDeadline)
		r.Patch("/deadlines/{id}/complete", router.handler.ToggleDeadlineCompleted)

		r.Get("/categories", router.handler.ListCategories)
		r.Post("/categories", router.handler.CreateCategory)
		r.Delete("/categories/{name}", router.handler.DeleteCategory)

		r.Get("/logs", router.handler.ListLogs)

		r.Get("/ws", router.handler.WebSocket)
	})

	return r
}
