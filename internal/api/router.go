// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sitebeacon/sitebeacon/internal/middleware"
)

// Router wires handlers and middleware into the HTTP routing tree.
type Router struct {
	handler *Handler
	mw      *Middleware
}

// NewRouter creates a router from the handler and middleware factory.
func NewRouter(handler *Handler, mw *Middleware) *Router {
	return &Router{
		handler: handler,
		mw:      mw,
	}
}

// Setup configures all HTTP routes and returns the root handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order. CORS is
	// global so OPTIONS preflights and error responses are covered.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.mw.CORS())
	r.Use(middleware.PrometheusMetrics)

	// Public ingest surface. Any origin may post events; auth happens
	// inside the handler so a 401 still carries CORS headers.
	r.Group(func(r chi.Router) {
		r.Use(router.mw.RateLimitAPI())
		r.Post("/api/v1/events", router.handler.IngestEvent)
		r.Get("/tracker.js", router.handler.TrackerScript)
	})

	// Session endpoints, strictly rate limited against brute force.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(SecurityHeaders())
		r.Use(router.mw.RateLimitAuth())
		r.Post("/login", router.handler.Login)
		r.Post("/logout", router.handler.Logout)
		r.Get("/me", router.handler.Me)
	})

	// Dashboard analytics.
	r.Route("/api/v1/analytics", func(r chi.Router) {
		r.Use(SecurityHeaders())
		r.Use(router.mw.RateLimitAPI())
		r.Get("/summary", router.handler.AnalyticsSummary)
	})

	// Health probes.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.mw.RateLimitAPI())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Observability.
	r.Handle("/metrics", promhttp.Handler())

	// Unmatched routes get the JSON envelope instead of chi's plain
	// text default, so API clients can always parse the response.
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).NotFound("Resource not found")
	})

	return r
}
