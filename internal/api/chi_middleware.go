// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/sitebeacon/sitebeacon/internal/config"
	"github.com/sitebeacon/sitebeacon/internal/metrics"
)

// Middleware provides the Chi middleware stack built from configuration.
type Middleware struct {
	corsCfg config.CORSConfig
	rlCfg   config.RateLimitConfig
	cors    func(http.Handler) http.Handler
}

// NewMiddleware creates the middleware factory.
//
// CORS is applied globally with split semantics: the ingest surface
// (/api/v1/events, /tracker.js) accepts any origin because the tracker
// runs on arbitrary customer sites, while dashboard routes only accept
// the configured origins. Error responses pass through the same
// handler, so 401/400 bodies are readable cross-origin too.
func NewMiddleware(corsCfg config.CORSConfig, rlCfg config.RateLimitConfig) *Middleware {
	m := &Middleware{
		corsCfg: corsCfg,
		rlCfg:   rlCfg,
	}

	m.cors = cors.Handler(cors.Options{
		AllowOriginFunc:  m.allowOrigin,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           86400,
	})

	return m
}

// ingestPath reports whether the request targets the public ingest
// surface, which is origin-unrestricted.
func ingestPath(path string) bool {
	return path == "/api/v1/events" || path == "/tracker.js"
}

// allowOrigin implements the per-route origin policy.
func (m *Middleware) allowOrigin(r *http.Request, origin string) bool {
	if ingestPath(r.URL.Path) {
		return true
	}

	for _, allowed := range m.corsCfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// CORS returns the global CORS middleware.
func (m *Middleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimitAPI returns the per-IP rate limiter for general API routes.
func (m *Middleware) RateLimitAPI() func(http.Handler) http.Handler {
	return rateLimit(m.rlCfg.APIRequests, m.rlCfg.APIWindow)
}

// RateLimitAuth returns the stricter per-IP rate limiter for login and
// session endpoints.
func (m *Middleware) RateLimitAuth() func(http.Handler) http.Handler {
	return rateLimit(m.rlCfg.AuthRequests, m.rlCfg.AuthWindow)
}

// rateLimit builds an httprate limiter keyed by client IP. Zero or
// negative settings disable the limiter for that group.
func rateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if requests <= 0 || window <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RecordRateLimitHit(r.URL.Path)
			WriteError(w, r, http.StatusTooManyRequests, ErrCodeTooManyRequests, "Rate limit exceeded")
		}),
	)
}

// SecurityHeaders returns a middleware that adds security headers to
// API responses. HSTS is added only when the request arrived over TLS
// or through a TLS-terminating proxy.
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
