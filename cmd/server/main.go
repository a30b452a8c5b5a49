// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

// Package main is the entry point for the Sitebeacon server.
//
// Sitebeacon is a self-hosted, privacy-first web traffic analytics
// service for content sites. Pages embed the tracker script (or use
// the Go agent SDK); the server ingests events, anonymizes caller
// addresses into keyed one-way tokens, classifies user agents, and
// serves aggregated summaries to the dashboard.
//
// # Startup order
//
//  1. Configuration: Koanf v2 layered load (env > YAML > defaults)
//  2. Logging: zerolog, configured from the loaded settings
//  3. Anonymizer: keyed address digest (IP_HASH_SECRET)
//  4. Database: DuckDB event store with circuit breaker
//  5. Authentication: session JWT and/or shared API key
//  6. HTTP server: chi router under a suture supervisor tree
//
// # Minimal production configuration
//
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export ADMIN_USERNAME=admin
//	export ADMIN_PASSWORD_HASH='$2a$10$…'   # bcrypt
//	export INGEST_API_KEY=$(openssl rand -hex 16)
//	export IP_HASH_SECRET=$(openssl rand -hex 16)
//	export DUCKDB_PATH=/data/sitebeacon.db
//	./sitebeacon
//
// # Signal handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the listener stops
// accepting connections, in-flight requests get the configured
// shutdown timeout, then the database is checkpointed and closed.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/sitebeacon/sitebeacon/internal/anonymize"
	"github.com/sitebeacon/sitebeacon/internal/api"
	"github.com/sitebeacon/sitebeacon/internal/auth"
	"github.com/sitebeacon/sitebeacon/internal/config"
	"github.com/sitebeacon/sitebeacon/internal/database"
	"github.com/sitebeacon/sitebeacon/internal/logging"
	"github.com/sitebeacon/sitebeacon/internal/metrics"
	"github.com/sitebeacon/sitebeacon/internal/ratelimit"
	"github.com/sitebeacon/sitebeacon/internal/supervisor"
	"github.com/sitebeacon/sitebeacon/internal/supervisor/services"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("addr", cfg.Server.Addr()).
		Str("db_path", cfg.Database.Path).
		Bool("session_auth", cfg.Auth.JWTSecret != "").
		Bool("api_key_auth", cfg.Ingest.APIKey != "").
		Msg("Starting Sitebeacon")

	metrics.AppInfo.WithLabelValues(version, "go").Set(1)

	anonymizer, err := anonymize.New(cfg.Privacy.IPHashSecret)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize anonymizer")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	store := database.NewEventStore(db)

	ingestAuth, dashAuth, jwtManager := buildAuthenticators(cfg)

	limiter := ratelimit.NewOwnerLimiter(cfg.Ingest.OwnerRatePerSecond, cfg.Ingest.OwnerBurst)

	handler := api.NewHandler(api.HandlerOptions{
		Store:      store,
		DB:         db,
		IngestAuth: ingestAuth,
		DashAuth:   dashAuth,
		JWT:        jwtManager,
		Anonymizer: anonymizer,
		Limiter:    limiter,
		AuthCfg:    cfg.Auth,
		IngestCfg:  cfg.Ingest,
	})
	mw := api.NewMiddleware(cfg.CORS, cfg.RateLimit)
	router := api.NewRouter(handler, mw)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", cfg.Server.Addr()).Msg("HTTP server starting")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}

	logging.Info().Msg("Shutdown complete")
}

// buildAuthenticators assembles the ingest and dashboard chains from
// the configured credential modes. The ingest chain is lenient about
// bad session cookies so a leftover dashboard session never blocks an
// API-key submission; the dashboard chain treats them as fatal.
func buildAuthenticators(cfg *config.Config) (ingest, dash auth.Authenticator, jwtManager *auth.JWTManager) {
	var ingestChain, dashChain []auth.Authenticator

	if cfg.Auth.JWTSecret != "" {
		var err error
		jwtManager, err = auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize session tokens")
		}
		ingestChain = append(ingestChain,
			auth.NewSessionAuthenticator(jwtManager, cfg.Auth.CookieName))
		dashChain = append(dashChain,
			auth.NewStrictSessionAuthenticator(jwtManager, cfg.Auth.CookieName))
	} else {
		logging.Warn().Msg("JWT secret not configured; session auth and dashboard login are disabled")
	}

	if cfg.Ingest.APIKey != "" {
		apiKey := auth.NewAPIKeyAuthenticator(cfg.Ingest.APIKey, cfg.Ingest.DefaultOwner)
		ingestChain = append(ingestChain, apiKey)
		dashChain = append(dashChain, apiKey)
	} else {
		logging.Warn().Msg("Ingest API key not configured; API-key auth is disabled")
	}

	if len(ingestChain) == 0 {
		logging.Warn().Msg("No authentication modes configured; every ingest request will be rejected")
	}

	return auth.NewMultiAuthenticator(ingestChain...),
		auth.NewMultiAuthenticator(dashChain...),
		jwtManager
}
