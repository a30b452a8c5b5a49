// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

package api

import (
	"context"
	"time"

	"github.com/sitebeacon/sitebeacon/internal/anonymize"
	"github.com/sitebeacon/sitebeacon/internal/auth"
	"github.com/sitebeacon/sitebeacon/internal/config"
	"github.com/sitebeacon/sitebeacon/internal/models"
	"github.com/sitebeacon/sitebeacon/internal/ratelimit"
)

// EventStore is the storage surface the handlers depend on.
// *database.EventStore satisfies it; tests substitute a fake.
type EventStore interface {
	InsertEvent(ctx context.Context, event *models.Event) error
	GetSummary(ctx context.Context, ownerID string, start, end time.Time) (*models.AggregationSummary, error)
}

// Pinger reports storage liveness for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	store      EventStore
	db         Pinger
	ingestAuth auth.Authenticator
	dashAuth   auth.Authenticator
	jwt        *auth.JWTManager
	anonymizer *anonymize.Anonymizer
	limiter    *ratelimit.OwnerLimiter
	authCfg    config.AuthConfig
	ingestCfg  config.IngestConfig
}

// HandlerOptions bundles the dependencies for NewHandler.
type HandlerOptions struct {
	Store EventStore
	DB    Pinger

	// IngestAuth authenticates event submissions: lenient session
	// cookie first, then API key.
	IngestAuth auth.Authenticator

	// DashAuth authenticates dashboard reads: strict session cookie
	// first, then API key.
	DashAuth auth.Authenticator

	JWT        *auth.JWTManager
	Anonymizer *anonymize.Anonymizer
	Limiter    *ratelimit.OwnerLimiter
	AuthCfg    config.AuthConfig
	IngestCfg  config.IngestConfig
}

// NewHandler creates a handler with the given dependencies.
func NewHandler(opts HandlerOptions) *Handler {
	return &Handler{
		store:      opts.Store,
		db:         opts.DB,
		ingestAuth: opts.IngestAuth,
		dashAuth:   opts.DashAuth,
		jwt:        opts.JWT,
		anonymizer: opts.Anonymizer,
		limiter:    opts.Limiter,
		authCfg:    opts.AuthCfg,
		ingestCfg:  opts.IngestCfg,
	}
}
