// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/sitebeacon/sitebeacon/internal/detection"
	"github.com/sitebeacon/sitebeacon/internal/logging"
	"github.com/sitebeacon/sitebeacon/internal/metrics"
	"github.com/sitebeacon/sitebeacon/internal/models"
	"github.com/sitebeacon/sitebeacon/internal/validation"
)

// Rejection reasons recorded against the events_rejected_total metric.
const (
	rejectUnauthorized = "unauthorized"
	rejectValidation   = "validation"
	rejectRateLimited  = "rate_limited"
	rejectStoreError   = "store_error"
)

// IngestEvent handles POST /api/v1/events.
//
// The request is authenticated through the multi-mode chain: session
// cookie first, API key second. A stale or malformed cookie does not
// block an otherwise valid API key. The stored event is enriched
// server-side: the caller address is reduced to a keyed one-way token
// and the User-Agent header is classified, with client-supplied
// device/browser/os values taking precedence.
func (h *Handler) IngestEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	subject, err := h.ingestAuth.Authenticate(ctx, r)
	if err != nil {
		metrics.RecordEventRejected(rejectUnauthorized)
		logging.Ctx(ctx).Debug().Err(err).Msg("Ingest authentication failed")
		rw.Unauthorized("Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.ingestCfg.MaxBodyBytes)

	var req models.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecordEventRejected(rejectValidation)
		rw.BadRequest("Invalid JSON body")
		return
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		metrics.RecordEventRejected(rejectValidation)
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	owner := subject.OwnerID
	if subject.AllowOwnerOverride && req.UserID != "" {
		owner = req.UserID
	}
	if owner == "" {
		metrics.RecordEventRejected(rejectValidation)
		rw.BadRequest("Event owner could not be resolved; set ingest.default_owner or supply userId")
		return
	}

	if !h.limiter.Allow(owner) {
		metrics.RecordEventRejected(rejectRateLimited)
		metrics.RecordRateLimitHit("/api/v1/events")
		logging.Ctx(ctx).Warn().
			Str("owner_id", owner).
			Msg("Owner rate limit exceeded")
		rw.TooManyRequests("Event rate limit exceeded for this owner")
		return
	}

	event := h.buildEvent(r, &req, owner)

	if err := h.store.InsertEvent(ctx, event); err != nil {
		metrics.RecordEventRejected(rejectStoreError)
		logging.Ctx(ctx).Error().
			Err(err).
			Str("owner_id", owner).
			Str("event_type", event.EventType).
			Msg("Failed to store event")
		rw.DatabaseError(err)
		return
	}

	metrics.RecordEventIngested(event.EventType, subject.AuthMethod.String())
	logging.Ctx(ctx).Debug().
		Str("event_id", event.ID).
		Str("owner_id", owner).
		Str("event_type", event.EventType).
		Str("auth_mode", subject.AuthMethod.String()).
		Msg("Event ingested")

	rw.Success(map[string]string{
		"id":     event.ID,
		"status": "accepted",
	})
}

// buildEvent assembles the stored event from the request payload and
// server-side enrichment. The User-Agent header is the primary
// classification source; callers without one (server SDKs, proxied
// webviews) can supply the userAgent body field instead.
// Client-supplied classification wins over the derivation so native
// SDKs can report exact values.
func (h *Handler) buildEvent(r *http.Request, req *models.IngestRequest, owner string) *models.Event {
	userAgentRaw := r.UserAgent()
	if userAgentRaw == "" {
		userAgentRaw = req.UserAgent
	}
	class := detection.Classify(userAgentRaw)

	device := req.DeviceType
	if device == "" {
		device = class.DeviceType
	}
	browser := req.Browser
	if browser == "" {
		browser = class.Browser
	}
	osName := req.OS
	if osName == "" {
		osName = class.OS
	}

	return &models.Event{
		ID:           uuid.NewString(),
		OwnerID:      owner,
		EventType:    req.EventType,
		Domain:       req.Domain,
		Path:         req.Path,
		Referrer:     req.Referrer,
		UserAgentRaw: userAgentRaw,
		IPToken:      h.anonymizer.Token(clientAddress(r)),
		DeviceType:   device,
		Browser:      browser,
		OS:           osName,
		Country:      req.Country,
		City:         req.City,
		ScreenWidth:  req.ScreenWidth,
		ScreenHeight: req.ScreenHeight,
		SessionID:    req.SessionID,
		Metadata:     req.Metadata,
		CreatedAt:    time.Now().UTC(),
	}
}
