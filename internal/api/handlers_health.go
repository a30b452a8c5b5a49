// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

package api

import (
	"net/http"

	"github.com/sitebeacon/sitebeacon/internal/logging"
)

// HealthLive handles GET /api/v1/health/live. It answers as long as
// the process is serving requests; no dependencies are checked.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]string{"status": "alive"})
}

// HealthReady handles GET /api/v1/health/ready. Readiness requires the
// event store to answer a ping; a failure returns 503 so load
// balancers stop routing traffic here.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if err := h.db.Ping(r.Context()); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Readiness check failed")
		rw.ServiceUnavailable("Event store is not reachable")
		return
	}

	rw.Success(map[string]string{"status": "ready"})
}
