// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

package api

import (
	_ "embed"
	"net/http"

	"github.com/sitebeacon/sitebeacon/internal/logging"
)

//go:embed assets/tracker.js
var trackerScript []byte

// TrackerScript handles GET /tracker.js, serving the embedded browser
// tracker. The script changes only on deploys, so clients may cache it
// for an hour.
func (h *Handler) TrackerScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(trackerScript); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write tracker script")
	}
}
