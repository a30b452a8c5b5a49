// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sitebeacon/sitebeacon/internal/logging"
	"github.com/sitebeacon/sitebeacon/internal/metrics"
)

// defaultSummaryWindow is applied when the caller omits the start
// parameter: the 30 days leading up to end.
const defaultSummaryWindow = 30 * 24 * time.Hour

// AnalyticsSummary handles GET /api/v1/analytics/summary.
//
// Query parameters:
//
//	start - RFC3339 timestamp, inclusive. Defaults to end minus 30 days.
//	end   - RFC3339 timestamp, exclusive. Defaults to now.
//	owner - owner to report on. Only honored for API-key callers;
//	        session callers always read their own data.
//
// The window is half-open: events at exactly start are included,
// events at exactly end are not.
func (h *Handler) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	subject, err := h.dashAuth.Authenticate(ctx, r)
	if err != nil {
		rw.Unauthorized("Authentication required")
		return
	}

	owner := subject.OwnerID
	if subject.AllowOwnerOverride {
		if requested := r.URL.Query().Get("owner"); requested != "" {
			owner = requested
		}
	}
	if owner == "" {
		rw.BadRequest("Owner could not be resolved; set ingest.default_owner or supply the owner parameter")
		return
	}

	start, end, err := parseWindow(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	summary, err := h.store.GetSummary(ctx, owner, start, end)
	if err != nil {
		logging.Ctx(ctx).Error().
			Err(err).
			Str("owner_id", owner).
			Time("start", start).
			Time("end", end).
			Msg("Failed to compute analytics summary")
		rw.DatabaseError(err)
		return
	}

	metrics.RecordSummaryQuery()
	rw.Success(summary)
}

// parseWindow resolves the [start, end) reporting window from the raw
// query values, applying defaults for whichever side is omitted.
func parseWindow(rawStart, rawEnd string) (time.Time, time.Time, error) {
	end := time.Now().UTC()
	if rawEnd != "" {
		parsed, err := time.Parse(time.RFC3339, rawEnd)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end parameter: must be RFC3339, got %q", rawEnd)
		}
		end = parsed.UTC()
	}

	start := end.Add(-defaultSummaryWindow)
	if rawStart != "" {
		parsed, err := time.Parse(time.RFC3339, rawStart)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start parameter: must be RFC3339, got %q", rawStart)
		}
		start = parsed.UTC()
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start must be before end")
	}

	return start, end, nil
}
