// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

package models

import "time"

// PageCount is one entry of a top-pages or top-domains ranking.
type PageCount struct {
	Label string `json:"label"`
	Views int64  `json:"views"`
}

// DailyCount is the pageview count for one UTC calendar day.
// Days without traffic are present with a zero count.
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Views int64  `json:"views"`
}

// AggregationSummary is the rollup returned by the analytics summary
// endpoint for a single owner and time window.
type AggregationSummary struct {
	OwnerID         string           `json:"ownerId"`
	Start           time.Time        `json:"start"`
	End             time.Time        `json:"end"`
	TotalPageviews  int64            `json:"totalPageviews"`
	UniqueVisitors  int64            `json:"uniqueVisitors"`
	UniqueSessions  int64            `json:"uniqueSessions"`
	TopPages        []PageCount      `json:"topPages"`
	TopDomains      []PageCount      `json:"topDomains"`
	DeviceBreakdown map[string]int64 `json:"deviceBreakdown"`
	DailyViews      []DailyCount     `json:"dailyViews"`
}

// NewEmptySummary returns a zero-valued summary with initialized
// (non-nil) collections for the given owner and window.
func NewEmptySummary(ownerID string, start, end time.Time) *AggregationSummary {
	return &AggregationSummary{
		OwnerID:         ownerID,
		Start:           start,
		End:             end,
		TopPages:        []PageCount{},
		TopDomains:      []PageCount{},
		DeviceBreakdown: map[string]int64{},
		DailyViews:      []DailyCount{},
	}
}
