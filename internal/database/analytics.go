// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sitebeacon/sitebeacon/internal/database/query"
	"github.com/sitebeacon/sitebeacon/internal/metrics"
	"github.com/sitebeacon/sitebeacon/internal/models"
)

// topNLimit bounds the topPages and topDomains rankings.
const topNLimit = 10

// GetSummary computes the aggregation rollup for one owner over the
// half-open window [start, end). The result is always fully populated:
// an empty window yields zero counts, empty rankings, and a zero-filled
// dailyViews series.
func (s *EventStore) GetSummary(ctx context.Context, ownerID string, start, end time.Time) (*models.AggregationSummary, error) {
	summary := models.NewEmptySummary(ownerID, start, end)

	if err := s.loadTotals(ctx, summary); err != nil {
		return nil, err
	}
	if err := s.loadTopPages(ctx, summary); err != nil {
		return nil, err
	}
	if err := s.loadTopDomains(ctx, summary); err != nil {
		return nil, err
	}
	if err := s.loadDeviceBreakdown(ctx, summary); err != nil {
		return nil, err
	}
	if err := s.loadDailyViews(ctx, summary); err != nil {
		return nil, err
	}

	return summary, nil
}

// loadTotals fills totalPageviews, uniqueVisitors, and uniqueSessions.
// Distinct counts ignore NULL tokens, so events without a resolvable
// caller or session do not inflate the counts.
func (s *EventStore) loadTotals(ctx context.Context, summary *models.AggregationSummary) error {
	where, args := query.NewWhereBuilder().
		AddOwner(summary.OwnerID).
		AddWindow(summary.Start, summary.End).
		Build()

	q := fmt.Sprintf(`
		SELECT
			COUNT(*) FILTER (WHERE event_type = ?) AS pageviews,
			COUNT(DISTINCT ip_token)               AS visitors,
			COUNT(DISTINCT session_id)             AS sessions
		FROM events
		WHERE %s`, where)

	start := time.Now()
	row := s.db.conn.QueryRowContext(ctx, q, append([]interface{}{models.EventTypePageview}, args...)...)
	err := row.Scan(&summary.TotalPageviews, &summary.UniqueVisitors, &summary.UniqueSessions)
	metrics.RecordDBQuery("summary_totals", "events", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to load totals: %w", err)
	}
	return nil
}

// loadTopPages fills the topPages ranking from pageview events.
// Ties are broken by label ascending so results are stable.
func (s *EventStore) loadTopPages(ctx context.Context, summary *models.AggregationSummary) error {
	pages, err := s.topN(ctx, summary, "path", "summary_top_pages")
	if err != nil {
		return fmt.Errorf("failed to load top pages: %w", err)
	}
	summary.TopPages = pages
	return nil
}

// loadTopDomains fills the topDomains ranking from pageview events.
func (s *EventStore) loadTopDomains(ctx context.Context, summary *models.AggregationSummary) error {
	domains, err := s.topN(ctx, summary, "domain", "summary_top_domains")
	if err != nil {
		return fmt.Errorf("failed to load top domains: %w", err)
	}
	summary.TopDomains = domains
	return nil
}

// topN runs a grouped pageview ranking over the given column.
func (s *EventStore) topN(ctx context.Context, summary *models.AggregationSummary, column, operation string) ([]models.PageCount, error) {
	where, args := query.NewWhereBuilder().
		AddOwner(summary.OwnerID).
		AddWindow(summary.Start, summary.End).
		AddEventTypes([]string{models.EventTypePageview}).
		Build()

	q := fmt.Sprintf(`
		SELECT %s, COUNT(*) AS views
		FROM events
		WHERE %s
		GROUP BY %s
		ORDER BY views DESC, %s ASC
		LIMIT %d`, column, where, column, column, topNLimit)

	start := time.Now()
	rows, err := s.db.conn.QueryContext(ctx, q, args...)
	metrics.RecordDBQuery(operation, "events", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	results := []models.PageCount{}
	for rows.Next() {
		var pc models.PageCount
		if err := rows.Scan(&pc.Label, &pc.Views); err != nil {
			return nil, err
		}
		results = append(results, pc)
	}
	return results, rows.Err()
}

// loadDeviceBreakdown fills deviceBreakdown over all events in the window.
func (s *EventStore) loadDeviceBreakdown(ctx context.Context, summary *models.AggregationSummary) error {
	where, args := query.NewWhereBuilder().
		AddOwner(summary.OwnerID).
		AddWindow(summary.Start, summary.End).
		Build()

	q := fmt.Sprintf(`
		SELECT COALESCE(device_type, 'unknown') AS device, COUNT(*) AS views
		FROM events
		WHERE %s
		GROUP BY device`, where)

	start := time.Now()
	rows, err := s.db.conn.QueryContext(ctx, q, args...)
	metrics.RecordDBQuery("summary_devices", "events", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to load device breakdown: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var device string
		var views int64
		if err := rows.Scan(&device, &views); err != nil {
			return fmt.Errorf("failed to scan device breakdown: %w", err)
		}
		summary.DeviceBreakdown[device] = views
	}
	return rows.Err()
}

// loadDailyViews fills dailyViews, bucketed per UTC calendar day and
// zero-filled across the whole window.
func (s *EventStore) loadDailyViews(ctx context.Context, summary *models.AggregationSummary) error {
	where, args := query.NewWhereBuilder().
		AddOwner(summary.OwnerID).
		AddWindow(summary.Start, summary.End).
		AddEventTypes([]string{models.EventTypePageview}).
		Build()

	q := fmt.Sprintf(`
		SELECT DATE_TRUNC('day', created_at) AS bucket, COUNT(*) AS views
		FROM events
		WHERE %s
		GROUP BY bucket
		ORDER BY bucket ASC`, where)

	start := time.Now()
	rows, err := s.db.conn.QueryContext(ctx, q, args...)
	metrics.RecordDBQuery("summary_daily", "events", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to load daily views: %w", err)
	}
	defer closeRows(rows)

	counts := map[string]int64{}
	for rows.Next() {
		var bucket time.Time
		var views int64
		if err := rows.Scan(&bucket, &views); err != nil {
			return fmt.Errorf("failed to scan daily views: %w", err)
		}
		counts[bucket.UTC().Format("2006-01-02")] = views
	}
	if err := rows.Err(); err != nil {
		return err
	}

	summary.DailyViews = fillMissingDays(summary.Start, summary.End, counts)
	return nil
}

// fillMissingDays produces one DailyCount per UTC calendar day touched
// by [start, end), with zero counts for days without traffic. Dashboards
// chart the series directly without gap handling.
func fillMissingDays(start, end time.Time, counts map[string]int64) []models.DailyCount {
	result := []models.DailyCount{}
	if !start.Before(end) {
		return result
	}

	s := start.UTC()
	day := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)

	for day.Before(end) {
		key := day.Format("2006-01-02")
		result = append(result, models.DailyCount{
			Date:  key,
			Views: counts[key],
		})
		day = day.AddDate(0, 0, 1)
	}

	return result
}

// closeRows closes rows ignoring the error, for defer use.
func closeRows(rows *sql.Rows) {
	_ = rows.Close()
}
