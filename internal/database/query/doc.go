// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

// Package query provides SQL query building utilities for the database package.
//
// The WhereBuilder is the primary component, providing a fluent interface
// for constructing parameterized WHERE clauses:
//
//	wb := query.NewWhereBuilder()
//	wb.AddOwner(ownerID)
//	wb.AddWindow(start, end)
//	wb.AddEventTypes([]string{"pageview"})
//	whereClause, args := wb.Build()
//	// Result: "owner_id = ? AND created_at >= ? AND created_at < ? AND event_type IN (?)"
//	// Args: [ownerID, start, end, "pageview"]
//
// The window is half-open: created_at >= start AND created_at < end.
//
// # Available Filter Methods
//
//   - AddOwner: filters to one owner
//   - AddWindow: filters by the [start, end) created_at window
//   - AddEventTypes: filters by event type (pageview, click, custom)
//
// # SQL Injection Prevention
//
// All methods use parameterized queries with ? placeholders. Never
// concatenate user input directly into SQL strings.
//
// # Thread Safety
//
// WhereBuilder instances are not thread-safe. Create a new instance
// per query.
package query
