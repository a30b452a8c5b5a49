// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

// Package query provides SQL query building utilities for the database package.
// It reduces duplication across the aggregation queries and keeps all
// filtering parameterized.
package query

import (
	"fmt"
	"strings"
	"time"
)

// WhereBuilder constructs SQL WHERE clauses with parameterized arguments.
//
// Example usage:
//
//	wb := query.NewWhereBuilder()
//	wb.AddOwner(ownerID)
//	wb.AddWindow(start, end)
//	whereClause, args := wb.Build()
//	// WHERE owner_id = ? AND created_at >= ? AND created_at < ?
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates a new WhereBuilder instance.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: []string{},
		args:    []interface{}{},
	}
}

// AddOwner filters to a single owner. Empty owner is skipped.
func (wb *WhereBuilder) AddOwner(ownerID string) *WhereBuilder {
	if ownerID != "" {
		wb.clauses = append(wb.clauses, "owner_id = ?")
		wb.args = append(wb.args, ownerID)
	}
	return wb
}

// AddWindow adds the half-open time window [start, end) on created_at.
// Zero times are skipped, allowing open-ended queries.
func (wb *WhereBuilder) AddWindow(start, end time.Time) *WhereBuilder {
	if !start.IsZero() {
		wb.clauses = append(wb.clauses, "created_at >= ?")
		wb.args = append(wb.args, start.UTC())
	}
	if !end.IsZero() {
		wb.clauses = append(wb.clauses, "created_at < ?")
		wb.args = append(wb.args, end.UTC())
	}
	return wb
}

// AddEventTypes adds an event type filter using IN clause.
// Generates "event_type IN (?, ?, ...)" with proper parameterization.
func (wb *WhereBuilder) AddEventTypes(eventTypes []string) *WhereBuilder {
	return wb.addIn("event_type", eventTypes)
}

// addIn appends "column IN (?, ...)" for a non-empty value list.
func (wb *WhereBuilder) addIn(column string, values []string) *WhereBuilder {
	if len(values) > 0 {
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = "?"
			wb.args = append(wb.args, v)
		}
		wb.clauses = append(wb.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
	}
	return wb
}

// Build constructs the final WHERE clause and returns it with arguments.
// Clauses are joined with "AND". Returns ("1=1", []) if no clauses were added.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}
