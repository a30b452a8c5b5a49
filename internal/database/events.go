// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/sitebeacon/sitebeacon/internal/logging"
	"github.com/sitebeacon/sitebeacon/internal/metrics"
	"github.com/sitebeacon/sitebeacon/internal/models"
)

// EventStore appends events through a circuit breaker so that a failing
// database makes ingestion fail fast instead of piling up blocked
// requests. Delivery is at-most-once: a tripped breaker or failed
// insert drops the event.
type EventStore struct {
	db      *DB
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewEventStore creates an event store over db.
func NewEventStore(db *DB) *EventStore {
	settings := gobreaker.Settings{
		Name:        "event-store",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state change")
			metrics.RecordBreakerTransition(name, from.String(), to.String())
		},
	}

	return &EventStore{
		db:      db,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// InsertEvent appends a single event.
func (s *EventStore) InsertEvent(ctx context.Context, event *models.Event) error {
	start := time.Now()

	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.insert(ctx, event)
	})

	metrics.RecordDBQuery("insert", "events", time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// insert performs the actual append.
func (s *EventStore) insert(ctx context.Context, event *models.Event) error {
	var metadataJSON []byte
	if len(event.Metadata) > 0 {
		var err error
		metadataJSON, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO events (
			id, owner_id, event_type, domain, path, referrer,
			user_agent_raw, ip_token, device_type, browser, os,
			country, city, screen_width, screen_height,
			session_id, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.OwnerID,
		event.EventType,
		event.Domain,
		event.Path,
		nullable(event.Referrer),
		nullable(event.UserAgentRaw),
		nullable(event.IPToken),
		nullable(event.DeviceType),
		nullable(event.Browser),
		nullable(event.OS),
		nullable(event.Country),
		nullable(event.City),
		nullableInt(event.ScreenWidth),
		nullableInt(event.ScreenHeight),
		nullable(event.SessionID),
		nullableBytes(metadataJSON),
		event.CreatedAt.UTC(),
	)
	return err
}

// nullable maps empty strings to SQL NULL.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// nullableInt maps zero to SQL NULL; screen dimensions are never zero
// when actually reported.
func nullableInt(n int) interface{} {
	if n == 0 {
		return nil
	}
	return n
}

// nullableBytes maps empty byte slices to SQL NULL.
func nullableBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
