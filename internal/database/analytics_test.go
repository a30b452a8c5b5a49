// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sitebeacon/sitebeacon/internal/config"
	"github.com/sitebeacon/sitebeacon/internal/models"
)

func newTestStore(t *testing.T) *EventStore {
	t.Helper()

	db, err := New(&config.DatabaseConfig{
		Path:      ":memory:",
		Threads:   2,
		MaxMemory: "256MB",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})

	return NewEventStore(db)
}

func testEvent(owner, eventType, domain, path, ipToken, sessionID, device string, createdAt time.Time) *models.Event {
	return &models.Event{
		ID:         uuid.New().String(),
		OwnerID:    owner,
		EventType:  eventType,
		Domain:     domain,
		Path:       path,
		IPToken:    ipToken,
		DeviceType: device,
		SessionID:  sessionID,
		CreatedAt:  createdAt,
	}
}

func mustInsert(t *testing.T, store *EventStore, events ...*models.Event) {
	t.Helper()
	for _, ev := range events {
		if err := store.InsertEvent(context.Background(), ev); err != nil {
			t.Fatalf("InsertEvent: %v", err)
		}
	}
}

func TestInsertAndSummaryTotals(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	day := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

	mustInsert(t, store,
		testEvent("alice", models.EventTypePageview, "blog.example.com", "/", "tok-a", "sess-1", models.DeviceDesktop, day),
		testEvent("alice", models.EventTypePageview, "blog.example.com", "/post", "tok-a", "sess-1", models.DeviceDesktop, day.Add(time.Minute)),
		testEvent("alice", models.EventTypePageview, "blog.example.com", "/post", "tok-b", "sess-2", models.DeviceMobile, day.Add(2*time.Minute)),
		testEvent("alice", models.EventTypeClick, "blog.example.com", "/post", "tok-b", "sess-2", models.DeviceMobile, day.Add(3*time.Minute)),
	)

	summary, err := store.GetSummary(context.Background(), "alice", day.Add(-time.Hour), day.Add(time.Hour))
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}

	if summary.TotalPageviews != 3 {
		t.Errorf("TotalPageviews = %d, want 3 (clicks must not count)", summary.TotalPageviews)
	}
	if summary.UniqueVisitors != 2 {
		t.Errorf("UniqueVisitors = %d, want 2", summary.UniqueVisitors)
	}
	if summary.UniqueSessions != 2 {
		t.Errorf("UniqueSessions = %d, want 2", summary.UniqueSessions)
	}
	if got := summary.DeviceBreakdown[models.DeviceDesktop]; got != 2 {
		t.Errorf("DeviceBreakdown[desktop] = %d, want 2", got)
	}
	if got := summary.DeviceBreakdown[models.DeviceMobile]; got != 2 {
		t.Errorf("DeviceBreakdown[mobile] = %d, want 2", got)
	}
}

func TestSummaryTopPagesOrderingAndTies(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	day := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

	// /b gets 2 views, /a and /c tie at 1 and must order alphabetically.
	mustInsert(t, store,
		testEvent("alice", models.EventTypePageview, "blog.example.com", "/b", "tok-a", "s1", "", day),
		testEvent("alice", models.EventTypePageview, "blog.example.com", "/b", "tok-a", "s1", "", day),
		testEvent("alice", models.EventTypePageview, "blog.example.com", "/c", "tok-a", "s1", "", day),
		testEvent("alice", models.EventTypePageview, "blog.example.com", "/a", "tok-a", "s1", "", day),
	)

	summary, err := store.GetSummary(context.Background(), "alice", day.Add(-time.Hour), day.Add(time.Hour))
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}

	want := []models.PageCount{
		{Label: "/b", Views: 2},
		{Label: "/a", Views: 1},
		{Label: "/c", Views: 1},
	}
	if len(summary.TopPages) != len(want) {
		t.Fatalf("TopPages = %+v, want %d entries", summary.TopPages, len(want))
	}
	for i, w := range want {
		if summary.TopPages[i] != w {
			t.Errorf("TopPages[%d] = %+v, want %+v", i, summary.TopPages[i], w)
		}
	}
}

func TestSummaryWindowIsHalfOpen(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	start := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	mustInsert(t, store,
		// Exactly at start: included.
		testEvent("alice", models.EventTypePageview, "d", "/in-start", "tok", "s", "", start),
		// Just before end: included.
		testEvent("alice", models.EventTypePageview, "d", "/in-end", "tok", "s", "", end.Add(-time.Second)),
		// Exactly at end: excluded.
		testEvent("alice", models.EventTypePageview, "d", "/out", "tok", "s", "", end),
	)

	summary, err := store.GetSummary(context.Background(), "alice", start, end)
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}

	if summary.TotalPageviews != 2 {
		t.Errorf("TotalPageviews = %d, want 2 (end bound must be exclusive)", summary.TotalPageviews)
	}
}

func TestSummaryIsolatesOwners(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	day := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

	mustInsert(t, store,
		testEvent("alice", models.EventTypePageview, "d", "/", "tok-a", "s1", "", day),
		testEvent("bob", models.EventTypePageview, "d", "/", "tok-b", "s2", "", day),
	)

	summary, err := store.GetSummary(context.Background(), "alice", day.Add(-time.Hour), day.Add(time.Hour))
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}

	if summary.TotalPageviews != 1 {
		t.Errorf("TotalPageviews = %d, want 1 (bob's events must not leak)", summary.TotalPageviews)
	}
}

func TestSummaryEmptyWindow(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 3)

	summary, err := store.GetSummary(context.Background(), "nobody", start, end)
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}

	if summary.TotalPageviews != 0 || summary.UniqueVisitors != 0 || summary.UniqueSessions != 0 {
		t.Errorf("expected zero totals, got %+v", summary)
	}
	if summary.TopPages == nil || len(summary.TopPages) != 0 {
		t.Errorf("TopPages = %v, want empty non-nil slice", summary.TopPages)
	}
	if summary.TopDomains == nil || len(summary.TopDomains) != 0 {
		t.Errorf("TopDomains = %v, want empty non-nil slice", summary.TopDomains)
	}
	if len(summary.DailyViews) != 3 {
		t.Fatalf("DailyViews has %d entries, want 3 zero-filled days", len(summary.DailyViews))
	}
	for _, d := range summary.DailyViews {
		if d.Views != 0 {
			t.Errorf("DailyViews[%s] = %d, want 0", d.Date, d.Views)
		}
	}
}

func TestSummaryDailyViewsZeroFill(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	start := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 4)

	// Traffic on day 1 and day 3 only.
	mustInsert(t, store,
		testEvent("alice", models.EventTypePageview, "d", "/", "tok", "s", "", start.Add(10*time.Hour)),
		testEvent("alice", models.EventTypePageview, "d", "/", "tok", "s", "", start.AddDate(0, 0, 2).Add(9*time.Hour)),
		testEvent("alice", models.EventTypePageview, "d", "/", "tok", "s", "", start.AddDate(0, 0, 2).Add(20*time.Hour)),
	)

	summary, err := store.GetSummary(context.Background(), "alice", start, end)
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}

	wantViews := []int64{1, 0, 2, 0}
	if len(summary.DailyViews) != len(wantViews) {
		t.Fatalf("DailyViews has %d entries, want %d", len(summary.DailyViews), len(wantViews))
	}
	for i, want := range wantViews {
		if summary.DailyViews[i].Views != want {
			t.Errorf("DailyViews[%d] (%s) = %d, want %d",
				i, summary.DailyViews[i].Date, summary.DailyViews[i].Views, want)
		}
	}
	if summary.DailyViews[0].Date != "2026-08-10" {
		t.Errorf("first bucket = %s, want 2026-08-10", summary.DailyViews[0].Date)
	}
}

func TestFillMissingDays(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 8, 10, 6, 30, 0, 0, time.UTC)
	end := time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC)

	got := fillMissingDays(start, end, map[string]int64{"2026-08-11": 7})

	want := []models.DailyCount{
		{Date: "2026-08-10", Views: 0},
		{Date: "2026-08-11", Views: 7},
		{Date: "2026-08-12", Views: 0},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFillMissingDaysInvertedWindow(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 8, 13, 0, 0, 0, 0, time.UTC)
	got := fillMissingDays(start, start.AddDate(0, 0, -1), nil)
	if len(got) != 0 {
		t.Errorf("inverted window produced %d entries, want 0", len(got))
	}
}

func TestInsertEventStoresMetadata(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	day := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

	ev := testEvent("alice", models.EventTypeCustom, "d", "/signup", "tok", "s", "", day)
	ev.Metadata = map[string]interface{}{"plan": "pro", "count": 2}
	mustInsert(t, store, ev)

	var stored string
	row := store.db.conn.QueryRow("SELECT metadata FROM events WHERE id = ?", ev.ID)
	if err := row.Scan(&stored); err != nil {
		t.Fatalf("scan metadata: %v", err)
	}
	if stored == "" {
		t.Error("metadata not persisted")
	}
}

func TestInsertEventStoresEnrichmentColumns(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	day := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

	ev := testEvent("alice", models.EventTypePageview, "d", "/", "tok", "s", models.DeviceDesktop, day)
	ev.Referrer = "https://search.example/?q=sitebeacon"
	ev.UserAgentRaw = "Mozilla/5.0 (X11; Linux x86_64) Firefox/130.0"
	ev.Country = "DE"
	ev.City = "Berlin"
	ev.ScreenWidth = 1920
	ev.ScreenHeight = 1080
	mustInsert(t, store, ev)

	var referrer, uaRaw, country, city string
	var width, height int
	row := store.db.conn.QueryRow(`
		SELECT referrer, user_agent_raw, country, city, screen_width, screen_height
		FROM events WHERE id = ?`, ev.ID)
	if err := row.Scan(&referrer, &uaRaw, &country, &city, &width, &height); err != nil {
		t.Fatalf("scan enrichment columns: %v", err)
	}

	if referrer != ev.Referrer {
		t.Errorf("referrer = %q, want %q", referrer, ev.Referrer)
	}
	if uaRaw != ev.UserAgentRaw {
		t.Errorf("user_agent_raw = %q, want %q", uaRaw, ev.UserAgentRaw)
	}
	if country != "DE" || city != "Berlin" {
		t.Errorf("geo = %q/%q, want DE/Berlin", country, city)
	}
	if width != 1920 || height != 1080 {
		t.Errorf("screen = %dx%d, want 1920x1080", width, height)
	}
}
