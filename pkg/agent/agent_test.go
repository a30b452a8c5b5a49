// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

package agent

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/sitebeacon/sitebeacon/internal/models"
)

// collector is a test ingest endpoint that records every payload.
type collector struct {
	mu       sync.Mutex
	received []models.IngestRequest
	apiKeys  []string
}

func (c *collector) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.IngestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		c.mu.Lock()
		c.received = append(c.received, req)
		c.apiKeys = append(c.apiKeys, r.Header.Get("X-API-Key"))
		c.mu.Unlock()

		w.WriteHeader(http.StatusOK)
	})
}

func (c *collector) events() []models.IngestRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.IngestRequest, len(c.received))
	copy(out, c.received)
	return out
}

// Tests share the module-scoped agent state, so none of them run in
// parallel.

func TestInitRequiresEndpointAndDomain(t *testing.T) {
	defer Reset()

	if err := Init(Config{Domain: "example.test"}); err == nil {
		t.Error("Init without endpoint did not fail")
	}
	if err := Init(Config{Endpoint: "http://localhost/api/v1/events"}); err == nil {
		t.Error("Init without domain did not fail")
	}
	if err := Init(Config{Endpoint: "http://localhost/api/v1/events", Domain: "example.test"}); err != nil {
		t.Errorf("Init with valid config failed: %v", err)
	}
}

func TestTrackPageViewSendsEvent(t *testing.T) {
	defer Reset()

	c := &collector{}
	srv := httptest.NewServer(c.handler())
	defer srv.Close()

	err := Init(Config{
		Endpoint: srv.URL,
		APIKey:   "test-api-key-0123456789",
		Owner:    "blog-owner",
		Domain:   "blog.example",
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	TrackPageView("/posts/42")
	Flush()

	events := c.events()
	if len(events) != 1 {
		t.Fatalf("received %d events, want 1", len(events))
	}

	got := events[0]
	if got.EventType != models.EventTypePageview {
		t.Errorf("eventType = %q, want %q", got.EventType, models.EventTypePageview)
	}
	if got.Domain != "blog.example" {
		t.Errorf("domain = %q, want blog.example", got.Domain)
	}
	if got.Path != "/posts/42" {
		t.Errorf("path = %q, want /posts/42", got.Path)
	}
	if got.UserID != "blog-owner" {
		t.Errorf("userId = %q, want blog-owner", got.UserID)
	}
	if got.SessionID == "" {
		t.Error("sessionId is empty")
	}
	if c.apiKeys[0] != "test-api-key-0123456789" {
		t.Errorf("X-API-Key = %q, want the configured key", c.apiKeys[0])
	}
}

func TestTrackEventCoercesUnknownType(t *testing.T) {
	defer Reset()

	c := &collector{}
	srv := httptest.NewServer(c.handler())
	defer srv.Close()

	if err := Init(Config{Endpoint: srv.URL, Domain: "blog.example"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	TrackEvent("click", "/pricing", map[string]interface{}{"button": "signup"})
	TrackEvent("made-up-type", "/pricing", nil)
	Flush()

	events := c.events()
	if len(events) != 2 {
		t.Fatalf("received %d events, want 2", len(events))
	}

	types := []string{events[0].EventType, events[1].EventType}
	sort.Strings(types)
	if types[0] != models.EventTypeClick || types[1] != models.EventTypeCustom {
		t.Errorf("event types = %v, want [click custom]", types)
	}

	for _, e := range events {
		if e.EventType == models.EventTypeClick {
			if e.Metadata["button"] != "signup" {
				t.Errorf("click metadata = %v, want button=signup", e.Metadata)
			}
		}
	}
}

func TestWrapNavigationCapturesPathPerCall(t *testing.T) {
	defer Reset()

	c := &collector{}
	srv := httptest.NewServer(c.handler())
	defer srv.Close()

	if err := Init(Config{Endpoint: srv.URL, Domain: "app.example"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	var visited []string
	navigate := WrapNavigation(func(path string) {
		visited = append(visited, path)
	})

	// Two navigations in quick succession must each report their own
	// destination, not whichever path happens to be current when the
	// send fires.
	navigate("/first")
	navigate("/second")
	Flush()

	if len(visited) != 2 || visited[0] != "/first" || visited[1] != "/second" {
		t.Fatalf("navigation callback saw %v, want [/first /second]", visited)
	}

	events := c.events()
	if len(events) != 2 {
		t.Fatalf("received %d events, want 2", len(events))
	}

	paths := []string{events[0].Path, events[1].Path}
	sort.Strings(paths)
	if paths[0] != "/first" || paths[1] != "/second" {
		t.Errorf("pageview paths = %v, want [/first /second]", paths)
	}
	for _, e := range events {
		if e.EventType != models.EventTypePageview {
			t.Errorf("eventType = %q, want pageview", e.EventType)
		}
	}
}

func TestTrackWithoutInitIsNoOp(t *testing.T) {
	Reset()

	// Must not panic or block.
	TrackPageView("/anywhere")
	TrackEvent("click", "/anywhere", nil)
	Flush()
}

func TestSessionIDStableAcrossEvents(t *testing.T) {
	defer Reset()

	c := &collector{}
	srv := httptest.NewServer(c.handler())
	defer srv.Close()

	if err := Init(Config{Endpoint: srv.URL, Domain: "blog.example"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	TrackPageView("/a")
	TrackPageView("/b")
	Flush()

	events := c.events()
	if len(events) != 2 {
		t.Fatalf("received %d events, want 2", len(events))
	}
	if events[0].SessionID != events[1].SessionID {
		t.Errorf("session IDs differ within one process: %q vs %q",
			events[0].SessionID, events[1].SessionID)
	}

	// Re-init starts a new session.
	old := events[0].SessionID
	if err := Init(Config{Endpoint: srv.URL, Domain: "blog.example"}); err != nil {
		t.Fatalf("re-Init failed: %v", err)
	}
	TrackPageView("/c")
	Flush()

	events = c.events()
	if events[2].SessionID == old {
		t.Error("session ID survived re-initialization")
	}
}
