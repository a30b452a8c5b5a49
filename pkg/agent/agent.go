// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

// Package agent is the Go instrumentation SDK for server-rendered host
// applications. It mirrors the browser tracker's contract: Init once,
// then TrackPageView/TrackEvent fire events without ever blocking or
// failing the host request path.
//
// Example:
//
//	agent.Init(agent.Config{
//	    Endpoint: "https://analytics.example.com/api/v1/events",
//	    APIKey:   os.Getenv("SITEBEACON_API_KEY"),
//	    Domain:   "blog.example",
//	})
//	agent.TrackPageView("/posts/42")
package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/sitebeacon/sitebeacon/internal/logging"
	"github.com/sitebeacon/sitebeacon/internal/models"
)

// Config configures the module-scoped agent.
type Config struct {
	// Endpoint is the full ingest URL, e.g.
	// "https://analytics.example.com/api/v1/events". Required.
	Endpoint string

	// APIKey is sent in the X-API-Key header. Required for
	// server-side callers, which have no session cookie.
	APIKey string

	// Owner attributes events to a specific owner via the payload's
	// userId field. Empty falls back to the server's default owner.
	Owner string

	// Domain is the site being instrumented. Required.
	Domain string

	// HTTPClient overrides the transport. Defaults to a client with a
	// 5 second timeout.
	HTTPClient *http.Client

	// Timeout bounds each send when HTTPClient is nil.
	Timeout time.Duration
}

const defaultSendTimeout = 5 * time.Second

// agentState is the module-scoped instrumentation state. All access
// goes through the package mutex.
type agentState struct {
	cfg       Config
	client    *http.Client
	sessionID string
	inflight  sync.WaitGroup
}

var (
	mu    sync.Mutex
	state *agentState
)

// Init configures the agent. Calling Init again replaces the previous
// configuration and starts a new session.
func Init(cfg Config) error {
	if cfg.Endpoint == "" {
		return errors.New("agent: endpoint is required")
	}
	if cfg.Domain == "" {
		return errors.New("agent: domain is required")
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultSendTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	mu.Lock()
	defer mu.Unlock()

	state = &agentState{
		cfg:       cfg,
		client:    client,
		sessionID: newSessionID(),
	}
	return nil
}

// Reset clears the agent state. Subsequent Track calls are no-ops
// until Init is called again.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	state = nil
}

// newSessionID builds a session identifier from the current time and
// a random fragment, matching the browser tracker's shape.
func newSessionID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
}

// TrackPageView records a pageview for the given path. The send is
// detached; the call returns immediately.
func TrackPageView(path string) {
	track(models.EventTypePageview, path, nil)
}

// TrackEvent records a non-pageview event at the given path. Event
// types other than "pageview", "click", or "custom" are rejected by
// the server, so unknown types are coerced to "custom".
func TrackEvent(eventType, path string, metadata map[string]interface{}) {
	if !models.ValidEventType(eventType) {
		eventType = models.EventTypeCustom
	}
	track(eventType, path, metadata)
}

// WrapNavigation wraps a navigation function so each invocation also
// emits a pageview for the destination. The path is captured at call
// time, before the deferred emission runs, so two quick navigations
// each report their own destination.
func WrapNavigation(navigate func(path string)) func(path string) {
	return func(path string) {
		if navigate != nil {
			navigate(path)
		}
		track(models.EventTypePageview, path, nil)
	}
}

// Flush blocks until all detached sends started so far have finished.
// Intended for host shutdown hooks and tests.
func Flush() {
	mu.Lock()
	s := state
	mu.Unlock()

	if s != nil {
		s.inflight.Wait()
	}
}

// track snapshots the current state and dispatches the event on a
// separate goroutine. An uninitialized agent drops events silently.
func track(eventType, path string, metadata map[string]interface{}) {
	mu.Lock()
	s := state
	mu.Unlock()

	if s == nil {
		return
	}

	req := &models.IngestRequest{
		EventType: eventType,
		Domain:    s.cfg.Domain,
		Path:      path,
		SessionID: s.sessionID,
		UserID:    s.cfg.Owner,
		Metadata:  metadata,
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				logging.Debug().Interface("panic", r).Msg("Agent send panicked")
			}
		}()

		if err := send(s, req); err != nil {
			logging.Debug().
				Err(err).
				Str("event_type", eventType).
				Str("path", path).
				Msg("Agent send failed")
		}
	}()
}

// send posts one event to the ingest endpoint.
func send(s *agentState, req *models.IngestRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		context.Background(), http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		httpReq.Header.Set("X-API-Key", s.cfg.APIKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ingest returned status %d", resp.StatusCode)
	}
	return nil
}
