// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const (
	testJWTSecret  = "test-jwt-secret-at-least-32-characters"
	testCookieName = "sitebeacon_session"
	testAPIKey     = "integration-shared-secret-key"
)

func newTestJWTManager(t *testing.T, ttl time.Duration) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(testJWTSecret, ttl)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	return m
}

func requestWithSession(t *testing.T, m *JWTManager, username string) *http.Request {
	t.Helper()
	token, err := m.GenerateToken(username)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	r := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
	r.AddCookie(&http.Cookie{Name: testCookieName, Value: token})
	return r
}

func TestSessionAuthenticatorValidCookie(t *testing.T) {
	t.Parallel()

	m := newTestJWTManager(t, time.Hour)
	a := NewSessionAuthenticator(m, testCookieName)

	subject, err := a.Authenticate(context.Background(), requestWithSession(t, m, "alice"))
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if subject.OwnerID != "alice" {
		t.Errorf("OwnerID = %q, want %q", subject.OwnerID, "alice")
	}
	if subject.AuthMethod != AuthModeSession {
		t.Errorf("AuthMethod = %q, want %q", subject.AuthMethod, AuthModeSession)
	}
	if subject.AllowOwnerOverride {
		t.Error("session subjects must not allow owner override")
	}
}

func TestSessionAuthenticatorNoCookie(t *testing.T) {
	t.Parallel()

	a := NewSessionAuthenticator(newTestJWTManager(t, time.Hour), testCookieName)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)

	_, err := a.Authenticate(context.Background(), r)
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("err = %v, want ErrNoCredentials", err)
	}
}

func TestSessionAuthenticatorGarbageCookieLenient(t *testing.T) {
	t.Parallel()

	a := NewSessionAuthenticator(newTestJWTManager(t, time.Hour), testCookieName)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
	r.AddCookie(&http.Cookie{Name: testCookieName, Value: "not-a-jwt"})

	_, err := a.Authenticate(context.Background(), r)
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("lenient mode err = %v, want ErrNoCredentials", err)
	}
}

func TestSessionAuthenticatorGarbageCookieStrict(t *testing.T) {
	t.Parallel()

	a := NewStrictSessionAuthenticator(newTestJWTManager(t, time.Hour), testCookieName)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/summary", nil)
	r.AddCookie(&http.Cookie{Name: testCookieName, Value: "not-a-jwt"})

	_, err := a.Authenticate(context.Background(), r)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("strict mode err = %v, want ErrInvalidCredentials", err)
	}
}

func TestAPIKeyAuthenticator(t *testing.T) {
	t.Parallel()

	a := NewAPIKeyAuthenticator(testAPIKey, "owner-1")

	t.Run("valid key", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
		r.Header.Set(APIKeyHeader, testAPIKey)

		subject, err := a.Authenticate(context.Background(), r)
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if subject.OwnerID != "owner-1" {
			t.Errorf("OwnerID = %q, want %q", subject.OwnerID, "owner-1")
		}
		if !subject.AllowOwnerOverride {
			t.Error("API key subjects must allow owner override")
		}
	})

	t.Run("wrong key is fatal", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
		r.Header.Set(APIKeyHeader, "wrong-key")

		_, err := a.Authenticate(context.Background(), r)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("err = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)

		_, err := a.Authenticate(context.Background(), r)
		if !errors.Is(err, ErrNoCredentials) {
			t.Errorf("err = %v, want ErrNoCredentials", err)
		}
	})
}

func TestAPIKeyAuthenticatorDisabled(t *testing.T) {
	t.Parallel()

	a := NewAPIKeyAuthenticator("", "owner-1")
	r := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
	r.Header.Set(APIKeyHeader, "anything")

	_, err := a.Authenticate(context.Background(), r)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestMultiAuthenticatorSessionTriedFirst(t *testing.T) {
	t.Parallel()

	m := newTestJWTManager(t, time.Hour)
	multi := NewMultiAuthenticator(
		NewAPIKeyAuthenticator(testAPIKey, "integration-owner"),
		NewSessionAuthenticator(m, testCookieName),
	)

	// Request carries both credentials; the session wins.
	r := requestWithSession(t, m, "alice")
	r.Header.Set(APIKeyHeader, testAPIKey)

	subject, err := multi.Authenticate(context.Background(), r)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if subject.AuthMethod != AuthModeSession {
		t.Errorf("AuthMethod = %q, want session to win", subject.AuthMethod)
	}
}

func TestMultiAuthenticatorStaleCookieFallsThroughToAPIKey(t *testing.T) {
	t.Parallel()

	m := newTestJWTManager(t, time.Hour)
	multi := NewMultiAuthenticator(
		NewSessionAuthenticator(m, testCookieName),
		NewAPIKeyAuthenticator(testAPIKey, "integration-owner"),
	)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
	r.AddCookie(&http.Cookie{Name: testCookieName, Value: "stale-garbage"})
	r.Header.Set(APIKeyHeader, testAPIKey)

	subject, err := multi.Authenticate(context.Background(), r)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if subject.AuthMethod != AuthModeAPIKey {
		t.Errorf("AuthMethod = %q, want apikey after stale cookie", subject.AuthMethod)
	}
}

func TestMultiAuthenticatorNoCredentials(t *testing.T) {
	t.Parallel()

	m := newTestJWTManager(t, time.Hour)
	multi := NewMultiAuthenticator(
		NewSessionAuthenticator(m, testCookieName),
		NewAPIKeyAuthenticator(testAPIKey, "integration-owner"),
	)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)

	_, err := multi.Authenticate(context.Background(), r)
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("err = %v, want ErrNoCredentials", err)
	}
}

func TestMultiAuthenticatorInvalidAPIKeyIsFatal(t *testing.T) {
	t.Parallel()

	m := newTestJWTManager(t, time.Hour)
	multi := NewMultiAuthenticator(
		NewSessionAuthenticator(m, testCookieName),
		NewAPIKeyAuthenticator(testAPIKey, "integration-owner"),
	)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
	r.Header.Set(APIKeyHeader, "wrong-key")

	_, err := multi.Authenticate(context.Background(), r)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestJWTManagerRejectsForeignToken(t *testing.T) {
	t.Parallel()

	m := newTestJWTManager(t, time.Hour)
	token, err := m.GenerateToken("alice")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := m.ValidateToken(token); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}

	// Token signed with a different secret must be rejected.
	other, err := NewJWTManager("another-secret-that-is-32-chars-long!", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("token validated with wrong secret")
	}
}
