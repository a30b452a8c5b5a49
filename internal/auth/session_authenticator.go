// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sitebeacon/sitebeacon/internal/logging"
)

// SessionAuthenticator validates the first-party session cookie.
//
// On routes that also accept API keys, a stale or invalid cookie must
// not block the caller: embedded trackers send cookies for the service
// origin automatically, and a leftover expired session would otherwise
// lock out a perfectly valid x-api-key request. Strict mode restores
// fatal behavior for dashboard-only routes.
type SessionAuthenticator struct {
	jwtManager *JWTManager
	cookieName string

	// strict maps invalid/expired cookies to fatal errors instead of
	// degrading them to ErrNoCredentials.
	strict bool
}

// NewSessionAuthenticator creates a session authenticator in lenient
// mode, suitable for the ingest chain.
func NewSessionAuthenticator(jwtManager *JWTManager, cookieName string) *SessionAuthenticator {
	return &SessionAuthenticator{
		jwtManager: jwtManager,
		cookieName: cookieName,
		strict:     false,
	}
}

// NewStrictSessionAuthenticator creates a session authenticator that
// treats bad cookies as fatal. Used on dashboard routes where the
// session is the only expected credential.
func NewStrictSessionAuthenticator(jwtManager *JWTManager, cookieName string) *SessionAuthenticator {
	return &SessionAuthenticator{
		jwtManager: jwtManager,
		cookieName: cookieName,
		strict:     true,
	}
}

// Authenticate validates the session cookie on the request.
func (a *SessionAuthenticator) Authenticate(ctx context.Context, r *http.Request) (*AuthSubject, error) {
	cookie, err := r.Cookie(a.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoCredentials
	}

	claims, err := a.jwtManager.ValidateToken(cookie.Value)
	if err != nil {
		logging.Ctx(ctx).Debug().Str("authenticator", a.Name()).Msg("Session cookie rejected")

		if a.strict {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return nil, ErrExpiredCredentials
			}
			return nil, ErrInvalidCredentials
		}
		// Lenient mode: fall through to the next authenticator.
		return nil, ErrNoCredentials
	}

	subject := &AuthSubject{
		ID:         claims.Username,
		Username:   claims.Username,
		OwnerID:    claims.Username,
		AuthMethod: AuthModeSession,
	}
	if claims.IssuedAt != nil {
		subject.IssuedAt = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		subject.ExpiresAt = claims.ExpiresAt.Unix()
	}

	return subject, nil
}

// Name returns the authenticator name.
func (a *SessionAuthenticator) Name() string {
	return string(AuthModeSession)
}

// Priority returns the authenticator priority.
// Sessions are tried before API keys.
func (a *SessionAuthenticator) Priority() int {
	return 10
}
