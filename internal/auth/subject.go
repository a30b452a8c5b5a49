// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

// Package auth provides request authentication for the ingest and
// dashboard surfaces. Two credential modes are supported: first-party
// session cookies (JWT) and the shared x-api-key header. The multi
// authenticator chains them in that order.
package auth

import (
	"context"
	"errors"
	"net/http"
)

// AuthMode represents the authentication strategy.
type AuthMode string

const (
	// AuthModeSession uses the first-party session cookie (JWT).
	AuthModeSession AuthMode = "session"

	// AuthModeAPIKey uses the shared x-api-key header.
	AuthModeAPIKey AuthMode = "apikey"

	// AuthModeMulti tries session then API key.
	AuthModeMulti AuthMode = "multi"
)

// String returns the string representation of AuthMode.
func (m AuthMode) String() string {
	return string(m)
}

// Standard authentication errors
var (
	// ErrNoCredentials indicates no credentials were provided.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials indicates credentials were invalid.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrExpiredCredentials indicates credentials have expired.
	ErrExpiredCredentials = errors.New("credentials expired")
)

// Authenticator defines the interface for authentication providers.
type Authenticator interface {
	// Authenticate extracts and validates credentials from the request.
	// Returns AuthSubject on success, error on failure.
	Authenticate(ctx context.Context, r *http.Request) (*AuthSubject, error)

	// Name returns the authenticator's name for logging.
	Name() string

	// Priority returns the authenticator's priority for multi-mode.
	// Lower values are tried first.
	Priority() int
}

// AuthSubject represents an authenticated caller.
// It normalizes the two credential modes into one shape for handlers.
type AuthSubject struct {
	// ID is the unique identifier for this subject.
	// For sessions: the username from the token.
	// For API keys: the configured default owner.
	ID string `json:"id"`

	// Username is the human-readable name, empty for API-key callers.
	Username string `json:"username,omitempty"`

	// OwnerID is the owner events are attributed to by default.
	OwnerID string `json:"ownerId"`

	// AllowOwnerOverride is true when the caller may attribute events
	// to a different owner via the request body. Only API-key callers
	// get this; session callers always write as themselves.
	AllowOwnerOverride bool `json:"-"`

	// AuthMethod indicates how the subject was authenticated.
	AuthMethod AuthMode `json:"authMethod"`

	// IssuedAt is when the credential was issued (unix seconds).
	IssuedAt int64 `json:"issuedAt,omitempty"`

	// ExpiresAt is when the credential expires (unix seconds).
	ExpiresAt int64 `json:"expiresAt,omitempty"`
}
