// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
)

// APIKeyHeader is the header carrying the shared ingestion secret.
const APIKeyHeader = "X-API-Key"

// APIKeyAuthenticator validates the shared x-api-key header.
// Callers authenticated this way may attribute events to any owner
// via the request body (server-to-server integrations act on behalf
// of their own users).
type APIKeyAuthenticator struct {
	key          []byte
	defaultOwner string
}

// NewAPIKeyAuthenticator creates an API key authenticator.
// An empty key disables the mode: every request yields ErrNoCredentials.
func NewAPIKeyAuthenticator(key, defaultOwner string) *APIKeyAuthenticator {
	return &APIKeyAuthenticator{
		key:          []byte(key),
		defaultOwner: defaultOwner,
	}
}

// Authenticate validates the x-api-key header on the request.
func (a *APIKeyAuthenticator) Authenticate(_ context.Context, r *http.Request) (*AuthSubject, error) {
	presented := r.Header.Get(APIKeyHeader)
	if presented == "" {
		return nil, ErrNoCredentials
	}

	if len(a.key) == 0 {
		// Mode disabled; a presented key cannot be valid.
		return nil, ErrInvalidCredentials
	}

	if subtle.ConstantTimeCompare([]byte(presented), a.key) != 1 {
		return nil, ErrInvalidCredentials
	}

	return &AuthSubject{
		ID:                 a.defaultOwner,
		OwnerID:            a.defaultOwner,
		AllowOwnerOverride: true,
		AuthMethod:         AuthModeAPIKey,
	}, nil
}

// Name returns the authenticator name.
func (a *APIKeyAuthenticator) Name() string {
	return string(AuthModeAPIKey)
}

// Priority returns the authenticator priority.
// API keys are tried after sessions.
func (a *APIKeyAuthenticator) Priority() int {
	return 20
}
