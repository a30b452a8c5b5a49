// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

package auth

import (
	"context"
	"errors"
	"net/http"
	"sort"
)

// MultiAuthenticator tries multiple authenticators in priority order.
// It implements a chain of responsibility where each authenticator is
// tried until one succeeds or returns a fatal error. There is never an
// anonymous fallthrough: when every mode reports ErrNoCredentials the
// chain fails with ErrNoCredentials.
//
// Error handling:
//   - ErrNoCredentials: try next authenticator
//   - ErrInvalidCredentials: stop and return error (credentials were provided but invalid)
//   - ErrExpiredCredentials: stop and return error
//   - Other errors: stop and return error
//
// The chain is fixed at construction and safe for concurrent use.
type MultiAuthenticator struct {
	authenticators []Authenticator
}

// NewMultiAuthenticator creates a multi-authenticator with the given
// authenticators, sorted by priority (lower number = tried first).
func NewMultiAuthenticator(authenticators ...Authenticator) *MultiAuthenticator {
	m := &MultiAuthenticator{
		authenticators: make([]Authenticator, 0, len(authenticators)),
	}

	m.authenticators = append(m.authenticators, authenticators...)
	m.sortByPriority()

	return m
}

// Authenticate tries each authenticator in priority order.
func (m *MultiAuthenticator) Authenticate(ctx context.Context, r *http.Request) (*AuthSubject, error) {
	if len(m.authenticators) == 0 {
		return nil, ErrNoCredentials
	}

	lastErr := error(ErrNoCredentials)

	for _, auth := range m.authenticators {
		subject, err := auth.Authenticate(ctx, r)
		if err == nil {
			return subject, nil
		}

		lastErr = err

		if errors.Is(err, ErrNoCredentials) {
			continue
		}

		// Fatal error - stop trying
		return nil, err
	}

	return nil, lastErr
}

// Name returns the authenticator name.
func (m *MultiAuthenticator) Name() string {
	return string(AuthModeMulti)
}

// Priority returns the authenticator priority.
// Multi-auth always has highest priority (0) since it wraps other authenticators.
func (m *MultiAuthenticator) Priority() int {
	return 0
}

// sortByPriority sorts authenticators by priority (lower number first).
func (m *MultiAuthenticator) sortByPriority() {
	sort.Slice(m.authenticators, func(i, j int) bool {
		return m.authenticators[i].Priority() < m.authenticators[j].Priority()
	})
}
