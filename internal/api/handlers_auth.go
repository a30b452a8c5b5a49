// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

package api

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/sitebeacon/sitebeacon/internal/logging"
	"github.com/sitebeacon/sitebeacon/internal/validation"
)

// LoginRequest is the payload for POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=128"`
	Password string `json:"password" validate:"required,max=256"`
}

// LoginResponse is returned on successful login. The session token is
// delivered only via the HTTP-only cookie, never in the body.
type LoginResponse struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login handles POST /api/v1/auth/login. Credentials are checked
// against the configured admin username and bcrypt password hash; on
// success a signed session token is set as an HTTP-only cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	if h.jwt == nil || h.authCfg.AdminUsername == "" || h.authCfg.AdminPasswordHash == "" {
		rw.ServiceUnavailable("Session authentication is not configured")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Invalid JSON body")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	usernameMatch := subtle.ConstantTimeCompare(
		[]byte(req.Username), []byte(h.authCfg.AdminUsername)) == 1
	passwordErr := bcrypt.CompareHashAndPassword(
		[]byte(h.authCfg.AdminPasswordHash), []byte(req.Password))

	// Both checks always run so timing does not reveal which one failed.
	if !usernameMatch || passwordErr != nil {
		logging.Ctx(ctx).Warn().
			Str("username", req.Username).
			Str("remote", clientAddress(r)).
			Msg("Login failed")
		rw.Unauthorized("Invalid username or password")
		return
	}

	token, err := h.jwt.GenerateToken(req.Username)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to generate session token")
		rw.InternalError("Failed to create session")
		return
	}

	expires := time.Now().Add(h.jwt.TTL())
	http.SetCookie(w, &http.Cookie{
		Name:     h.authCfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.authCfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	logging.Ctx(ctx).Info().
		Str("username", req.Username).
		Msg("Login successful")

	rw.Success(LoginResponse{
		Username:  req.Username,
		ExpiresAt: expires.UTC(),
	})
}

// Logout handles POST /api/v1/auth/logout by expiring the session
// cookie. Tokens are stateless, so an already-issued token remains
// technically valid until its expiry; the cookie removal is what ends
// the browser session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	http.SetCookie(w, &http.Cookie{
		Name:     h.authCfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.authCfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	rw.Success(map[string]string{"status": "logged out"})
}

// Me handles GET /api/v1/auth/me, returning the authenticated subject.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	subject, err := h.dashAuth.Authenticate(r.Context(), r)
	if err != nil {
		rw.Unauthorized("Authentication required")
		return
	}

	rw.Success(subject)
}
