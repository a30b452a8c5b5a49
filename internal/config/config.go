// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

// Package config defines the layered service configuration.
//
// Values are resolved in order of precedence:
//
//  1. Environment variables (highest)
//  2. YAML config file
//  3. Built-in defaults (lowest)
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the root configuration for the service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Privacy   PrivacyConfig   `koanf:"privacy"`
	CORS      CORSConfig      `koanf:"cors"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file path. ":memory:" runs fully in memory.
	Path      string `koanf:"path"`
	Threads   int    `koanf:"threads"`
	MaxMemory string `koanf:"max_memory"`
}

// AuthConfig holds first-party session settings.
type AuthConfig struct {
	// JWTSecret signs session tokens. Must be at least 32 bytes.
	JWTSecret string `koanf:"jwt_secret"`

	// AdminUsername and AdminPasswordHash (bcrypt) are the dashboard
	// credentials accepted by the login endpoint.
	AdminUsername     string `koanf:"admin_username"`
	AdminPasswordHash string `koanf:"admin_password_hash"`

	SessionTTL   time.Duration `koanf:"session_ttl"`
	CookieName   string        `koanf:"cookie_name"`
	CookieSecure bool          `koanf:"cookie_secure"`
}

// IngestConfig holds ingestion gateway settings.
type IngestConfig struct {
	// APIKey is the shared secret accepted in the x-api-key header.
	// Empty disables API-key mode entirely.
	APIKey string `koanf:"api_key"`

	// DefaultOwner is the owner events are attributed to when a caller
	// authenticates via API key without supplying a userId.
	DefaultOwner string `koanf:"default_owner"`

	// MaxBodyBytes caps the accepted request body size.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// OwnerRatePerSecond and OwnerBurst bound the per-owner token bucket
	// applied ahead of the store write.
	OwnerRatePerSecond float64 `koanf:"owner_rate_per_second"`
	OwnerBurst         int     `koanf:"owner_burst"`
}

// PrivacyConfig holds anonymization settings.
type PrivacyConfig struct {
	// IPHashSecret keys the one-way address digest. When empty a random
	// per-process key is generated and tokens do not survive restarts.
	IPHashSecret string `koanf:"ip_hash_secret"`
}

// CORSConfig holds cross-origin settings for the dashboard API.
// The ingest route is intentionally permissive and does not use this.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// RateLimitConfig holds per-IP rate limits applied by route group.
type RateLimitConfig struct {
	APIRequests  int           `koanf:"api_requests"`
	APIWindow    time.Duration `koanf:"api_window"`
	AuthRequests int           `koanf:"auth_requests"`
	AuthWindow   time.Duration `koanf:"auth_window"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that cannot work at
// runtime. It is called after all layers have been merged.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database.path must not be empty")
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters, got %d", len(c.Auth.JWTSecret))
	}
	if c.Ingest.MaxBodyBytes <= 0 {
		return fmt.Errorf("ingest.max_body_bytes must be positive, got %d", c.Ingest.MaxBodyBytes)
	}
	if c.Ingest.OwnerRatePerSecond <= 0 {
		return fmt.Errorf("ingest.owner_rate_per_second must be positive, got %v", c.Ingest.OwnerRatePerSecond)
	}
	if c.Ingest.OwnerBurst < 1 {
		return fmt.Errorf("ingest.owner_burst must be at least 1, got %d", c.Ingest.OwnerBurst)
	}
	if c.Ingest.APIKey != "" && len(c.Ingest.APIKey) < 16 {
		return fmt.Errorf("ingest.api_key must be at least 16 characters, got %d", len(c.Ingest.APIKey))
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive, got %v", c.Auth.SessionTTL)
	}
	return nil
}
