// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 8787 {
		t.Errorf("server.port = %d, want 8787", cfg.Server.Port)
	}
	if cfg.Database.Path != "/data/sitebeacon.db" {
		t.Errorf("database.path = %q, want /data/sitebeacon.db", cfg.Database.Path)
	}
	if cfg.Auth.CookieName != "sitebeacon_session" {
		t.Errorf("auth.cookie_name = %q, want sitebeacon_session", cfg.Auth.CookieName)
	}
	if cfg.Auth.SessionTTL != 24*time.Hour {
		t.Errorf("auth.session_ttl = %v, want 24h", cfg.Auth.SessionTTL)
	}
	if cfg.Ingest.MaxBodyBytes != 64*1024 {
		t.Errorf("ingest.max_body_bytes = %d, want 65536", cfg.Ingest.MaxBodyBytes)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "*" {
		t.Errorf("cors.allowed_origins = %v, want [*]", cfg.CORS.AllowedOrigins)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("logging.level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DUCKDB_PATH", ":memory:")
	t.Setenv("INGEST_API_KEY", "an-api-key-longer-than-16")
	t.Setenv("INGEST_DEFAULT_OWNER", "my-blog")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090 from HTTP_PORT", cfg.Server.Port)
	}
	if cfg.Database.Path != ":memory:" {
		t.Errorf("database.path = %q, want :memory:", cfg.Database.Path)
	}
	if cfg.Ingest.APIKey != "an-api-key-longer-than-16" {
		t.Errorf("ingest.api_key = %q, want value from INGEST_API_KEY", cfg.Ingest.APIKey)
	}
	if cfg.Ingest.DefaultOwner != "my-blog" {
		t.Errorf("ingest.default_owner = %q, want my-blog", cfg.Ingest.DefaultOwner)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadUnknownEnvDropped(t *testing.T) {
	t.Setenv("RANDOM_PROCESS_VAR", "should-not-leak")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.Port != 8787 {
		t.Errorf("unrelated env var changed the config: port = %d", cfg.Server.Port)
	}
}

func TestLoadCORSOriginsFromEnv(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.CORS.AllowedOrigins) != len(want) {
		t.Fatalf("cors.allowed_origins = %v, want %v", cfg.CORS.AllowedOrigins, want)
	}
	for i, origin := range want {
		if cfg.CORS.AllowedOrigins[i] != origin {
			t.Errorf("cors.allowed_origins[%d] = %q, want %q", i, cfg.CORS.AllowedOrigins[i], origin)
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sitebeacon.yaml")
	content := []byte(`
server:
  port: 3000
ingest:
  default_owner: file-owner
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server.port = %d, want 3000 from file", cfg.Server.Port)
	}
	if cfg.Ingest.DefaultOwner != "file-owner" {
		t.Errorf("ingest.default_owner = %q, want file-owner", cfg.Ingest.DefaultOwner)
	}
	// Untouched keys keep their defaults.
	if cfg.Database.Path != "/data/sitebeacon.db" {
		t.Errorf("database.path = %q, want default", cfg.Database.Path)
	}
}

func TestLoadEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sitebeacon.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 3000\n"), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "4000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("server.port = %d, want 4000 (env beats file)", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(*Config) {}, false},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"empty db path", func(c *Config) { c.Database.Path = "" }, true},
		{"short jwt secret", func(c *Config) { c.Auth.JWTSecret = "short" }, true},
		{"long jwt secret ok", func(c *Config) { c.Auth.JWTSecret = "0123456789abcdef0123456789abcdef" }, false},
		{"zero max body", func(c *Config) { c.Ingest.MaxBodyBytes = 0 }, true},
		{"zero owner rate", func(c *Config) { c.Ingest.OwnerRatePerSecond = 0 }, true},
		{"zero owner burst", func(c *Config) { c.Ingest.OwnerBurst = 0 }, true},
		{"short api key", func(c *Config) { c.Ingest.APIKey = "tooshort" }, true},
		{"zero session ttl", func(c *Config) { c.Auth.SessionTTL = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
