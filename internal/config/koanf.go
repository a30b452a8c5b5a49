// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names the environment variable that points at an
// explicit config file.
const ConfigPathEnvVar = "SITEBEACON_CONFIG"

// DefaultConfigPaths are searched in order when no explicit path is set.
var DefaultConfigPaths = []string{
	"sitebeacon.yaml",
	"config/sitebeacon.yaml",
	"/etc/sitebeacon/config.yaml",
	"/data/config.yaml",
}

// defaultConfig returns the built-in defaults, the lowest-precedence
// configuration layer.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8787,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/sitebeacon.db",
			Threads:   4,
			MaxMemory: "1GB",
		},
		Auth: AuthConfig{
			JWTSecret:         "",
			AdminUsername:     "admin",
			AdminPasswordHash: "",
			SessionTTL:        24 * time.Hour,
			CookieName:        "sitebeacon_session",
			CookieSecure:      true,
		},
		Ingest: IngestConfig{
			APIKey:             "",
			DefaultOwner:       "",
			MaxBodyBytes:       64 * 1024,
			OwnerRatePerSecond: 50,
			OwnerBurst:         100,
		},
		Privacy: PrivacyConfig{
			IPHashSecret: "",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		RateLimit: RateLimitConfig{
			APIRequests:  120,
			APIWindow:    1 * time.Minute,
			AuthRequests: 10,
			AuthWindow:   1 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if found)
//  3. Environment variables: override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	// HTTP_PORT -> server.port, INGEST_API_KEY -> ingest.api_key, etc.
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Comma-separated env values for slice fields
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are parsed as
// comma-separated values when sourced from environment variables.
var sliceConfigPaths = []string{
	"cors.allowed_origins",
}

// processSliceFields converts comma-separated string values to slices
// for known slice fields. Env vars come in as strings but the config
// struct expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML or defaults)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config
// paths. Unknown variables are dropped (empty return) so arbitrary
// process environment does not leak into the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"http_host":             "server.host",
		"http_port":             "server.port",
		"http_read_timeout":     "server.read_timeout",
		"http_write_timeout":    "server.write_timeout",
		"http_idle_timeout":     "server.idle_timeout",
		"http_shutdown_timeout": "server.shutdown_timeout",

		// Database
		"duckdb_path":       "database.path",
		"duckdb_threads":    "database.threads",
		"duckdb_max_memory": "database.max_memory",

		// Auth
		"jwt_secret":          "auth.jwt_secret",
		"admin_username":      "auth.admin_username",
		"admin_password_hash": "auth.admin_password_hash",
		"session_ttl":         "auth.session_ttl",
		"session_cookie_name": "auth.cookie_name",
		"cookie_secure":       "auth.cookie_secure",

		// Ingest
		"ingest_api_key":        "ingest.api_key",
		"ingest_default_owner":  "ingest.default_owner",
		"ingest_max_body_bytes": "ingest.max_body_bytes",
		"ingest_owner_rate":     "ingest.owner_rate_per_second",
		"ingest_owner_burst":    "ingest.owner_burst",

		// Privacy
		"ip_hash_secret": "privacy.ip_hash_secret",

		// CORS (dashboard API only; ingest is always permissive)
		"cors_origins": "cors.allowed_origins",

		// Rate limits
		"rate_limit_api_requests":  "rate_limit.api_requests",
		"rate_limit_api_window":    "rate_limit.api_window",
		"rate_limit_auth_requests": "rate_limit.auth_requests",
		"rate_limit_auth_window":   "rate_limit.auth_window",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
