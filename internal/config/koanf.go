// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

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

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/scadenza/config.yaml",
	"/etc/scadenza/config.yml",
}

// ConfigPathEnvVar overrides the config file search when set.
const ConfigPathEnvVar = "SCADENZA_CONFIG"

// defaultConfig returns a Config with defaults suitable for a first run.
// The admin credentials match the account seeded into an empty store and
// should be changed immediately in any real deployment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    3000,
			Timeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			JWTSecret:       "",
			SessionTimeout:  24 * time.Hour,
			AdminUsername:   "admin",
			AdminPassword:   "SERISRL25%",
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Storage: StorageConfig{
			Path:     "/data/scadenza",
			InMemory: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Scheduler: SchedulerConfig{
			Interval:   time.Minute,
			WidenMatch: false,
		},
		Client: ClientConfig{
			ServerURL:      "",
			StatePath:      "",
			RequestTimeout: 10 * time.Second,
			RememberDevice: false,
		},
	}
}

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

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

// findConfigFile searches for a config file, honoring the env override.
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
// comma-separated slices when they arrive as env var strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables return an empty string and are skipped, so stray
// environment noise cannot pollute the configuration.
//
// Examples:
//   - SCADENZA_HTTP_PORT -> server.port
//   - SCADENZA_JWT_SECRET -> security.jwt_secret
//   - SCADENZA_LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"scadenza_http_host":    "server.host",
		"scadenza_http_port":    "server.port",
		"scadenza_http_timeout": "server.timeout",

		// Security mappings
		"scadenza_jwt_secret":        "security.jwt_secret",
		"scadenza_session_timeout":   "security.session_timeout",
		"scadenza_admin_username":    "security.admin_username",
		"scadenza_admin_password":    "security.admin_password",
		"scadenza_rate_limit_reqs":   "security.rate_limit_reqs",
		"scadenza_rate_limit_window": "security.rate_limit_window",
		"scadenza_cors_origins":      "security.cors_origins",

		// Storage mappings
		"scadenza_data_path": "storage.path",
		"scadenza_in_memory": "storage.in_memory",

		// Logging mappings
		"scadenza_log_level":  "logging.level",
		"scadenza_log_format": "logging.format",

		// Scheduler mappings
		"scadenza_scheduler_interval": "scheduler.interval",
		"scadenza_widen_match":        "scheduler.widen_match",

		// Client mappings
		"scadenza_server_url":      "client.server_url",
		"scadenza_state_path":      "client.state_path",
		"scadenza_request_timeout": "client.request_timeout",
		"scadenza_remember_device": "client.remember_device",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}
