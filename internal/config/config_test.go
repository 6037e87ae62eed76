// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("expected default port 3000, got %d", cfg.Server.Port)
	}
	if cfg.Server.Addr() != "0.0.0.0:3000" {
		t.Errorf("unexpected addr %q", cfg.Server.Addr())
	}
	if cfg.Security.AdminUsername != "admin" {
		t.Errorf("unexpected admin username %q", cfg.Security.AdminUsername)
	}
	if cfg.Security.SessionTimeout != 24*time.Hour {
		t.Errorf("unexpected session timeout %v", cfg.Security.SessionTimeout)
	}
	if cfg.Scheduler.Interval != time.Minute || cfg.Scheduler.WidenMatch {
		t.Errorf("unexpected scheduler defaults: %+v", cfg.Scheduler)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SCADENZA_HTTP_PORT", "8080")
	t.Setenv("SCADENZA_LOG_LEVEL", "debug")
	t.Setenv("SCADENZA_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SCADENZA_WIDEN_MATCH", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level debug, got %q", cfg.Logging.Level)
	}
	if !cfg.Scheduler.WidenMatch {
		t.Error("expected widen_match true")
	}

	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Security.CORSOrigins) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.Security.CORSOrigins)
	}
	for i := range want {
		if cfg.Security.CORSOrigins[i] != want[i] {
			t.Errorf("origin %d: expected %q, got %q", i, want[i], cfg.Security.CORSOrigins[i])
		}
	}
}

func TestLoad_UnmappedEnvIgnored(t *testing.T) {
	t.Setenv("SCADENZA_BOGUS_SETTING", "whatever")

	if _, err := Load(); err != nil {
		t.Fatalf("unmapped env vars must be ignored, got %v", err)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := strings.Join([]string{
		"server:",
		"  port: 4000",
		"logging:",
		"  level: warn",
		"client:",
		"  server_url: http://deadline.example:4000",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("expected port 4000 from file, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected level warn from file, got %q", cfg.Logging.Level)
	}
	if cfg.Client.ServerURL != "http://deadline.example:4000" {
		t.Errorf("unexpected server url %q", cfg.Client.ServerURL)
	}

	// Env still beats the file.
	t.Setenv("SCADENZA_HTTP_PORT", "5000")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("expected env to override the file, got %d", cfg.Server.Port)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad timeout", func(c *Config) { c.Server.Timeout = 0 }, "server.timeout"},
		{"empty admin username", func(c *Config) { c.Security.AdminUsername = "" }, "admin_username"},
		{"empty admin password", func(c *Config) { c.Security.AdminPassword = "" }, "admin_password"},
		{"bad rate limit", func(c *Config) { c.Security.RateLimitReqs = 0 }, "rate_limit_reqs"},
		{"no storage path", func(c *Config) { c.Storage.Path = "" }, "storage.path"},
		{"in-memory needs no path", func(c *Config) { c.Storage.Path = ""; c.Storage.InMemory = true }, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"scheduler too fast", func(c *Config) { c.Scheduler.Interval = 100 * time.Millisecond }, "scheduler.interval"},
		{"bad client url", func(c *Config) { c.Client.ServerURL = "host:3000" }, "client.server_url"},
		{"bad client timeout", func(c *Config) { c.Client.RequestTimeout = 0 }, "client.request_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}
