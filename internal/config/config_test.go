// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OCMS_DB_PATH", "OCMS_SITES_DIR", "OCMS_SERVER_HOST", "OCMS_SERVER_PORT",
		"OCMS_ENV", "OCMS_LOG_LEVEL", "OCMS_PURGE_ON_PUBLISH", "OCMS_API_RATE_LIMIT",
		"OCMS_API_RATE_BURST", "OCMS_DO_SEED", "OCMS_DEFAULT_SITE", "OCMS_EVENT_RETENTION_DAYS",
	} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/ocms.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/ocms.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if !cfg.PurgeOnPublish {
		t.Error("PurgeOnPublish = false, want true")
	}
	if cfg.PerSiteDatabases() {
		t.Error("PerSiteDatabases() = true without OCMS_SITES_DIR")
	}
	if cfg.APIRateLimit != 10 || cfg.APIRateBurst != 20 {
		t.Errorf("rate limit = %v/%d, want 10/20", cfg.APIRateLimit, cfg.APIRateBurst)
	}
	if cfg.EventRetention() != 30*24*time.Hour {
		t.Errorf("EventRetention() = %v, want 720h", cfg.EventRetention())
	}
	if cfg.DefaultSite != "localhost" {
		t.Errorf("DefaultSite = %q, want localhost", cfg.DefaultSite)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("OCMS_DB_PATH", "/custom/path.db")
	t.Setenv("OCMS_SITES_DIR", "/srv/sites")
	t.Setenv("OCMS_SERVER_HOST", "0.0.0.0")
	t.Setenv("OCMS_SERVER_PORT", "3000")
	t.Setenv("OCMS_ENV", "production")
	t.Setenv("OCMS_LOG_LEVEL", "debug")
	t.Setenv("OCMS_PURGE_ON_PUBLISH", "false")
	t.Setenv("OCMS_API_RATE_LIMIT", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/custom/path.db")
	}
	if !cfg.PerSiteDatabases() {
		t.Error("PerSiteDatabases() = false, want true")
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "0.0.0.0:3000")
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true in production")
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want debug", cfg.SlogLevel())
	}
	if cfg.PurgeOnPublish {
		t.Error("PurgeOnPublish = true, want false")
	}
	if cfg.APIRateLimit != 2.5 {
		t.Errorf("APIRateLimit = %v, want 2.5", cfg.APIRateLimit)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port not a number", "OCMS_SERVER_PORT", "http"},
		{"port out of range", "OCMS_SERVER_PORT", "70000"},
		{"zero rate", "OCMS_API_RATE_LIMIT", "0"},
		{"zero burst", "OCMS_API_RATE_BURST", "0"},
		{"negative retention", "OCMS_EVENT_RETENTION_DAYS", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s succeeded, want error", tt.key, tt.value)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}

	for level, want := range tests {
		if got := (Config{LogLevel: level}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", level, got, want)
		}
	}
}
