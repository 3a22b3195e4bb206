// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"OCMS_DB_PATH" envDefault:"./data/ocms.db"`
	SitesDir   string `env:"OCMS_SITES_DIR"` // one database per site under this directory when set
	ServerHost string `env:"OCMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"OCMS_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"OCMS_ENV" envDefault:"development"`
	LogLevel   string `env:"OCMS_LOG_LEVEL" envDefault:"info"`

	// Versioning
	PurgeOnPublish bool `env:"OCMS_PURGE_ON_PUBLISH" envDefault:"true"` // delete superseded versions on publish

	// API rate limiting (requests per second per client IP)
	APIRateLimit float64 `env:"OCMS_API_RATE_LIMIT" envDefault:"10"`
	APIRateBurst int     `env:"OCMS_API_RATE_BURST" envDefault:"20"`

	// Event log retention; 0 keeps events forever
	EventRetentionDays int `env:"OCMS_EVENT_RETENTION_DAYS" envDefault:"30"`

	// Seeding configuration
	DoSeed      bool   `env:"OCMS_DO_SEED" envDefault:"false"`
	DefaultSite string `env:"OCMS_DEFAULT_SITE" envDefault:"localhost"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// PerSiteDatabases returns true if every site gets its own database file.
func (c Config) PerSiteDatabases() bool {
	return c.SitesDir != ""
}

// EventRetention returns how long event log entries are kept, 0 for forever.
func (c Config) EventRetention() time.Duration {
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// SlogLevel maps LogLevel to a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.ServerPort < 1 || cfg.ServerPort > 65535 {
		return nil, fmt.Errorf("OCMS_SERVER_PORT must be between 1 and 65535, got %d", cfg.ServerPort)
	}
	if cfg.APIRateLimit <= 0 {
		return nil, fmt.Errorf("OCMS_API_RATE_LIMIT must be positive, got %v", cfg.APIRateLimit)
	}
	if cfg.EventRetentionDays < 0 {
		return nil, fmt.Errorf("OCMS_EVENT_RETENTION_DAYS cannot be negative, got %d", cfg.EventRetentionDays)
	}
	if cfg.APIRateBurst < 1 {
		return nil, fmt.Errorf("OCMS_API_RATE_BURST must be at least 1, got %d", cfg.APIRateBurst)
	}

	return cfg, nil
}
