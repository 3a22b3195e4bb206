// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/ocms-pagetree/internal/config"
	"github.com/olegiv/ocms-pagetree/internal/handler"
	"github.com/olegiv/ocms-pagetree/internal/handler/api"
	"github.com/olegiv/ocms-pagetree/internal/logging"
	"github.com/olegiv/ocms-pagetree/internal/middleware"
	"github.com/olegiv/ocms-pagetree/internal/scheduler"
	"github.com/olegiv/ocms-pagetree/internal/service"
	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "ocms-pages - page tree and version service\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_DB_PATH            SQLite control database path (default: ./data/ocms.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_SITES_DIR          One database per site under this directory (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_SERVER_HOST        Listen host (default: localhost)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_SERVER_PORT        Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_ENV                Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_LOG_LEVEL          debug|info|warn|error (default: info)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_PURGE_ON_PUBLISH   Delete superseded versions on publish (default: true)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_API_RATE_LIMIT     API requests per second per client (default: 10)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_API_RATE_BURST     API burst size per client (default: 20)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_EVENT_RETENTION_DAYS  Days to keep event log entries, 0 = forever (default: 30)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_DO_SEED            Create the default site on startup (default: false)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_DEFAULT_SITE       Domain of the seeded site (default: localhost)\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	// Handle -v/-version flag
	if *showVersion {
		_, _ = fmt.Printf("ocms-pages %s\n", versionInfo)
		os.Exit(0)
	}

	if err := run(versionInfo); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(versionInfo version.Info) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	slog.Info("starting ocms-pages", versionInfo.LogAttrs()...)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		err = db.Close()
		if err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	// Run migrations
	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the Event Log database
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	if cfg.PerSiteDatabases() {
		if err := os.MkdirAll(cfg.SitesDir, 0755); err != nil {
			return fmt.Errorf("creating sites directory: %w", err)
		}
		slog.Info("per-site databases enabled", "dir", cfg.SitesDir)
	}
	router := store.NewRouter(db, cfg.SitesDir, store.DefaultDBConfig(), logger)
	defer router.Close()

	// Seed the default site into the database that will serve it
	ctx := context.Background()
	if cfg.DoSeed {
		siteDB, err := router.DB(ctx, cfg.DefaultSite)
		if err != nil {
			return fmt.Errorf("opening default site database: %w", err)
		}
		if err := store.Seed(ctx, siteDB, cfg.DefaultSite, true); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	} else {
		slog.Info("seeding disabled, skipping")
	}

	sched := scheduler.New(router.Databases, cfg.EventRetention(), logger)
	if err := sched.Start(scheduler.DefaultPruneSpec); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	opts := service.DefaultOptions()
	opts.PurgeOnPublish = cfg.PurgeOnPublish

	rateLimiter := middleware.NewRateLimiter(cfg.APIRateLimit, cfg.APIRateBurst)
	rateLimiter.StartCleanup(time.Minute)
	defer rateLimiter.Stop()

	apiHandler := api.NewHandler(router, logger, opts)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if cfg.IsDevelopment() {
		r.Use(chimw.Logger)
	}
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler := handler.NewHealthHandler(db, dbDir, versionInfo)
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)
	r.With(rateLimiter.Middleware()).Mount("/api/v1", apiHandler.Routes())

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
