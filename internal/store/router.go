// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrInvalidDomain is returned when a site domain cannot be mapped to a database file.
var ErrInvalidDomain = errors.New("invalid site domain")

// ErrNoSiteDatabase is returned by Existing when a domain has no database file yet.
var ErrNoSiteDatabase = errors.New("site database does not exist")

// Router hands out the database that stores a given site.
//
// With an empty sites directory every site lives in the control database.
// Otherwise each domain gets its own SQLite file under the directory, opened
// and migrated on first use.
type Router struct {
	control  *sql.DB
	sitesDir string
	cfg      DBConfig
	logger   *slog.Logger

	pools sync.Map // domain -> *sql.DB
	group singleflight.Group
}

// NewRouter creates a Router. control is returned for every domain when sitesDir is empty.
func NewRouter(control *sql.DB, sitesDir string, cfg DBConfig, logger *slog.Logger) *Router {
	return &Router{
		control:  control,
		sitesDir: sitesDir,
		cfg:      cfg,
		logger:   logger,
	}
}

// PerSite reports whether sites are stored in separate database files.
func (r *Router) PerSite() bool {
	return r.sitesDir != ""
}

// DB returns the database for domain, creating and migrating it if needed.
// Concurrent first calls for the same domain share a single open and migrate.
// Only site creation and seeding should call it.
func (r *Router) DB(ctx context.Context, domain string) (*sql.DB, error) {
	return r.get(ctx, domain, true)
}

// Existing returns the database for domain like DB, but never creates one:
// a domain without a database file yields ErrNoSiteDatabase.
func (r *Router) Existing(ctx context.Context, domain string) (*sql.DB, error) {
	return r.get(ctx, domain, false)
}

func (r *Router) get(ctx context.Context, domain string, create bool) (*sql.DB, error) {
	if !r.PerSite() {
		return r.control, nil
	}

	domain = strings.ToLower(strings.TrimSpace(domain))
	if err := ValidateDomain(domain); err != nil {
		return nil, err
	}

	if db, ok := r.pools.Load(domain); ok {
		return db.(*sql.DB), nil
	}

	key := domain
	if create {
		key += "|create"
	}
	ch := r.group.DoChan(key, func() (any, error) {
		if db, ok := r.pools.Load(domain); ok {
			return db, nil
		}
		db, err := r.open(domain, create)
		if err != nil {
			return nil, err
		}
		actual, loaded := r.pools.LoadOrStore(domain, db)
		if loaded {
			_ = db.Close()
		}
		return actual, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*sql.DB), nil
	}
}

func (r *Router) open(domain string, create bool) (*sql.DB, error) {
	dir := filepath.Join(r.sitesDir, domain)
	path := filepath.Join(dir, "site.db")
	if !create {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrNoSiteDatabase, domain)
			}
			return nil, fmt.Errorf("checking site database %s: %w", domain, err)
		}
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating site directory: %w", err)
	}

	db, err := NewDBWithConfig(path, r.cfg)
	if err != nil {
		return nil, fmt.Errorf("opening site database %s: %w", domain, err)
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating site database %s: %w", domain, err)
	}

	r.logger.Info("site database opened", "domain", domain, "path", path)
	return db, nil
}

// SiteDatabases returns every database that stores sites: the control database
// in shared mode, otherwise each per-site database found under the sites directory.
func (r *Router) SiteDatabases(ctx context.Context) ([]*sql.DB, error) {
	if !r.PerSite() {
		return []*sql.DB{r.control}, nil
	}

	entries, err := os.ReadDir(r.sitesDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading sites directory: %w", err)
	}

	var dbs []*sql.DB
	for _, e := range entries {
		if !e.IsDir() || ValidateDomain(e.Name()) != nil {
			continue
		}
		db, err := r.Existing(ctx, e.Name())
		if errors.Is(err, ErrNoSiteDatabase) {
			continue
		}
		if err != nil {
			return nil, err
		}
		dbs = append(dbs, db)
	}
	return dbs, nil
}

// Databases returns the control database followed by every open per-site pool.
func (r *Router) Databases() []*sql.DB {
	dbs := []*sql.DB{r.control}
	r.pools.Range(func(_, value any) bool {
		dbs = append(dbs, value.(*sql.DB))
		return true
	})
	return dbs
}

// Close closes every per-site pool. The control database is owned by the caller.
func (r *Router) Close() {
	r.pools.Range(func(key, value any) bool {
		if err := value.(*sql.DB).Close(); err != nil {
			r.logger.Error("error closing site database", "domain", key, "error", err)
		}
		r.pools.Delete(key)
		return true
	})
}

// ValidateDomain checks that domain is a plain host name that is safe to use as a directory name.
func ValidateDomain(domain string) error {
	if domain == "" || len(domain) > 253 {
		return fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}
	if strings.Contains(domain, "..") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}
	for _, r := range domain {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '.' || r == ':') {
			return fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
		}
	}
	return nil
}
