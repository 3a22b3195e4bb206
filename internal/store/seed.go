// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Root page defaults for newly created sites.
const (
	RootPageSlug     = ""
	RootPageTitle    = "Home"
	DefaultTemplate  = "default"
	DefaultSortMode  = "manual"
	DefaultSiteTitle = "My Site"
)

// CreateSiteWithRoot inserts a site together with its root page.
// q is expected to be bound to a transaction.
func (q *Queries) CreateSiteWithRoot(ctx context.Context, domain, title string, now time.Time) (Site, Page, error) {
	site, err := q.CreateSite(ctx, CreateSiteParams{
		Domain:    domain,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Site{}, Page{}, err
	}

	root, err := q.CreatePage(ctx, CreatePageParams{
		SiteID:    site.ID,
		Slug:      RootPageSlug,
		Title:     RootPageTitle,
		Template:  DefaultTemplate,
		Position:  0,
		SortMode:  DefaultSortMode,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Site{}, Page{}, err
	}

	return site, root, nil
}

// Seed creates the default site with its root page if it does not exist yet.
func Seed(ctx context.Context, db *sql.DB, domain string, doSeed bool) error {
	if !doSeed {
		slog.Info("seeding disabled, skipping")
		return nil
	}

	queries := New(db)

	_, err := queries.GetSiteByDomain(ctx, domain)
	if err == nil {
		slog.Info("default site already exists, skipping seed", "domain", domain)
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for default site: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	site, root, err := queries.WithTx(tx).CreateSiteWithRoot(ctx, domain, DefaultSiteTitle, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("creating default site: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed: %w", err)
	}

	slog.Info("created default site", "id", site.ID, "domain", site.Domain, "root_page_id", root.ID)
	return nil
}
