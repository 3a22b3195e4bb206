// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/store"
)

// SiteService creates and looks up sites. A site is always created together with its root page.
type SiteService struct {
	db      *sql.DB
	queries *store.Queries
	events  *EventService
	logger  *slog.Logger
	now     func() time.Time
}

// NewSiteService creates a new SiteService.
func NewSiteService(db *sql.DB, events *EventService, logger *slog.Logger) *SiteService {
	return &SiteService{
		db:      db,
		queries: store.New(db),
		events:  events,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateSite creates a site and its root page (slug "", title "Home") atomically.
func (s *SiteService) CreateSite(ctx context.Context, domain, title string) (store.Site, store.Page, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if err := store.ValidateDomain(domain); err != nil {
		return store.Site{}, store.Page{}, invalid("domain", "domain %q is not a valid host name", domain)
	}
	if strings.TrimSpace(title) == "" {
		title = domain
	}
	if err := validateTitle(title); err != nil {
		return store.Site{}, store.Page{}, err
	}

	var site store.Site
	var root store.Page
	err := inTx(ctx, s.db, func(q *store.Queries) error {
		_, err := q.GetSiteByDomain(ctx, domain)
		if err == nil {
			return &ConflictError{Entity: EntitySite, Field: "domain", Value: domain}
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return ioErr("checking site domain", err)
		}

		site, root, err = q.CreateSiteWithRoot(ctx, domain, title, s.now())
		if err != nil {
			if store.IsUniqueViolation(err) {
				return &ConflictError{Entity: EntitySite, Field: "domain", Value: domain}
			}
			return ioErr("creating site", err)
		}
		return nil
	})
	if err != nil {
		return store.Site{}, store.Page{}, err
	}

	s.logger.Info("site created", "category", model.EventCategorySite, "site_id", site.ID, "domain", domain)
	_ = s.events.LogInfo(ctx, model.EventCategorySite, "site created", map[string]any{
		"site_id":      site.ID,
		"domain":       domain,
		"root_page_id": root.ID,
	})
	return site, root, nil
}

// GetSiteByDomain returns the site for domain or a NotFoundError.
func (s *SiteService) GetSiteByDomain(ctx context.Context, domain string) (store.Site, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	site, err := s.queries.GetSiteByDomain(ctx, domain)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Site{}, &NotFoundError{Entity: EntitySite, Key: domain}
	}
	if err != nil {
		return store.Site{}, ioErr("getting site by domain", err)
	}
	return site, nil
}

// ListSites returns all sites ordered by domain.
func (s *SiteService) ListSites(ctx context.Context) ([]store.Site, error) {
	sites, err := s.queries.ListSites(ctx)
	if err != nil {
		return nil, ioErr("listing sites", err)
	}
	return sites, nil
}
