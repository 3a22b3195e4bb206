// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/olegiv/ocms-pagetree/internal/service"
	"github.com/olegiv/ocms-pagetree/internal/store"
)

// SiteResponse represents a site in API responses.
type SiteResponse struct {
	ID        int64         `json:"id"`
	Domain    string        `json:"domain"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Root      *PageResponse `json:"root,omitempty"`
}

// CreateSiteRequest represents the request body for creating a site.
type CreateSiteRequest struct {
	Domain string `json:"domain"`
	Title  string `json:"title"`
}

func siteToResponse(s store.Site, root *store.Page) SiteResponse {
	resp := SiteResponse{
		ID:        s.ID,
		Domain:    s.Domain,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if root != nil {
		p := pageToResponse(*root)
		resp.Root = &p
	}
	return resp
}

// CreateSite handles POST /api/v1/sites
func (h *Handler) CreateSite(w http.ResponseWriter, r *http.Request) {
	var req CreateSiteRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.Domain == "" {
		WriteValidationError(w, map[string]string{"domain": "Domain is required"})
		return
	}

	svc, ok := h.services(w, r, req.Domain, true)
	if !ok {
		return
	}

	site, root, err := svc.Sites.CreateSite(r.Context(), req.Domain, req.Title)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteCreated(w, siteToResponse(site, &root))
}

// ListSites handles GET /api/v1/sites
func (h *Handler) ListSites(w http.ResponseWriter, r *http.Request) {
	dbs, err := h.router.SiteDatabases(r.Context())
	if err != nil {
		h.logger.Error("failed to list site databases", "error", err)
		WriteInternalError(w, "Failed to list sites")
		return
	}

	out := make([]SiteResponse, 0, len(dbs))
	for _, db := range dbs {
		sites, err := service.New(db, h.logger, h.opts).Sites.ListSites(r.Context())
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		for _, s := range sites {
			out = append(out, siteToResponse(s, nil))
		}
	}
	slices.SortFunc(out, func(a, b SiteResponse) int {
		return strings.Compare(a.Domain, b.Domain)
	})
	writeList(w, out)
}

// GetSite handles GET /api/v1/sites/{domain}
func (h *Handler) GetSite(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.requireSite(w, r)
	if !ok {
		return
	}

	root, err := sc.svc.Pages.Root(r.Context(), sc.site.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteSuccess(w, siteToResponse(sc.site, &root), nil)
}
