// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/service"
	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/util"
)

// PageResponse represents a page in API responses.
type PageResponse struct {
	ID           int64     `json:"id"`
	SiteID       int64     `json:"site_id"`
	ParentPageID *int64    `json:"parent_page_id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Template     string    `json:"template"`
	Position     int64     `json:"position"`
	SortMode     string    `json:"sort_mode"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreatePageRequest represents the request body for creating a page.
// An empty slug is derived from the title.
type CreatePageRequest struct {
	ParentID    *int64 `json:"parent_id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Template    string `json:"template,omitempty"`
	SortMode    string `json:"sort_mode,omitempty"`
	Position    *int64 `json:"position,omitempty"`
}

// UpdatePageRequest represents the request body for updating a page.
type UpdatePageRequest struct {
	Title       *string `json:"title,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	Description *string `json:"description,omitempty"`
	Template    *string `json:"template,omitempty"`
	SortMode    *string `json:"sort_mode,omitempty"`
}

// MovePageRequest represents the request body for moving a page.
type MovePageRequest struct {
	NewParentID int64 `json:"new_parent_id"`
}

// ReorderPagesRequest represents the request body for reordering siblings.
type ReorderPagesRequest struct {
	Positions []model.PagePosition `json:"positions"`
}

// BreadcrumbResponse is one step of a breadcrumb trail.
type BreadcrumbResponse struct {
	ID    int64  `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

func pageToResponse(p store.Page) PageResponse {
	return PageResponse{
		ID:           p.ID,
		SiteID:       p.SiteID,
		ParentPageID: util.PtrFromNullInt64(p.ParentPageID),
		Slug:         p.Slug,
		Title:        p.Title,
		Description:  p.Description.String,
		Template:     p.Template,
		Position:     p.Position,
		SortMode:     p.SortMode,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func pagesToResponse(pages []store.Page) []PageResponse {
	out := make([]PageResponse, 0, len(pages))
	for _, p := range pages {
		out = append(out, pageToResponse(p))
	}
	return out
}

// ListPages handles GET /api/v1/sites/{domain}/pages
// Query parameters:
//   - slug: return only the first page of the site with this slug
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.requireSite(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if slug := r.URL.Query().Get("slug"); slug != "" {
		page, err := sc.svc.Pages.FindBySlugAndSite(ctx, slug, sc.site.ID)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		if page == nil {
			writeList(w, []PageResponse{})
			return
		}
		writeList(w, []PageResponse{pageToResponse(*page)})
		return
	}

	pages, err := sc.svc.Pages.ListBySite(ctx, sc.site.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeList(w, pagesToResponse(pages))
}

// GetPage handles GET /api/v1/sites/{domain}/pages/{id}
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	_, page, ok := h.requirePage(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, pageToResponse(page), nil)
}

// CreatePage handles POST /api/v1/sites/{domain}/pages
func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.requireSite(w, r)
	if !ok {
		return
	}

	var req CreatePageRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	ctx := r.Context()

	// The parent must belong to the addressed site.
	if req.ParentID != nil {
		parent, err := sc.svc.Pages.Get(ctx, *req.ParentID)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		if parent.SiteID != sc.site.ID {
			h.writeServiceError(w, r, &service.NotFoundError{Entity: service.EntityPage, ID: *req.ParentID})
			return
		}
	}

	page, err := sc.svc.Pages.CreatePage(ctx, service.CreatePageInput{
		ParentID:    req.ParentID,
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		Template:    req.Template,
		SortMode:    req.SortMode,
		Position:    req.Position,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteCreated(w, pageToResponse(page))
}

// UpdatePage handles PATCH /api/v1/sites/{domain}/pages/{id}
func (h *Handler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	sc, page, ok := h.requirePage(w, r)
	if !ok {
		return
	}

	var req UpdatePageRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	updated, err := sc.svc.Pages.Update(r.Context(), service.UpdatePageInput{
		ID:          page.ID,
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		Template:    req.Template,
		SortMode:    req.SortMode,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteSuccess(w, pageToResponse(updated), nil)
}

// DeletePage handles DELETE /api/v1/sites/{domain}/pages/{id}
func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	sc, page, ok := h.requirePage(w, r)
	if !ok {
		return
	}

	if err := sc.svc.Pages.Delete(r.Context(), page.ID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListChildren handles GET /api/v1/sites/{domain}/pages/{id}/children
// Children are ordered by the page's sort mode.
func (h *Handler) ListChildren(w http.ResponseWriter, r *http.Request) {
	sc, page, ok := h.requirePage(w, r)
	if !ok {
		return
	}

	children, err := sc.svc.Pages.ListChildrenSorted(r.Context(), page.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeList(w, pagesToResponse(children))
}

// ReorderChildren handles PUT /api/v1/sites/{domain}/pages/{id}/children/order
func (h *Handler) ReorderChildren(w http.ResponseWriter, r *http.Request) {
	sc, page, ok := h.requirePage(w, r)
	if !ok {
		return
	}

	var req ReorderPagesRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	ctx := r.Context()

	if err := sc.svc.Pages.ReorderSiblings(ctx, page.ID, req.Positions); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	children, err := sc.svc.Pages.ListChildren(ctx, page.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeList(w, pagesToResponse(children))
}

// Breadcrumbs handles GET /api/v1/sites/{domain}/pages/{id}/breadcrumbs
func (h *Handler) Breadcrumbs(w http.ResponseWriter, r *http.Request) {
	sc, page, ok := h.requirePage(w, r)
	if !ok {
		return
	}

	trail, err := sc.svc.Pages.Breadcrumbs(r.Context(), page.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	out := make([]BreadcrumbResponse, 0, len(trail))
	for _, p := range trail {
		out = append(out, BreadcrumbResponse{ID: p.ID, Slug: p.Slug, Title: p.Title})
	}
	writeList(w, out)
}

// Descendants handles GET /api/v1/sites/{domain}/pages/{id}/descendants
func (h *Handler) Descendants(w http.ResponseWriter, r *http.Request) {
	sc, page, ok := h.requirePage(w, r)
	if !ok {
		return
	}

	pages, err := sc.svc.Pages.Descendants(r.Context(), page.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeList(w, pagesToResponse(pages))
}

// MoveTargets handles GET /api/v1/sites/{domain}/pages/{id}/move-targets
func (h *Handler) MoveTargets(w http.ResponseWriter, r *http.Request) {
	sc, page, ok := h.requirePage(w, r)
	if !ok {
		return
	}

	pages, err := sc.svc.Pages.ValidMoveTargets(r.Context(), page.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeList(w, pagesToResponse(pages))
}

// MovePage handles POST /api/v1/sites/{domain}/pages/{id}/move
func (h *Handler) MovePage(w http.ResponseWriter, r *http.Request) {
	sc, page, ok := h.requirePage(w, r)
	if !ok {
		return
	}

	var req MovePageRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.NewParentID <= 0 {
		WriteValidationError(w, map[string]string{"new_parent_id": "New parent ID is required"})
		return
	}

	result, err := sc.svc.Moves.MovePage(r.Context(), page.ID, req.NewParentID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, result, nil)
}
