// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/service"
	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/util"
)

// VersionResponse represents a page version in API responses.
type VersionResponse struct {
	ID            int64     `json:"id"`
	PageID        int64     `json:"page_id"`
	VersionNumber int64     `json:"version_number"`
	IsPublished   bool      `json:"is_published"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ComponentResponse represents a component in API responses.
type ComponentResponse struct {
	ID            int64           `json:"id"`
	PageVersionID int64           `json:"page_version_id"`
	ComponentType string          `json:"component_type"`
	Position      int64           `json:"position"`
	Content       json.RawMessage `json:"content"`
	Title         *string         `json:"title,omitempty"`
	Template      string          `json:"template"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// DraftResponse is a draft version with its components.
type DraftResponse struct {
	Version    VersionResponse     `json:"version"`
	Components []ComponentResponse `json:"components"`
	Created    bool                `json:"created"`
}

// CreateDraftRequest represents the optional request body for opening a draft.
type CreateDraftRequest struct {
	CreatedBy string `json:"created_by,omitempty"`
}

// AddComponentRequest represents the request body for adding a component to a draft.
type AddComponentRequest struct {
	ComponentType string          `json:"component_type"`
	Content       json.RawMessage `json:"content"`
	Title         *string         `json:"title,omitempty"`
	Template      string          `json:"template,omitempty"`
	Position      *int64          `json:"position,omitempty"`
}

// UpdateComponentRequest represents the request body for updating a component.
type UpdateComponentRequest struct {
	Content  json.RawMessage `json:"content,omitempty"`
	Title    *string         `json:"title,omitempty"`
	Template *string         `json:"template,omitempty"`
}

// ReorderComponentsRequest represents the request body for reordering draft components.
type ReorderComponentsRequest struct {
	Positions []model.ComponentPosition `json:"positions"`
}

func versionToResponse(v store.PageVersion) VersionResponse {
	return VersionResponse{
		ID:            v.ID,
		PageID:        v.PageID,
		VersionNumber: v.VersionNumber,
		IsPublished:   v.IsPublished,
		CreatedBy:     v.CreatedBy.String,
		CreatedAt:     v.CreatedAt,
	}
}

func componentToResponse(c store.Component) ComponentResponse {
	return ComponentResponse{
		ID:            c.ID,
		PageVersionID: c.PageVersionID,
		ComponentType: c.ComponentType,
		Position:      c.Position,
		Content:       json.RawMessage(c.Content),
		Title:         util.PtrFromNullString(c.Title),
		Template:      c.Template,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func componentsToResponse(components []store.Component) []ComponentResponse {
	out := make([]ComponentResponse, 0, len(components))
	for _, c := range components {
		out = append(out, componentToResponse(c))
	}
	return out
}

// ListVersions handles GET /api/v1/sites/{domain}/pages/{id}/versions
func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	sc, page, ok := h.requirePage(w, r)
	if !ok {
		return
	}

	versions, err := sc.svc.Drafts.ListVersions(r.Context(), page.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	out := make([]VersionResponse, 0, len(versions))
	for _, v := range versions {
		out = append(out, versionToResponse(v))
	}
	writeList(w, out)
}

// RenderedPageResponse represents the rendered published version of a page.
type RenderedPageResponse struct {
	PageID        int64  `json:"page_id"`
	VersionID     int64  `json:"version_id"`
	VersionNumber int64  `json:"version_number"`
	HTML          string `json:"html"`
}

// RenderPublished handles GET /api/v1/sites/{domain}/pages/{id}/published
// Query params: format=html returns the body as text/html instead of JSON.
func (h *Handler) RenderPublished(w http.ResponseWriter, r *http.Request) {
	sc, page, ok := h.requirePage(w, r)
	if !ok {
		return
	}

	out, err := sc.svc.Renderer.RenderPublished(r.Context(), page.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(out.HTML))
		return
	}

	WriteSuccess(w, RenderedPageResponse{
		PageID:        out.PageID,
		VersionID:     out.VersionID,
		VersionNumber: out.VersionNumber,
		HTML:          out.HTML,
	}, nil)
}

// GetOrCreateDraft handles POST /api/v1/sites/{domain}/pages/{id}/draft
// Responds 201 when a new draft was opened and 200 when one already existed.
func (h *Handler) GetOrCreateDraft(w http.ResponseWriter, r *http.Request) {
	sc, page, ok := h.requirePage(w, r)
	if !ok {
		return
	}

	var req CreateDraftRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	draft, err := sc.svc.Drafts.GetOrCreateDraft(r.Context(), page.ID, req.CreatedBy)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := DraftResponse{
		Version:    versionToResponse(draft.Version),
		Components: componentsToResponse(draft.Components),
		Created:    draft.Created,
	}
	if draft.Created {
		WriteCreated(w, resp)
		return
	}
	WriteSuccess(w, resp, nil)
}

// PublishDraft handles POST /api/v1/sites/{domain}/pages/{id}/draft/publish
func (h *Handler) PublishDraft(w http.ResponseWriter, r *http.Request) {
	sc, page, ok := h.requirePage(w, r)
	if !ok {
		return
	}

	result, err := sc.svc.Drafts.PublishDraft(r.Context(), page.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, result, nil)
}

// DiscardDraft handles DELETE /api/v1/sites/{domain}/pages/{id}/draft
func (h *Handler) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	sc, page, ok := h.requirePage(w, r)
	if !ok {
		return
	}

	if err := sc.svc.Drafts.DiscardDraft(r.Context(), page.ID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireDraft returns the current draft of page or writes a structural error.
func (h *Handler) requireDraft(w http.ResponseWriter, r *http.Request, sc siteScope, page store.Page) (store.PageVersion, bool) {
	draft, err := sc.svc.Versions.Draft(r.Context(), page.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return store.PageVersion{}, false
	}
	if draft == nil {
		h.writeServiceError(w, r, &service.StructuralError{Reason: service.ReasonNoDraft, PageID: page.ID})
		return store.PageVersion{}, false
	}
	return *draft, true
}

// AddComponent handles POST /api/v1/sites/{domain}/pages/{id}/draft/components
func (h *Handler) AddComponent(w http.ResponseWriter, r *http.Request) {
	sc, page, ok := h.requirePage(w, r)
	if !ok {
		return
	}

	var req AddComponentRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	draft, ok := h.requireDraft(w, r, sc, page)
	if !ok {
		return
	}

	component, err := sc.svc.Components.Add(r.Context(), service.AddComponentInput{
		VersionID:     draft.ID,
		ComponentType: req.ComponentType,
		Content:       req.Content,
		Title:         req.Title,
		Template:      req.Template,
		Position:      req.Position,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, componentToResponse(component))
}

// ReorderComponents handles PUT /api/v1/sites/{domain}/pages/{id}/draft/components/order
func (h *Handler) ReorderComponents(w http.ResponseWriter, r *http.Request) {
	sc, page, ok := h.requirePage(w, r)
	if !ok {
		return
	}

	var req ReorderComponentsRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	draft, ok := h.requireDraft(w, r, sc, page)
	if !ok {
		return
	}
	ctx := r.Context()

	if err := sc.svc.Components.Reorder(ctx, draft.ID, req.Positions); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	components, err := sc.svc.Components.List(ctx, draft.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeList(w, componentsToResponse(components))
}

// requireComponent resolves {domain} and {id} to a component whose page belongs to that site.
func (h *Handler) requireComponent(w http.ResponseWriter, r *http.Request) (siteScope, store.Component, bool) {
	sc, ok := h.requireSite(w, r)
	if !ok {
		return siteScope{}, store.Component{}, false
	}
	id, ok := parseIDParam(w, r, "component")
	if !ok {
		return siteScope{}, store.Component{}, false
	}
	ctx := r.Context()

	component, err := sc.svc.Components.Get(ctx, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return siteScope{}, store.Component{}, false
	}
	version, err := sc.svc.Versions.Get(ctx, component.PageVersionID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return siteScope{}, store.Component{}, false
	}
	page, err := sc.svc.Pages.Get(ctx, version.PageID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return siteScope{}, store.Component{}, false
	}
	if page.SiteID != sc.site.ID {
		h.writeServiceError(w, r, &service.NotFoundError{Entity: service.EntityComponent, ID: id})
		return siteScope{}, store.Component{}, false
	}
	return sc, component, true
}

// UpdateComponent handles PATCH /api/v1/sites/{domain}/components/{id}
func (h *Handler) UpdateComponent(w http.ResponseWriter, r *http.Request) {
	sc, component, ok := h.requireComponent(w, r)
	if !ok {
		return
	}

	var req UpdateComponentRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	updated, err := sc.svc.Components.Update(r.Context(), service.UpdateComponentInput{
		ID:       component.ID,
		Content:  req.Content,
		Title:    req.Title,
		Template: req.Template,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, componentToResponse(updated), nil)
}

// DeleteComponent handles DELETE /api/v1/sites/{domain}/components/{id}
func (h *Handler) DeleteComponent(w http.ResponseWriter, r *http.Request) {
	sc, component, ok := h.requireComponent(w, r)
	if !ok {
		return
	}

	if err := sc.svc.Components.Delete(r.Context(), component.ID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
