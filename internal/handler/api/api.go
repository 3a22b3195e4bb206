// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST API over the page tree and version services.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-pagetree/internal/service"
	"github.com/olegiv/ocms-pagetree/internal/store"
)

// maxBodySize bounds request bodies; component content is capped at 1 MiB.
const maxBodySize = 2 << 20

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	router *store.Router
	logger *slog.Logger
	opts   service.Options
}

// NewHandler creates a new API handler.
func NewHandler(router *store.Router, logger *slog.Logger, opts service.Options) *Handler {
	return &Handler{
		router: router,
		logger: logger,
		opts:   opts,
	}
}

// Routes returns the /api/v1 routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/status", h.Status)
	r.Get("/sites", h.ListSites)
	r.Post("/sites", h.CreateSite)

	r.Route("/sites/{domain}", func(r chi.Router) {
		r.Get("/", h.GetSite)
		r.Get("/pages", h.ListPages)
		r.Post("/pages", h.CreatePage)

		r.Route("/pages/{id}", func(r chi.Router) {
			r.Get("/", h.GetPage)
			r.Patch("/", h.UpdatePage)
			r.Delete("/", h.DeletePage)

			r.Get("/children", h.ListChildren)
			r.Put("/children/order", h.ReorderChildren)
			r.Get("/breadcrumbs", h.Breadcrumbs)
			r.Get("/descendants", h.Descendants)
			r.Get("/move-targets", h.MoveTargets)
			r.Post("/move", h.MovePage)

			r.Get("/versions", h.ListVersions)
			r.Get("/published", h.RenderPublished)
			r.Post("/draft", h.GetOrCreateDraft)
			r.Delete("/draft", h.DiscardDraft)
			r.Post("/draft/publish", h.PublishDraft)
			r.Post("/draft/components", h.AddComponent)
			r.Put("/draft/components/order", h.ReorderComponents)
		})

		r.Patch("/components/{id}", h.UpdateComponent)
		r.Delete("/components/{id}", h.DeleteComponent)
	})

	return r
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains list metadata.
type Meta struct {
	Total int64 `json:"total,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	resp := Response{
		Data: data,
		Meta: meta,
	}
	WriteJSON(w, http.StatusOK, resp)
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	resp := Response{
		Data: data,
	}
	WriteJSON(w, http.StatusCreated, resp)
}

// writeList writes a list with its length as meta.total.
func writeList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	WriteJSON(w, http.StatusOK, struct {
		Data []T  `json:"data"`
		Meta Meta `json:"meta"`
	}{Data: items, Meta: Meta{Total: int64(len(items))}})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	resp := ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	WriteJSON(w, statusCode, resp)
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteConflict writes a 409 Conflict response.
func WriteConflict(w http.ResponseWriter, code, message string) {
	WriteError(w, http.StatusConflict, code, message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// writeServiceError maps a service error kind to its HTTP response.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch service.KindOf(err) {
	case service.KindValidation:
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			WriteValidationError(w, map[string]string{ve.Field: ve.Message})
			return
		}
		WriteValidationError(w, nil)
	case service.KindNotFound:
		WriteNotFound(w, err.Error())
	case service.KindConflict:
		WriteConflict(w, "conflict", err.Error())
	case service.KindStructural:
		WriteConflict(w, "structural_violation", err.Error())
	default:
		h.logger.Error("api request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		WriteInternalError(w, "Internal server error")
	}
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	PerSite bool   `json:"per_site_databases"`
}

// Status returns the API status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, StatusResponse{
		Status:  "ok",
		Version: "v1",
		PerSite: h.router.PerSite(),
	}, nil)
}

// siteScope is the site a request addresses together with the services bound to its database.
type siteScope struct {
	svc  *service.Services
	site store.Site
}

// services returns the services for domain's database. Only site creation
// passes create; other requests for a domain without a database get a 404.
func (h *Handler) services(w http.ResponseWriter, r *http.Request, domain string, create bool) (*service.Services, bool) {
	open := h.router.Existing
	if create {
		open = h.router.DB
	}
	db, err := open(r.Context(), domain)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidDomain):
			WriteValidationError(w, map[string]string{"domain": "Invalid site domain"})
		case errors.Is(err, store.ErrNoSiteDatabase):
			h.writeServiceError(w, r, &service.NotFoundError{Entity: service.EntitySite, Key: domain})
		default:
			h.logger.Error("failed to open site database", "domain", domain, "error", err)
			WriteInternalError(w, "Failed to open site database")
		}
		return nil, false
	}
	return service.New(db, h.logger, h.opts), true
}

// requireSite resolves the {domain} URL parameter to its site.
// Returns false if an error response was written.
func (h *Handler) requireSite(w http.ResponseWriter, r *http.Request) (siteScope, bool) {
	domain := chi.URLParam(r, "domain")
	svc, ok := h.services(w, r, domain, false)
	if !ok {
		return siteScope{}, false
	}
	site, err := svc.Sites.GetSiteByDomain(r.Context(), domain)
	if err != nil {
		h.writeServiceError(w, r, err)
		return siteScope{}, false
	}
	return siteScope{svc: svc, site: site}, true
}

// requirePage resolves {domain} and {id} to a page of that site.
func (h *Handler) requirePage(w http.ResponseWriter, r *http.Request) (siteScope, store.Page, bool) {
	sc, ok := h.requireSite(w, r)
	if !ok {
		return siteScope{}, store.Page{}, false
	}
	id, ok := parseIDParam(w, r, "page")
	if !ok {
		return siteScope{}, store.Page{}, false
	}
	page, err := sc.svc.Pages.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return siteScope{}, store.Page{}, false
	}
	if page.SiteID != sc.site.ID {
		h.writeServiceError(w, r, &service.NotFoundError{Entity: service.EntityPage, ID: id})
		return siteScope{}, store.Page{}, false
	}
	return sc, page, true
}

// parseIDParam parses the {id} URL parameter as a positive integer.
func parseIDParam(w http.ResponseWriter, r *http.Request, entityName string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		WriteBadRequest(w, "Invalid "+entityName+" ID", nil)
		return 0, false
	}
	return id, true
}

// decodeJSON decodes the request body into dst. An empty body leaves dst
// untouched when optional is true.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "request_too_large", "Request body too large", nil)
			return false
		}
		WriteBadRequest(w, "Invalid JSON body", map[string]string{"body": strings.TrimPrefix(err.Error(), "json: ")})
		return false
	}
	return true
}
