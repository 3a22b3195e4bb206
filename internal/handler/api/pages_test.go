// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"testing"

	"github.com/olegiv/ocms-pagetree/internal/service"
)

func TestCreatePage(t *testing.T) {
	srv := newTestServer(t)

	about := srv.createPage(srv.root.ID, "about", "About")
	if about.ParentPageID == nil || *about.ParentPageID != srv.root.ID {
		t.Errorf("parent = %v, want %d", about.ParentPageID, srv.root.ID)
	}
	if about.Template != "default" || about.SortMode != "manual" {
		t.Errorf("defaults = %q/%q, want default/manual", about.Template, about.SortMode)
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"duplicate slug", `{"parent_id":` + itoa(srv.root.ID) + `,"slug":"about","title":"Again"}`, http.StatusConflict, "conflict"},
		{"no parent", `{"slug":"orphan","title":"Orphan"}`, http.StatusConflict, "structural_violation"},
		{"missing parent", `{"parent_id":9999,"slug":"lost","title":"Lost"}`, http.StatusNotFound, "not_found"},
		{"empty title", `{"parent_id":` + itoa(srv.root.ID) + `,"slug":"blank","title":""}`, http.StatusUnprocessableEntity, "validation_error"},
		{"bad slug", `{"parent_id":` + itoa(srv.root.ID) + `,"slug":"Bad Slug","title":"Bad"}`, http.StatusUnprocessableEntity, "validation_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(http.MethodPost, "/api/v1/sites/"+testDomain+"/pages", tt.body)
			assertStatusCode(t, w, tt.wantStatus)
			assertErrorResponse(t, w, tt.wantCode)
		})
	}

	t.Run("auto slug", func(t *testing.T) {
		w := srv.do(http.MethodPost, "/api/v1/sites/"+testDomain+"/pages",
			`{"parent_id":`+itoa(srv.root.ID)+`,"title":"About"}`)
		assertStatusCode(t, w, http.StatusCreated)
		if page := unmarshalData[PageResponse](t, w); page.Slug != "about-2" {
			t.Errorf("slug = %q, want %q", page.Slug, "about-2")
		}
	})
}

func TestGetAndListPages(t *testing.T) {
	srv := newTestServer(t)
	about := srv.createPage(srv.root.ID, "about", "About")
	team := srv.createPage(about.ID, "team", "Team")

	w := srv.do(http.MethodGet, pagePath(team.ID, ""), "")
	assertStatusCode(t, w, http.StatusOK)
	if got := unmarshalData[PageResponse](t, w); got.Slug != "team" {
		t.Errorf("slug = %q, want team", got.Slug)
	}

	w = srv.do(http.MethodGet, "/api/v1/sites/"+testDomain+"/pages", "")
	assertStatusCode(t, w, http.StatusOK)
	if pages := unmarshalList[PageResponse](t, w); len(pages) != 3 {
		t.Errorf("pages = %d, want 3", len(pages))
	}

	w = srv.do(http.MethodGet, "/api/v1/sites/"+testDomain+"/pages?slug=team", "")
	pages := unmarshalList[PageResponse](t, w)
	if len(pages) != 1 || pages[0].ID != team.ID {
		t.Errorf("slug lookup = %+v, want team", pages)
	}

	w = srv.do(http.MethodGet, "/api/v1/sites/"+testDomain+"/pages?slug=nope", "")
	if pages := unmarshalList[PageResponse](t, w); len(pages) != 0 {
		t.Errorf("slug lookup = %d pages, want 0", len(pages))
	}

	w = srv.do(http.MethodGet, pagePath(team.ID, "/breadcrumbs"), "")
	assertStatusCode(t, w, http.StatusOK)
	trail := unmarshalList[BreadcrumbResponse](t, w)
	if len(trail) != 3 || trail[0].ID != srv.root.ID || trail[2].ID != team.ID {
		t.Errorf("breadcrumbs = %+v", trail)
	}

	w = srv.do(http.MethodGet, pagePath(srv.root.ID, "/descendants"), "")
	if desc := unmarshalList[PageResponse](t, w); len(desc) != 2 {
		t.Errorf("descendants = %d, want 2", len(desc))
	}

	w = srv.do(http.MethodGet, pagePath(9999, ""), "")
	assertStatusCode(t, w, http.StatusNotFound)
}

func TestPageFromOtherSite(t *testing.T) {
	srv := newTestServer(t)
	about := srv.createPage(srv.root.ID, "about", "About")

	w := srv.do(http.MethodPost, "/api/v1/sites", `{"domain":"other.example"}`)
	assertStatusCode(t, w, http.StatusCreated)

	w = srv.do(http.MethodGet, "/api/v1/sites/other.example/pages/"+itoa(about.ID), "")
	assertStatusCode(t, w, http.StatusNotFound)
	assertErrorResponse(t, w, "not_found")

	w = srv.do(http.MethodPost, "/api/v1/sites/other.example/pages",
		`{"parent_id":`+itoa(about.ID)+`,"slug":"x","title":"X"}`)
	assertStatusCode(t, w, http.StatusNotFound)
}

func TestUpdatePage(t *testing.T) {
	srv := newTestServer(t)
	about := srv.createPage(srv.root.ID, "about", "About")
	srv.createPage(srv.root.ID, "contact", "Contact")

	w := srv.do(http.MethodPatch, pagePath(about.ID, ""), `{"title":"About Us","sort_mode":"title_asc"}`)
	assertStatusCode(t, w, http.StatusOK)
	updated := unmarshalData[PageResponse](t, w)
	if updated.Title != "About Us" || updated.SortMode != "title_asc" || updated.Slug != "about" {
		t.Errorf("updated = %+v", updated)
	}

	w = srv.do(http.MethodPatch, pagePath(about.ID, ""), `{"slug":"contact"}`)
	assertStatusCode(t, w, http.StatusConflict)
	assertErrorResponse(t, w, "conflict")

	w = srv.do(http.MethodPatch, pagePath(srv.root.ID, ""), `{"slug":"home"}`)
	assertStatusCode(t, w, http.StatusConflict)
	assertErrorResponse(t, w, "structural_violation")
}

func TestDeletePage(t *testing.T) {
	srv := newTestServer(t)
	about := srv.createPage(srv.root.ID, "about", "About")
	team := srv.createPage(about.ID, "team", "Team")

	w := srv.do(http.MethodDelete, pagePath(about.ID, ""), "")
	assertStatusCode(t, w, http.StatusConflict)
	assertErrorResponse(t, w, "structural_violation")

	w = srv.do(http.MethodDelete, pagePath(srv.root.ID, ""), "")
	assertStatusCode(t, w, http.StatusConflict)

	w = srv.do(http.MethodDelete, pagePath(team.ID, ""), "")
	assertStatusCode(t, w, http.StatusNoContent)

	w = srv.do(http.MethodDelete, pagePath(about.ID, ""), "")
	assertStatusCode(t, w, http.StatusNoContent)

	w = srv.do(http.MethodGet, pagePath(about.ID, ""), "")
	assertStatusCode(t, w, http.StatusNotFound)
}

func TestChildrenOrder(t *testing.T) {
	srv := newTestServer(t)
	a := srv.createPage(srv.root.ID, "a", "A")
	b := srv.createPage(srv.root.ID, "b", "B")

	body := `{"positions":[{"id":` + itoa(a.ID) + `,"position":5},{"id":` + itoa(b.ID) + `,"position":1}]}`
	w := srv.do(http.MethodPut, pagePath(srv.root.ID, "/children/order"), body)
	assertStatusCode(t, w, http.StatusOK)
	children := unmarshalList[PageResponse](t, w)
	if len(children) != 2 || children[0].ID != b.ID || children[1].ID != a.ID {
		t.Errorf("children order = %+v, want b then a", children)
	}

	w = srv.do(http.MethodGet, pagePath(srv.root.ID, "/children"), "")
	assertStatusCode(t, w, http.StatusOK)
	if children := unmarshalList[PageResponse](t, w); children[0].ID != b.ID {
		t.Errorf("first child = %d, want %d", children[0].ID, b.ID)
	}

	// a is not a child of b
	body = `{"positions":[{"id":` + itoa(a.ID) + `,"position":0}]}`
	w = srv.do(http.MethodPut, pagePath(b.ID, "/children/order"), body)
	assertStatusCode(t, w, http.StatusConflict)
	assertErrorResponse(t, w, "structural_violation")
}

func TestMovePage(t *testing.T) {
	srv := newTestServer(t)
	a := srv.createPage(srv.root.ID, "a", "A")
	b := srv.createPage(a.ID, "b", "B")
	c := srv.createPage(srv.root.ID, "c", "C")

	w := srv.do(http.MethodPost, pagePath(a.ID, "/move"), `{"new_parent_id":`+itoa(b.ID)+`}`)
	assertStatusCode(t, w, http.StatusConflict)
	assertErrorResponse(t, w, "structural_violation")

	w = srv.do(http.MethodPost, pagePath(b.ID, "/move"), `{"new_parent_id":`+itoa(c.ID)+`}`)
	assertStatusCode(t, w, http.StatusOK)
	result := unmarshalData[service.MoveResult](t, w)
	if !result.Moved || result.OldParentID != a.ID || result.NewParentID != c.ID || result.Position != 0 {
		t.Errorf("move result = %+v", result)
	}

	w = srv.do(http.MethodPost, pagePath(b.ID, "/move"), `{"new_parent_id":`+itoa(c.ID)+`}`)
	assertStatusCode(t, w, http.StatusOK)
	if result := unmarshalData[service.MoveResult](t, w); result.Moved {
		t.Error("moving to the current parent should be a no-op")
	}

	w = srv.do(http.MethodPost, pagePath(b.ID, "/move"), `{}`)
	assertStatusCode(t, w, http.StatusUnprocessableEntity)

	w = srv.do(http.MethodGet, pagePath(a.ID, "/move-targets"), "")
	assertStatusCode(t, w, http.StatusOK)
	for _, p := range unmarshalList[PageResponse](t, w) {
		if p.ID == a.ID {
			t.Error("a page is never a valid move target for itself")
		}
	}
}
