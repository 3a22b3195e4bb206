// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-pagetree/internal/service"
	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/testutil"
)

const testDomain = "example.com"

// testServer mounts the API over a fresh database with one site.
type testServer struct {
	t       *testing.T
	handler http.Handler
	root    PageResponse
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithOptions(t, service.DefaultOptions())
}

func newTestServerWithOptions(t *testing.T, opts service.Options) *testServer {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	router := store.NewRouter(db, "", store.DefaultDBConfig(), testutil.TestLoggerSilent())
	srv := &testServer{t: t, handler: mountAPI(router, opts)}

	w := srv.do(http.MethodPost, "/api/v1/sites", `{"domain":"`+testDomain+`","title":"Example"}`)
	assertStatusCode(t, w, http.StatusCreated)
	site := unmarshalData[SiteResponse](t, w)
	if site.Root == nil {
		t.Fatal("expected root page in site response")
	}
	srv.root = *site.Root
	return srv
}

func mountAPI(router *store.Router, opts service.Options) http.Handler {
	h := NewHandler(router, testutil.TestLoggerSilent(), opts)
	r := chi.NewRouter()
	r.Mount("/api/v1", h.Routes())
	return r
}

// do sends a request with an optional JSON body.
func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	return doRequest(s.handler, method, path, body)
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// createPage creates a page under parentID and returns it.
func (s *testServer) createPage(parentID int64, slug, title string) PageResponse {
	s.t.Helper()
	body, err := json.Marshal(CreatePageRequest{ParentID: &parentID, Slug: slug, Title: title})
	if err != nil {
		s.t.Fatalf("marshal request: %v", err)
	}
	w := s.do(http.MethodPost, "/api/v1/sites/"+testDomain+"/pages", string(body))
	assertStatusCode(s.t, w, http.StatusCreated)
	return unmarshalData[PageResponse](s.t, w)
}

// pagePath returns the API path of a page, with optional suffix.
func pagePath(id int64, suffix string) string {
	return "/api/v1/sites/" + testDomain + "/pages/" + itoa(id) + suffix
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

// assertStatusCode checks that the response has the expected status code.
func assertStatusCode(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Fatalf("expected status %d, got %d: %s", expected, w.Code, w.Body.String())
	}
}

// assertErrorResponse unmarshals and validates an error response.
func assertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedCode string) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error.Code != expectedCode {
		t.Errorf("expected code '%s', got %s", expectedCode, resp.Error.Code)
	}
	return resp
}

// dataResponse is a generic wrapper for API responses with a "data" field.
type dataResponse[T any] struct {
	Data T `json:"data"`
}

// listResponse is a generic wrapper for API list responses with data and meta.
type listResponse[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

// unmarshalData unmarshals a JSON response body into the specified type.
func unmarshalData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp dataResponse[T]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp.Data
}

// unmarshalList unmarshals a JSON list response body into the specified type.
func unmarshalList[T any](t *testing.T, w *httptest.ResponseRecorder) []T {
	t.Helper()
	var resp listResponse[T]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Meta.Total != int64(len(resp.Data)) {
		t.Errorf("meta.total = %d, want %d", resp.Meta.Total, len(resp.Data))
	}
	return resp.Data
}
