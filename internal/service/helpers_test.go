// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/testutil"
)

type testEnv struct {
	db   *sql.DB
	svc  *Services
	site store.Site
	root store.Page
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	site, root := testutil.TestSite(t, db, "example.com")
	return &testEnv{
		db:   db,
		svc:  New(db, testutil.TestLoggerSilent(), DefaultOptions()),
		site: site,
		root: root,
	}
}

func (e *testEnv) createPage(t *testing.T, parentID int64, slug, title string) store.Page {
	t.Helper()

	page, err := e.svc.Pages.CreatePage(context.Background(), CreatePageInput{
		ParentID: &parentID,
		Slug:     slug,
		Title:    title,
	})
	require.NoError(t, err)
	return page
}

func (e *testEnv) mustGet(t *testing.T, id int64) store.Page {
	t.Helper()

	page, err := e.svc.Pages.Get(context.Background(), id)
	require.NoError(t, err)
	return page
}

func pageIDs(pages []store.Page) []int64 {
	ids := make([]int64, len(pages))
	for i, p := range pages {
		ids[i] = p.ID
	}
	return ids
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(s string) *string { return &s }
