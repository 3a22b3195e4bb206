// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/store"
)

func TestCreatePage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	page, err := env.svc.Pages.CreatePage(ctx, CreatePageInput{
		ParentID:    &env.root.ID,
		Slug:        "about",
		Title:       "About",
		Description: "About us",
	})
	require.NoError(t, err)

	assert.Equal(t, env.site.ID, page.SiteID)
	assert.Equal(t, env.root.ID, page.ParentPageID.Int64)
	assert.Equal(t, "about", page.Slug)
	assert.Equal(t, store.DefaultTemplate, page.Template)
	assert.Equal(t, string(model.SortManual), page.SortMode)
	assert.Equal(t, int64(0), page.Position)
	assert.Equal(t, "About us", page.Description.String)

	second := env.createPage(t, env.root.ID, "contact", "Contact")
	assert.Equal(t, int64(1), second.Position)
}

func TestCreatePage_RootRejected(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Pages.CreatePage(context.Background(), CreatePageInput{Slug: "orphan", Title: "Orphan"})
	require.ErrorIs(t, err, ErrStructural)

	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ReasonRootCreation, se.Reason)

	count, err := store.New(env.db).CountRootPages(context.Background(), env.site.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCreatePage_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.createPage(t, env.root.ID, "taken", "Taken")
	missing := int64(9999)

	tests := []struct {
		name string
		in   CreatePageInput
		want error
	}{
		{"missing parent", CreatePageInput{ParentID: &missing, Slug: "x", Title: "X"}, ErrNotFound},
		{"empty title", CreatePageInput{ParentID: &env.root.ID, Slug: "x", Title: ""}, ErrValidation},
		{"blank title", CreatePageInput{ParentID: &env.root.ID, Slug: "x", Title: "   "}, ErrValidation},
		{"long title", CreatePageInput{ParentID: &env.root.ID, Slug: "x", Title: strings.Repeat("a", 256)}, ErrValidation},
		{"slug with space", CreatePageInput{ParentID: &env.root.ID, Slug: "a b", Title: "X"}, ErrValidation},
		{"slug leading slash", CreatePageInput{ParentID: &env.root.ID, Slug: "/a", Title: "X"}, ErrValidation},
		{"slug double slash", CreatePageInput{ParentID: &env.root.ID, Slug: "a//b", Title: "X"}, ErrValidation},
		{"negative position", CreatePageInput{ParentID: &env.root.ID, Slug: "x", Title: "X", Position: int64Ptr(-1)}, ErrValidation},
		{"bad sort mode", CreatePageInput{ParentID: &env.root.ID, Slug: "x", Title: "X", SortMode: "random"}, ErrValidation},
		{"duplicate slug", CreatePageInput{ParentID: &env.root.ID, Slug: "taken", Title: "Again"}, ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Pages.CreatePage(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreatePage_SameSlugDifferentParents(t *testing.T) {
	env := newTestEnv(t)

	a := env.createPage(t, env.root.ID, "a", "A")
	b := env.createPage(t, env.root.ID, "b", "B")

	first := env.createPage(t, a.ID, "team", "Team")
	second := env.createPage(t, b.ID, "team", "Team")
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreatePage_AutoSlug(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.svc.Pages.CreatePage(ctx, CreatePageInput{ParentID: &env.root.ID, Title: "About Us"})
	require.NoError(t, err)
	assert.Equal(t, "about-us", first.Slug)

	second, err := env.svc.Pages.CreatePage(ctx, CreatePageInput{ParentID: &env.root.ID, Title: "About Us!"})
	require.NoError(t, err)
	assert.Equal(t, "about-us-2", second.Slug)

	untitled, err := env.svc.Pages.CreateWithAutoSlug(ctx, CreatePageInput{ParentID: &env.root.ID, Title: "***"})
	require.NoError(t, err)
	assert.Equal(t, "untitled", untitled.Slug)
}

func TestFindPages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	about := env.createPage(t, env.root.ID, "about", "About")

	found, err := env.svc.Pages.FindByID(ctx, about.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "About", found.Title)

	missing, err := env.svc.Pages.FindByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	bySlug, err := env.svc.Pages.FindBySlugAndSite(ctx, "about", env.site.ID)
	require.NoError(t, err)
	require.NotNil(t, bySlug)
	assert.Equal(t, about.ID, bySlug.ID)

	none, err := env.svc.Pages.FindBySlugAndSite(ctx, "about", env.site.ID+1)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = env.svc.Pages.Get(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	root, err := env.svc.Pages.Root(ctx, env.site.ID)
	require.NoError(t, err)
	assert.Equal(t, env.root.ID, root.ID)
	assert.Equal(t, "", root.Slug)
	assert.Equal(t, "Home", root.Title)
}

func TestListChildren(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b := env.createPage(t, env.root.ID, "b", "Bravo")
	a, err := env.svc.Pages.CreatePage(ctx, CreatePageInput{
		ParentID: &env.root.ID, Slug: "a", Title: "Alpha", Position: int64Ptr(1),
	})
	require.NoError(t, err)
	c, err := env.svc.Pages.CreatePage(ctx, CreatePageInput{
		ParentID: &env.root.ID, Slug: "c", Title: "Charlie", Position: int64Ptr(0),
	})
	require.NoError(t, err)

	children, err := env.svc.Pages.ListChildren(ctx, env.root.ID)
	require.NoError(t, err)
	// b and c share position 0 and are ordered by slug
	assert.Equal(t, []int64{b.ID, c.ID, a.ID}, pageIDs(children))

	none, err := env.svc.Pages.ListChildren(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListChildrenSorted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	parent := env.createPage(t, env.root.ID, "blog", "Blog")

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var created []store.Page
	for i, title := range []string{"Charlie", "Alpha", "Bravo"} {
		at := base.Add(time.Duration(i) * time.Hour)
		env.svc.Pages.now = func() time.Time { return at }
		created = append(created, env.createPage(t, parent.ID, strings.ToLower(title), title))
	}
	charlie, alpha, bravo := created[0].ID, created[1].ID, created[2].ID

	tests := []struct {
		mode string
		want []int64
	}{
		{string(model.SortManual), []int64{charlie, alpha, bravo}},
		{string(model.SortTitleAsc), []int64{alpha, bravo, charlie}},
		{string(model.SortTitleDesc), []int64{charlie, bravo, alpha}},
		{string(model.SortCreatedAtAsc), []int64{charlie, alpha, bravo}},
		{string(model.SortCreatedAtDesc), []int64{bravo, alpha, charlie}},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			_, err := env.svc.Pages.Update(ctx, UpdatePageInput{ID: parent.ID, SortMode: &tt.mode})
			require.NoError(t, err)

			children, err := env.svc.Pages.ListChildrenSorted(ctx, parent.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pageIDs(children))
		})
	}

	t.Run("unknown stored mode falls back to manual", func(t *testing.T) {
		_, err := env.db.ExecContext(ctx, `UPDATE pages SET sort_mode = 'shuffle' WHERE id = ?`, parent.ID)
		require.NoError(t, err)

		children, err := env.svc.Pages.ListChildrenSorted(ctx, parent.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{charlie, alpha, bravo}, pageIDs(children))
	})

	t.Run("missing parent", func(t *testing.T) {
		_, err := env.svc.Pages.ListChildrenSorted(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestBreadcrumbs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.createPage(t, env.root.ID, "a", "A")
	b := env.createPage(t, a.ID, "b", "B")
	c := env.createPage(t, b.ID, "c", "C")

	trail, err := env.svc.Pages.Breadcrumbs(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{env.root.ID, a.ID, b.ID, c.ID}, pageIDs(trail))

	rootTrail, err := env.svc.Pages.Breadcrumbs(ctx, env.root.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{env.root.ID}, pageIDs(rootTrail))

	missing, err := env.svc.Pages.Breadcrumbs(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestIsDescendantOf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.createPage(t, env.root.ID, "a", "A")
	b := env.createPage(t, a.ID, "b", "B")
	c := env.createPage(t, b.ID, "c", "C")
	other := env.createPage(t, env.root.ID, "other", "Other")

	tests := []struct {
		name       string
		id         int64
		ancestorID int64
		want       bool
	}{
		{"child of parent", b.ID, a.ID, true},
		{"grandchild", c.ID, a.ID, true},
		{"everything under root", c.ID, env.root.ID, true},
		{"parent of child", a.ID, b.ID, false},
		{"self", a.ID, a.ID, false},
		{"sibling branch", c.ID, other.ID, false},
		{"root has no ancestors", env.root.ID, a.ID, false},
		{"missing page", 9999, a.ID, false},
		{"missing ancestor", c.ID, 9999, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.svc.Pages.IsDescendantOf(ctx, tt.id, tt.ancestorID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsDescendantOf_Antisymmetric(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.createPage(t, env.root.ID, "a", "A")
	b := env.createPage(t, a.ID, "b", "B")
	c := env.createPage(t, env.root.ID, "c", "C")
	d := env.createPage(t, c.ID, "d", "D")
	ids := []int64{env.root.ID, a.ID, b.ID, c.ID, d.ID}

	for _, x := range ids {
		for _, y := range ids {
			if x == y {
				continue
			}
			xy, err := env.svc.Pages.IsDescendantOf(ctx, x, y)
			require.NoError(t, err)
			yx, err := env.svc.Pages.IsDescendantOf(ctx, y, x)
			require.NoError(t, err)
			assert.False(t, xy && yx, "pages %d and %d are descendants of each other", x, y)
		}
	}
}

func TestDescendants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.createPage(t, env.root.ID, "a", "A")
	a1 := env.createPage(t, a.ID, "a1", "A1")
	a2 := env.createPage(t, a.ID, "a2", "A2")
	a1x := env.createPage(t, a1.ID, "x", "X")
	b := env.createPage(t, env.root.ID, "b", "B")

	all, err := env.svc.Pages.Descendants(ctx, env.root.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, b.ID, a1.ID, a2.ID, a1x.ID}, pageIDs(all))

	sub, err := env.svc.Pages.Descendants(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{a1.ID, a2.ID, a1x.ID}, pageIDs(sub))

	leaf, err := env.svc.Pages.Descendants(ctx, a1x.ID)
	require.NoError(t, err)
	assert.Empty(t, leaf)
}

func TestDeletePage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	q := store.New(env.db)

	parent := env.createPage(t, env.root.ID, "parent", "Parent")
	child := env.createPage(t, parent.ID, "child", "Child")

	draft, err := env.svc.Drafts.GetOrCreateDraft(ctx, parent.ID, "editor")
	require.NoError(t, err)
	_, err = env.svc.Components.Add(ctx, AddComponentInput{
		VersionID:     draft.Version.ID,
		ComponentType: model.ComponentText,
		Content:       []byte(`{"text":"hello"}`),
	})
	require.NoError(t, err)

	err = env.svc.Pages.Delete(ctx, parent.ID)
	require.ErrorIs(t, err, ErrStructural)
	assert.Contains(t, err.Error(), "because it has 1 child page(s)")

	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, int64(1), se.ChildCount)

	require.NoError(t, env.svc.Pages.Delete(ctx, child.ID))
	require.NoError(t, env.svc.Pages.Delete(ctx, parent.ID))

	_, err = env.svc.Pages.Get(ctx, parent.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	versions, err := q.CountPageVersions(ctx, parent.ID)
	require.NoError(t, err)
	assert.Zero(t, versions)
	components, err := q.CountComponentsByPage(ctx, parent.ID)
	require.NoError(t, err)
	assert.Zero(t, components)
}

func TestDeletePage_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.svc.Pages.Delete(ctx, env.root.ID)
	require.ErrorIs(t, err, ErrStructural)
	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ReasonRootDeletion, se.Reason)

	assert.ErrorIs(t, env.svc.Pages.Delete(ctx, 9999), ErrNotFound)

	hasChildren, err := env.svc.Pages.HasChildren(ctx, env.root.ID)
	require.NoError(t, err)
	assert.False(t, hasChildren)
}

func TestReorderSiblings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.createPage(t, env.root.ID, "a", "A")
	b := env.createPage(t, env.root.ID, "b", "B")
	c := env.createPage(t, env.root.ID, "c", "C")
	nested := env.createPage(t, a.ID, "nested", "Nested")

	err := env.svc.Pages.ReorderSiblings(ctx, env.root.ID, []model.PagePosition{
		{ID: c.ID, Position: 0},
		{ID: a.ID, Position: 1},
		{ID: b.ID, Position: 2},
	})
	require.NoError(t, err)

	children, err := env.svc.Pages.ListChildren(ctx, env.root.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID, a.ID, b.ID}, pageIDs(children))

	t.Run("wrong parent rolls back", func(t *testing.T) {
		err := env.svc.Pages.ReorderSiblings(ctx, env.root.ID, []model.PagePosition{
			{ID: b.ID, Position: 0},
			{ID: nested.ID, Position: 1},
		})
		require.ErrorIs(t, err, ErrStructural)

		assert.Equal(t, int64(2), env.mustGet(t, b.ID).Position)
	})

	t.Run("missing page", func(t *testing.T) {
		err := env.svc.Pages.ReorderSiblings(ctx, env.root.ID, []model.PagePosition{{ID: 9999, Position: 0}})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("negative position", func(t *testing.T) {
		err := env.svc.Pages.ReorderSiblings(ctx, env.root.ID, []model.PagePosition{{ID: a.ID, Position: -1}})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestUpdatePage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	about := env.createPage(t, env.root.ID, "about", "About")
	env.createPage(t, env.root.ID, "contact", "Contact")

	updated, err := env.svc.Pages.Update(ctx, UpdatePageInput{
		ID:          about.ID,
		Title:       strPtr("About Us"),
		Slug:        strPtr("about-us"),
		Description: strPtr("Who we are"),
	})
	require.NoError(t, err)
	assert.Equal(t, "About Us", updated.Title)
	assert.Equal(t, "about-us", updated.Slug)
	assert.Equal(t, "Who we are", updated.Description.String)
	assert.Equal(t, store.DefaultTemplate, updated.Template)

	_, err = env.svc.Pages.Update(ctx, UpdatePageInput{ID: about.ID, Slug: strPtr("contact")})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.svc.Pages.Update(ctx, UpdatePageInput{ID: about.ID, Title: strPtr("")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.svc.Pages.Update(ctx, UpdatePageInput{ID: env.root.ID, Slug: strPtr("home")})
	assert.ErrorIs(t, err, ErrStructural)

	root, err := env.svc.Pages.Update(ctx, UpdatePageInput{ID: env.root.ID, Title: strPtr("Start")})
	require.NoError(t, err)
	assert.Equal(t, "", root.Slug)
	assert.Equal(t, "Start", root.Title)

	_, err = env.svc.Pages.Update(ctx, UpdatePageInput{ID: 9999, Title: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidMoveTargets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.createPage(t, env.root.ID, "a", "A")
	a1 := env.createPage(t, a.ID, "a1", "A1")
	env.createPage(t, a1.ID, "deep", "Deep")
	b := env.createPage(t, env.root.ID, "b", "B")

	targets, err := env.svc.Pages.ValidMoveTargets(ctx, a1.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{env.root.ID, b.ID}, pageIDs(targets))

	_, err = env.svc.Pages.ValidMoveTargets(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
