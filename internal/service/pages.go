// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/util"
)

// PageTree owns the page nodes of every site stored in one database:
// creation, lookup, ordered listing, ancestor queries and deletion.
type PageTree struct {
	db      *sql.DB
	queries *store.Queries
	slugs   *SlugAllocator
	events  *EventService
	logger  *slog.Logger
	now     func() time.Time
}

// NewPageTree creates a new PageTree.
func NewPageTree(db *sql.DB, slugs *SlugAllocator, events *EventService, logger *slog.Logger) *PageTree {
	return &PageTree{
		db:      db,
		queries: store.New(db),
		slugs:   slugs,
		events:  events,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreatePageInput describes a new page. ParentID is required; root pages
// only come into existence together with their site.
type CreatePageInput struct {
	ParentID    *int64
	Slug        string
	Title       string
	Description string
	Template    string
	SortMode    string
	// Position defaults to one past the last sibling.
	Position *int64
}

func (in *CreatePageInput) applyDefaults() {
	if in.Template == "" {
		in.Template = store.DefaultTemplate
	}
	if in.SortMode == "" {
		in.SortMode = string(model.SortManual)
	}
}

func (in CreatePageInput) validate() error {
	if err := validateTitle(in.Title); err != nil {
		return err
	}
	if err := validateSlug(in.Slug); err != nil {
		return err
	}
	if err := validateDescription(in.Description); err != nil {
		return err
	}
	if err := validateTemplate(in.Template); err != nil {
		return err
	}
	if err := validateSortMode(in.SortMode); err != nil {
		return err
	}
	if in.Position != nil {
		if err := validatePosition(*in.Position); err != nil {
			return err
		}
	}
	return nil
}

// CreatePage creates a page under an existing parent. An empty slug is
// derived from the title and made unique among the new siblings; an explicit
// slug that is already taken fails with a ConflictError.
func (t *PageTree) CreatePage(ctx context.Context, in CreatePageInput) (store.Page, error) {
	if in.Slug == "" {
		return t.CreateWithAutoSlug(ctx, in)
	}
	return t.Create(ctx, in)
}

// Create inserts a page with the given slug.
func (t *PageTree) Create(ctx context.Context, in CreatePageInput) (store.Page, error) {
	if in.ParentID == nil {
		return store.Page{}, &StructuralError{Reason: ReasonRootCreation}
	}
	in.applyDefaults()
	if err := in.validate(); err != nil {
		return store.Page{}, err
	}

	parentID := *in.ParentID
	var page store.Page
	err := inTx(ctx, t.db, func(q *store.Queries) error {
		parent, err := q.GetPageByID(ctx, parentID)
		if errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{Entity: EntityPage, ID: parentID}
		}
		if err != nil {
			return ioErr("getting parent page", err)
		}

		taken, err := q.CountSiblingsWithSlug(ctx, parent.SiteID, util.NullInt64FromValue(parentID), in.Slug)
		if err != nil {
			return ioErr("checking slug existence", err)
		}
		if taken > 0 {
			return &ConflictError{Entity: EntityPage, Field: "slug", Value: in.Slug, ParentID: parentID}
		}

		position, err := nextChildPosition(ctx, q, parentID, in.Position)
		if err != nil {
			return err
		}

		now := t.now()
		page, err = q.CreatePage(ctx, store.CreatePageParams{
			SiteID:       parent.SiteID,
			ParentPageID: util.NullInt64FromValue(parentID),
			Slug:         in.Slug,
			Title:        in.Title,
			Description:  util.NullStringFromValue(in.Description),
			Template:     in.Template,
			Position:     position,
			SortMode:     in.SortMode,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			if store.IsUniqueViolation(err) {
				return &ConflictError{Entity: EntityPage, Field: "slug", Value: in.Slug, ParentID: parentID}
			}
			return ioErr("creating page", err)
		}
		return nil
	})
	if err != nil {
		return store.Page{}, err
	}

	t.events.LogPageEvent(ctx, "page created", map[string]any{
		"page_id":   page.ID,
		"parent_id": parentID,
		"slug":      page.Slug,
	})
	return page, nil
}

// CreateWithAutoSlug derives the slug from the title when it is empty and
// then replaces it with the first free variant among the new siblings.
func (t *PageTree) CreateWithAutoSlug(ctx context.Context, in CreatePageInput) (store.Page, error) {
	if in.ParentID == nil {
		return store.Page{}, &StructuralError{Reason: ReasonRootCreation}
	}
	if err := validateTitle(in.Title); err != nil {
		return store.Page{}, err
	}

	parent, err := t.Get(ctx, *in.ParentID)
	if err != nil {
		return store.Page{}, err
	}

	if in.Slug == "" {
		in.Slug = t.slugs.SlugFromTitle(in.Title)
	}
	in.Slug, err = t.slugs.GenerateUniqueSlug(ctx, parent.SiteID, in.ParentID, in.Slug)
	if err != nil {
		return store.Page{}, err
	}

	return t.Create(ctx, in)
}

func nextChildPosition(ctx context.Context, q *store.Queries, parentID int64, requested *int64) (int64, error) {
	if requested != nil {
		return *requested, nil
	}
	maxPos, err := q.GetMaxChildPosition(ctx, parentID)
	if err != nil {
		return 0, ioErr("getting max position", err)
	}
	if !maxPos.Valid {
		return 0, nil
	}
	return maxPos.Int64 + 1, nil
}

// FindByID returns the page with id, or nil if there is none.
func (t *PageTree) FindByID(ctx context.Context, id int64) (*store.Page, error) {
	page, err := t.queries.GetPageByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ioErr("finding page by id", err)
	}
	return &page, nil
}

// FindBySlugAndSite returns the first page of siteID with slug, or nil.
func (t *PageTree) FindBySlugAndSite(ctx context.Context, slug string, siteID int64) (*store.Page, error) {
	page, err := t.queries.GetPageBySlugAndSite(ctx, slug, siteID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ioErr("finding page by slug", err)
	}
	return &page, nil
}

// Get returns the page with id or a NotFoundError.
func (t *PageTree) Get(ctx context.Context, id int64) (store.Page, error) {
	page, err := t.FindByID(ctx, id)
	if err != nil {
		return store.Page{}, err
	}
	if page == nil {
		return store.Page{}, &NotFoundError{Entity: EntityPage, ID: id}
	}
	return *page, nil
}

// Root returns the root page of siteID.
func (t *PageTree) Root(ctx context.Context, siteID int64) (store.Page, error) {
	page, err := t.queries.GetRootPage(ctx, siteID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Page{}, &NotFoundError{Entity: EntitySite, ID: siteID}
	}
	if err != nil {
		return store.Page{}, ioErr("getting root page", err)
	}
	return page, nil
}

// ListBySite returns every page of siteID, root first.
func (t *PageTree) ListBySite(ctx context.Context, siteID int64) ([]store.Page, error) {
	pages, err := t.queries.ListPagesBySite(ctx, siteID)
	if err != nil {
		return nil, ioErr("listing site pages", err)
	}
	return pages, nil
}

// ListChildren returns the children of parentID ordered by (position, slug).
func (t *PageTree) ListChildren(ctx context.Context, parentID int64) ([]store.Page, error) {
	pages, err := t.queries.ListChildPages(ctx, parentID)
	if err != nil {
		return nil, ioErr("listing child pages", err)
	}
	return pages, nil
}

// ListChildrenSorted returns the children of parentID in the order chosen by
// the parent's sort mode. Unknown modes fall back to (position, slug).
func (t *PageTree) ListChildrenSorted(ctx context.Context, parentID int64) ([]store.Page, error) {
	parent, err := t.Get(ctx, parentID)
	if err != nil {
		return nil, err
	}

	pages, err := t.queries.ListChildPagesOrdered(ctx, parentID, childOrder(parent.SortMode))
	if err != nil {
		return nil, ioErr("listing sorted child pages", err)
	}
	return pages, nil
}

func childOrder(mode string) store.ChildOrder {
	switch model.SortMode(mode) {
	case model.SortCreatedAtAsc:
		return store.OrderCreatedAtAsc
	case model.SortCreatedAtDesc:
		return store.OrderCreatedAtDesc
	case model.SortTitleAsc:
		return store.OrderTitleAsc
	case model.SortTitleDesc:
		return store.OrderTitleDesc
	default:
		return store.OrderManual
	}
}

// HasChildren reports whether any page has id as its parent.
func (t *PageTree) HasChildren(ctx context.Context, id int64) (bool, error) {
	count, err := t.queries.CountChildPages(ctx, id)
	if err != nil {
		return false, ioErr("checking for child pages", err)
	}
	return count > 0, nil
}

// Breadcrumbs returns the path from the site root down to id.
// It is empty when id does not resolve.
func (t *PageTree) Breadcrumbs(ctx context.Context, id int64) ([]store.Page, error) {
	var trail []store.Page
	seen := make(map[int64]bool)

	current := sql.NullInt64{Int64: id, Valid: true}
	for current.Valid && !seen[current.Int64] {
		seen[current.Int64] = true
		page, err := t.FindByID(ctx, current.Int64)
		if err != nil {
			return nil, err
		}
		if page == nil {
			break
		}
		trail = append(trail, *page)
		current = page.ParentPageID
	}

	for i, j := 0, len(trail)-1; i < j; i, j = i+1, j-1 {
		trail[i], trail[j] = trail[j], trail[i]
	}
	return trail, nil
}

// IsDescendantOf reports whether ancestorID lies on the parent chain of id.
// A page is not its own descendant, and missing pages are never descendants.
func (t *PageTree) IsDescendantOf(ctx context.Context, id, ancestorID int64) (bool, error) {
	return isDescendantOf(ctx, t.queries, id, ancestorID)
}

// isDescendantOf walks parent pointers through q, which may be bound to a
// transaction so the walk sees that transaction's snapshot.
func isDescendantOf(ctx context.Context, q *store.Queries, id, ancestorID int64) (bool, error) {
	if id == ancestorID {
		return false, nil
	}

	seen := map[int64]bool{id: true}
	current := id
	for {
		parent, err := q.GetPageParentID(ctx, current)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, ioErr("fetching page parent", err)
		}
		if !parent.Valid {
			return false, nil
		}
		if parent.Int64 == ancestorID {
			return true, nil
		}
		if seen[parent.Int64] {
			return false, &IOError{Op: "walking ancestors", Err: fmt.Errorf("parent chain of page %d loops at page %d", id, parent.Int64)}
		}
		seen[parent.Int64] = true
		current = parent.Int64
	}
}

// Descendants returns the whole subtree below id, excluding id itself,
// sorted by (parent, position).
func (t *PageTree) Descendants(ctx context.Context, id int64) ([]store.Page, error) {
	var descendants []store.Page
	seen := map[int64]bool{id: true}
	stack := []int64{id}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := t.ListChildren(ctx, current)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if seen[child.ID] {
				continue
			}
			seen[child.ID] = true
			stack = append(stack, child.ID)
			descendants = append(descendants, child)
		}
	}

	sortByParentPosition(descendants)
	return descendants, nil
}

// sortByParentPosition groups siblings together, parentless pages first.
func sortByParentPosition(pages []store.Page) {
	sort.SliceStable(pages, func(i, j int) bool {
		a, b := pages[i], pages[j]
		if a.ParentPageID.Valid != b.ParentPageID.Valid {
			return !a.ParentPageID.Valid
		}
		if a.ParentPageID.Int64 != b.ParentPageID.Int64 {
			return a.ParentPageID.Int64 < b.ParentPageID.Int64
		}
		return a.Position < b.Position
	})
}

// ValidMoveTargets lists the pages id could be moved under: every page of
// its site except itself, its descendants and its current parent.
func (t *PageTree) ValidMoveTargets(ctx context.Context, id int64) ([]store.Page, error) {
	page, err := t.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	all, err := t.ListBySite(ctx, page.SiteID)
	if err != nil {
		return nil, err
	}
	descendants, err := t.Descendants(ctx, id)
	if err != nil {
		return nil, err
	}

	excluded := map[int64]bool{id: true}
	for _, d := range descendants {
		excluded[d.ID] = true
	}
	if page.ParentPageID.Valid {
		excluded[page.ParentPageID.Int64] = true
	}

	targets := make([]store.Page, 0, len(all))
	for _, p := range all {
		if !excluded[p.ID] {
			targets = append(targets, p)
		}
	}
	return targets, nil
}

// Delete removes a childless, non-root page together with all of its
// versions and their components in one transaction.
func (t *PageTree) Delete(ctx context.Context, id int64) error {
	var versionsDeleted, componentsDeleted int64
	err := inTx(ctx, t.db, func(q *store.Queries) error {
		page, err := q.GetPageByID(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{Entity: EntityPage, ID: id}
		}
		if err != nil {
			return ioErr("getting page", err)
		}
		if page.IsRoot() {
			return &StructuralError{Reason: ReasonRootDeletion, PageID: id}
		}

		children, err := q.CountChildPages(ctx, id)
		if err != nil {
			return ioErr("checking for child pages", err)
		}
		if children > 0 {
			return &StructuralError{Reason: ReasonHasChildren, PageID: id, ChildCount: children}
		}

		if componentsDeleted, err = q.DeleteComponentsByPage(ctx, id); err != nil {
			return ioErr("deleting page components", err)
		}
		if versionsDeleted, err = q.DeletePageVersionsByPage(ctx, id); err != nil {
			return ioErr("deleting page versions", err)
		}
		if _, err = q.DeletePage(ctx, id); err != nil {
			return ioErr("deleting page", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	t.events.LogPageEvent(ctx, "page deleted", map[string]any{
		"page_id":            id,
		"versions_deleted":   versionsDeleted,
		"components_deleted": componentsDeleted,
	})
	return nil
}

// ReorderSiblings assigns new positions to children of parentID atomically.
// Every listed page must currently have parentID as its parent.
func (t *PageTree) ReorderSiblings(ctx context.Context, parentID int64, positions []model.PagePosition) error {
	for _, p := range positions {
		if err := validatePosition(p.Position); err != nil {
			return err
		}
	}

	err := inTx(ctx, t.db, func(q *store.Queries) error {
		now := t.now()
		for _, p := range positions {
			parent, err := q.GetPageParentID(ctx, p.ID)
			if errors.Is(err, sql.ErrNoRows) {
				return &NotFoundError{Entity: EntityPage, ID: p.ID}
			}
			if err != nil {
				return ioErr("verifying page", err)
			}
			if !parent.Valid || parent.Int64 != parentID {
				return &StructuralError{Reason: ReasonWrongParent, PageID: p.ID, TargetID: parentID}
			}
			if err := q.UpdatePagePosition(ctx, p.ID, p.Position, now); err != nil {
				return ioErr("updating page position", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	t.events.LogPageEvent(ctx, "pages reordered", map[string]any{
		"parent_id": parentID,
		"count":     len(positions),
	})
	return nil
}

// UpdatePageInput carries the metadata fields to change; nil fields are kept.
type UpdatePageInput struct {
	ID          int64
	Title       *string
	Slug        *string
	Description *string
	Template    *string
	SortMode    *string
}

// Update changes page metadata. Slug changes are checked against the
// page's siblings; the root slug must stay empty.
func (t *PageTree) Update(ctx context.Context, in UpdatePageInput) (store.Page, error) {
	var updated store.Page
	err := inTx(ctx, t.db, func(q *store.Queries) error {
		page, err := q.GetPageByID(ctx, in.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{Entity: EntityPage, ID: in.ID}
		}
		if err != nil {
			return ioErr("getting page", err)
		}

		params := store.UpdatePageParams{
			ID:          page.ID,
			Slug:        page.Slug,
			Title:       page.Title,
			Description: page.Description,
			Template:    page.Template,
			SortMode:    page.SortMode,
			UpdatedAt:   t.now(),
		}

		if in.Title != nil {
			if err := validateTitle(*in.Title); err != nil {
				return err
			}
			params.Title = *in.Title
		}
		if in.Description != nil {
			if err := validateDescription(*in.Description); err != nil {
				return err
			}
			params.Description = util.NullStringFromValue(*in.Description)
		}
		if in.Template != nil {
			if err := validateTemplate(*in.Template); err != nil {
				return err
			}
			params.Template = *in.Template
		}
		if in.SortMode != nil {
			if err := validateSortMode(*in.SortMode); err != nil {
				return err
			}
			params.SortMode = *in.SortMode
		}
		if in.Slug != nil && *in.Slug != page.Slug {
			if page.IsRoot() {
				return &StructuralError{Reason: ReasonRootSlug, PageID: page.ID}
			}
			if err := validateSlug(*in.Slug); err != nil {
				return err
			}
			_, err := q.GetSiblingIDWithSlug(ctx, page.SiteID, page.ParentPageID.Int64, *in.Slug, page.ID)
			if err == nil {
				return &ConflictError{Entity: EntityPage, Field: "slug", Value: *in.Slug, ParentID: page.ParentPageID.Int64}
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return ioErr("checking slug conflict", err)
			}
			params.Slug = *in.Slug
		}

		updated, err = q.UpdatePage(ctx, params)
		if err != nil {
			if store.IsUniqueViolation(err) {
				return &ConflictError{Entity: EntityPage, Field: "slug", Value: params.Slug, ParentID: page.ParentPageID.Int64}
			}
			return ioErr("updating page", err)
		}
		return nil
	})
	if err != nil {
		return store.Page{}, err
	}

	t.events.LogPageEvent(ctx, "page updated", map[string]any{"page_id": updated.ID})
	return updated, nil
}
