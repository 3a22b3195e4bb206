// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const pageColumns = `id, site_id, parent_page_id, slug, title, description, template, position, sort_mode, created_at, updated_at`

func scanPage(row interface{ Scan(...any) error }) (Page, error) {
	var i Page
	err := row.Scan(
		&i.ID,
		&i.SiteID,
		&i.ParentPageID,
		&i.Slug,
		&i.Title,
		&i.Description,
		&i.Template,
		&i.Position,
		&i.SortMode,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) listPages(ctx context.Context, query string, args ...any) ([]Page, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Page
	for rows.Next() {
		i, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createPage = `INSERT INTO pages (site_id, parent_page_id, slug, title, description, template, position, sort_mode, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + pageColumns

type CreatePageParams struct {
	SiteID       int64
	ParentPageID sql.NullInt64
	Slug         string
	Title        string
	Description  sql.NullString
	Template     string
	Position     int64
	SortMode     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (q *Queries) CreatePage(ctx context.Context, arg CreatePageParams) (Page, error) {
	row := q.db.QueryRowContext(ctx, createPage,
		arg.SiteID,
		arg.ParentPageID,
		arg.Slug,
		arg.Title,
		arg.Description,
		arg.Template,
		arg.Position,
		arg.SortMode,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanPage(row)
}

const getPageByID = `SELECT ` + pageColumns + ` FROM pages WHERE id = ?`

func (q *Queries) GetPageByID(ctx context.Context, id int64) (Page, error) {
	return scanPage(q.db.QueryRowContext(ctx, getPageByID, id))
}

const getPageBySlugAndSite = `SELECT ` + pageColumns + ` FROM pages
WHERE slug = ? AND site_id = ?
ORDER BY id
LIMIT 1`

func (q *Queries) GetPageBySlugAndSite(ctx context.Context, slug string, siteID int64) (Page, error) {
	return scanPage(q.db.QueryRowContext(ctx, getPageBySlugAndSite, slug, siteID))
}

const getRootPage = `SELECT ` + pageColumns + ` FROM pages WHERE site_id = ? AND parent_page_id IS NULL`

func (q *Queries) GetRootPage(ctx context.Context, siteID int64) (Page, error) {
	return scanPage(q.db.QueryRowContext(ctx, getRootPage, siteID))
}

const countRootPages = `SELECT COUNT(*) FROM pages WHERE site_id = ? AND parent_page_id IS NULL`

func (q *Queries) CountRootPages(ctx context.Context, siteID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countRootPages, siteID).Scan(&count)
	return count, err
}

const listPagesBySite = `SELECT ` + pageColumns + ` FROM pages
WHERE site_id = ?
ORDER BY parent_page_id IS NOT NULL, parent_page_id, position, slug`

func (q *Queries) ListPagesBySite(ctx context.Context, siteID int64) ([]Page, error) {
	return q.listPages(ctx, listPagesBySite, siteID)
}

const listChildPages = `SELECT ` + pageColumns + ` FROM pages
WHERE parent_page_id = ?
ORDER BY position ASC, slug ASC`

func (q *Queries) ListChildPages(ctx context.Context, parentID int64) ([]Page, error) {
	return q.listPages(ctx, listChildPages, parentID)
}

// ChildOrder selects one of the fixed ORDER BY clauses for child listings.
type ChildOrder int

const (
	OrderManual ChildOrder = iota
	OrderCreatedAtAsc
	OrderCreatedAtDesc
	OrderTitleAsc
	OrderTitleDesc
)

var childOrderClauses = map[ChildOrder]string{
	OrderManual:        "position ASC, slug ASC",
	OrderCreatedAtAsc:  "created_at ASC, id ASC",
	OrderCreatedAtDesc: "created_at DESC, id DESC",
	OrderTitleAsc:      "title ASC, id ASC",
	OrderTitleDesc:     "title DESC, id DESC",
}

// ListChildPagesOrdered lists the children of parentID in the given order.
// Unknown orders fall back to the manual (position, slug) order.
func (q *Queries) ListChildPagesOrdered(ctx context.Context, parentID int64, order ChildOrder) ([]Page, error) {
	clause, ok := childOrderClauses[order]
	if !ok {
		clause = childOrderClauses[OrderManual]
	}
	query := `SELECT ` + pageColumns + ` FROM pages WHERE parent_page_id = ? ORDER BY ` + clause
	return q.listPages(ctx, query, parentID)
}

const getPageParentID = `SELECT parent_page_id FROM pages WHERE id = ?`

func (q *Queries) GetPageParentID(ctx context.Context, id int64) (sql.NullInt64, error) {
	var parentID sql.NullInt64
	err := q.db.QueryRowContext(ctx, getPageParentID, id).Scan(&parentID)
	return parentID, err
}

const countChildPages = `SELECT COUNT(*) FROM pages WHERE parent_page_id = ?`

func (q *Queries) CountChildPages(ctx context.Context, parentID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countChildPages, parentID).Scan(&count)
	return count, err
}

const countSiblingsWithSlug = `SELECT COUNT(*) FROM pages
WHERE site_id = ? AND parent_page_id IS ? AND slug = ?`

func (q *Queries) CountSiblingsWithSlug(ctx context.Context, siteID int64, parentID sql.NullInt64, slug string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countSiblingsWithSlug, siteID, parentID, slug).Scan(&count)
	return count, err
}

const getSiblingIDWithSlug = `SELECT id FROM pages
WHERE site_id = ? AND parent_page_id = ? AND slug = ? AND id != ?
LIMIT 1`

// GetSiblingIDWithSlug returns the id of a page other than excludeID that
// already uses slug under parentID, or sql.ErrNoRows.
func (q *Queries) GetSiblingIDWithSlug(ctx context.Context, siteID, parentID int64, slug string, excludeID int64) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, getSiblingIDWithSlug, siteID, parentID, slug, excludeID).Scan(&id)
	return id, err
}

const getMaxChildPosition = `SELECT MAX(position) FROM pages WHERE parent_page_id = ?`

func (q *Queries) GetMaxChildPosition(ctx context.Context, parentID int64) (sql.NullInt64, error) {
	var pos sql.NullInt64
	err := q.db.QueryRowContext(ctx, getMaxChildPosition, parentID).Scan(&pos)
	return pos, err
}

const updatePageParent = `UPDATE pages SET parent_page_id = ?, position = ?, updated_at = ? WHERE id = ?`

func (q *Queries) UpdatePageParent(ctx context.Context, id, parentID, position int64, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, updatePageParent, parentID, position, updatedAt, id)
	return err
}

const updatePagePosition = `UPDATE pages SET position = ?, updated_at = ? WHERE id = ?`

func (q *Queries) UpdatePagePosition(ctx context.Context, id, position int64, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, updatePagePosition, position, updatedAt, id)
	return err
}

const updatePage = `UPDATE pages
SET slug = ?, title = ?, description = ?, template = ?, sort_mode = ?, updated_at = ?
WHERE id = ?
RETURNING ` + pageColumns

type UpdatePageParams struct {
	ID          int64
	Slug        string
	Title       string
	Description sql.NullString
	Template    string
	SortMode    string
	UpdatedAt   time.Time
}

func (q *Queries) UpdatePage(ctx context.Context, arg UpdatePageParams) (Page, error) {
	row := q.db.QueryRowContext(ctx, updatePage,
		arg.Slug,
		arg.Title,
		arg.Description,
		arg.Template,
		arg.SortMode,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanPage(row)
}

const deleteComponentsByPage = `DELETE FROM components
WHERE page_version_id IN (SELECT id FROM page_versions WHERE page_id = ?)`

func (q *Queries) DeleteComponentsByPage(ctx context.Context, pageID int64) (int64, error) {
	return q.execRows(ctx, deleteComponentsByPage, pageID)
}

const deletePageVersionsByPage = `DELETE FROM page_versions WHERE page_id = ?`

func (q *Queries) DeletePageVersionsByPage(ctx context.Context, pageID int64) (int64, error) {
	return q.execRows(ctx, deletePageVersionsByPage, pageID)
}

const deletePage = `DELETE FROM pages WHERE id = ?`

func (q *Queries) DeletePage(ctx context.Context, id int64) (int64, error) {
	return q.execRows(ctx, deletePage, id)
}

func (q *Queries) execRows(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
