// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

const versionColumns = `id, page_id, version_number, is_published, created_by, created_at`

func scanPageVersion(row interface{ Scan(...any) error }) (PageVersion, error) {
	var i PageVersion
	err := row.Scan(
		&i.ID,
		&i.PageID,
		&i.VersionNumber,
		&i.IsPublished,
		&i.CreatedBy,
		&i.CreatedAt,
	)
	return i, err
}

func (q *Queries) listPageVersions(ctx context.Context, query string, args ...any) ([]PageVersion, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []PageVersion
	for rows.Next() {
		i, err := scanPageVersion(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createPageVersion = `INSERT INTO page_versions (page_id, version_number, is_published, created_by, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + versionColumns

type CreatePageVersionParams struct {
	PageID        int64
	VersionNumber int64
	IsPublished   bool
	CreatedBy     sql.NullString
	CreatedAt     time.Time
}

func (q *Queries) CreatePageVersion(ctx context.Context, arg CreatePageVersionParams) (PageVersion, error) {
	row := q.db.QueryRowContext(ctx, createPageVersion,
		arg.PageID,
		arg.VersionNumber,
		arg.IsPublished,
		arg.CreatedBy,
		arg.CreatedAt,
	)
	return scanPageVersion(row)
}

const getPageVersionByID = `SELECT ` + versionColumns + ` FROM page_versions WHERE id = ?`

func (q *Queries) GetPageVersionByID(ctx context.Context, id int64) (PageVersion, error) {
	return scanPageVersion(q.db.QueryRowContext(ctx, getPageVersionByID, id))
}

const listPageVersions = `SELECT ` + versionColumns + ` FROM page_versions
WHERE page_id = ?
ORDER BY version_number DESC`

func (q *Queries) ListPageVersions(ctx context.Context, pageID int64) ([]PageVersion, error) {
	return q.listPageVersions(ctx, listPageVersions, pageID)
}

const getLatestPageVersion = `SELECT ` + versionColumns + ` FROM page_versions
WHERE page_id = ?
ORDER BY version_number DESC
LIMIT 1`

func (q *Queries) GetLatestPageVersion(ctx context.Context, pageID int64) (PageVersion, error) {
	return scanPageVersion(q.db.QueryRowContext(ctx, getLatestPageVersion, pageID))
}

const getMaxVersionNumber = `SELECT MAX(version_number) FROM page_versions WHERE page_id = ?`

func (q *Queries) GetMaxVersionNumber(ctx context.Context, pageID int64) (sql.NullInt64, error) {
	var n sql.NullInt64
	err := q.db.QueryRowContext(ctx, getMaxVersionNumber, pageID).Scan(&n)
	return n, err
}

const countVersionsWithNumber = `SELECT COUNT(*) FROM page_versions WHERE page_id = ? AND version_number = ?`

func (q *Queries) CountVersionsWithNumber(ctx context.Context, pageID, versionNumber int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countVersionsWithNumber, pageID, versionNumber).Scan(&count)
	return count, err
}

const getDraftVersion = `SELECT ` + versionColumns + ` FROM page_versions
WHERE page_id = ? AND is_published = 0
ORDER BY version_number DESC
LIMIT 1`

func (q *Queries) GetDraftVersion(ctx context.Context, pageID int64) (PageVersion, error) {
	return scanPageVersion(q.db.QueryRowContext(ctx, getDraftVersion, pageID))
}

const getPublishedVersion = `SELECT ` + versionColumns + ` FROM page_versions
WHERE page_id = ? AND is_published = 1
ORDER BY version_number DESC
LIMIT 1`

func (q *Queries) GetPublishedVersion(ctx context.Context, pageID int64) (PageVersion, error) {
	return scanPageVersion(q.db.QueryRowContext(ctx, getPublishedVersion, pageID))
}

const setVersionPublished = `UPDATE page_versions SET is_published = ? WHERE id = ?`

func (q *Queries) SetVersionPublished(ctx context.Context, id int64, published bool) (int64, error) {
	return q.execRows(ctx, setVersionPublished, published, id)
}

const deleteDraftComponents = `DELETE FROM components
WHERE page_version_id = ?
  AND EXISTS (SELECT 1 FROM page_versions WHERE id = ? AND is_published = 0)`

func (q *Queries) DeleteDraftComponents(ctx context.Context, versionID int64) (int64, error) {
	return q.execRows(ctx, deleteDraftComponents, versionID, versionID)
}

const deleteDraftVersion = `DELETE FROM page_versions WHERE id = ? AND is_published = 0`

func (q *Queries) DeleteDraftVersion(ctx context.Context, id int64) (int64, error) {
	return q.execRows(ctx, deleteDraftVersion, id)
}

const listOldVersions = `SELECT ` + versionColumns + ` FROM page_versions
WHERE page_id = ? AND id != ?
ORDER BY version_number ASC`

func (q *Queries) ListOldVersions(ctx context.Context, pageID, excludeID int64) ([]PageVersion, error) {
	return q.listPageVersions(ctx, listOldVersions, pageID, excludeID)
}

// placeholders returns "?, ?, ..." with n markers and the ids as arguments.
func placeholders(ids []int64) (string, []any) {
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}
	return strings.Join(marks, ", "), args
}

func (q *Queries) DeleteComponentsByVersions(ctx context.Context, versionIDs []int64) (int64, error) {
	if len(versionIDs) == 0 {
		return 0, nil
	}
	marks, args := placeholders(versionIDs)
	return q.execRows(ctx, `DELETE FROM components WHERE page_version_id IN (`+marks+`)`, args...)
}

func (q *Queries) DeletePageVersions(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	marks, args := placeholders(ids)
	return q.execRows(ctx, `DELETE FROM page_versions WHERE id IN (`+marks+`)`, args...)
}

const countPageVersions = `SELECT COUNT(*) FROM page_versions WHERE page_id = ?`

func (q *Queries) CountPageVersions(ctx context.Context, pageID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPageVersions, pageID).Scan(&count)
	return count, err
}
