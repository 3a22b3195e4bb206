// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const componentColumns = `id, page_version_id, component_type, position, content, title, template, created_at, updated_at`

func scanComponent(row interface{ Scan(...any) error }) (Component, error) {
	var i Component
	err := row.Scan(
		&i.ID,
		&i.PageVersionID,
		&i.ComponentType,
		&i.Position,
		&i.Content,
		&i.Title,
		&i.Template,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createComponent = `INSERT INTO components (page_version_id, component_type, position, content, title, template, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + componentColumns

type CreateComponentParams struct {
	PageVersionID int64
	ComponentType string
	Position      int64
	Content       string
	Title         sql.NullString
	Template      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (q *Queries) CreateComponent(ctx context.Context, arg CreateComponentParams) (Component, error) {
	row := q.db.QueryRowContext(ctx, createComponent,
		arg.PageVersionID,
		arg.ComponentType,
		arg.Position,
		arg.Content,
		arg.Title,
		arg.Template,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanComponent(row)
}

const getComponentByID = `SELECT ` + componentColumns + ` FROM components WHERE id = ?`

func (q *Queries) GetComponentByID(ctx context.Context, id int64) (Component, error) {
	return scanComponent(q.db.QueryRowContext(ctx, getComponentByID, id))
}

const listComponentsByVersion = `SELECT ` + componentColumns + ` FROM components
WHERE page_version_id = ?
ORDER BY position ASC, id ASC`

func (q *Queries) ListComponentsByVersion(ctx context.Context, versionID int64) ([]Component, error) {
	rows, err := q.db.QueryContext(ctx, listComponentsByVersion, versionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Component
	for rows.Next() {
		i, err := scanComponent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateComponent = `UPDATE components
SET content = ?, title = ?, template = ?, updated_at = ?
WHERE id = ?
RETURNING ` + componentColumns

type UpdateComponentParams struct {
	ID        int64
	Content   string
	Title     sql.NullString
	Template  string
	UpdatedAt time.Time
}

func (q *Queries) UpdateComponent(ctx context.Context, arg UpdateComponentParams) (Component, error) {
	row := q.db.QueryRowContext(ctx, updateComponent,
		arg.Content,
		arg.Title,
		arg.Template,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanComponent(row)
}

const updateComponentPosition = `UPDATE components SET position = ?, updated_at = ? WHERE id = ?`

func (q *Queries) UpdateComponentPosition(ctx context.Context, id, position int64, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, updateComponentPosition, position, updatedAt, id)
	return err
}

const deleteComponent = `DELETE FROM components WHERE id = ?`

func (q *Queries) DeleteComponent(ctx context.Context, id int64) (int64, error) {
	return q.execRows(ctx, deleteComponent, id)
}

const getMaxComponentPosition = `SELECT MAX(position) FROM components WHERE page_version_id = ?`

func (q *Queries) GetMaxComponentPosition(ctx context.Context, versionID int64) (sql.NullInt64, error) {
	var pos sql.NullInt64
	err := q.db.QueryRowContext(ctx, getMaxComponentPosition, versionID).Scan(&pos)
	return pos, err
}

const copyComponents = `INSERT INTO components (page_version_id, component_type, position, content, title, template, created_at, updated_at)
SELECT ?, component_type, position, content, title, template, ?, ?
FROM components
WHERE page_version_id = ?
ORDER BY position ASC, id ASC`

// CopyComponents duplicates every component of fromVersionID into toVersionID.
func (q *Queries) CopyComponents(ctx context.Context, fromVersionID, toVersionID int64, now time.Time) (int64, error) {
	return q.execRows(ctx, copyComponents, toVersionID, now, now, fromVersionID)
}

const countComponentsByPage = `SELECT COUNT(*) FROM components
WHERE page_version_id IN (SELECT id FROM page_versions WHERE page_id = ?)`

func (q *Queries) CountComponentsByPage(ctx context.Context, pageID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countComponentsByPage, pageID).Scan(&count)
	return count, err
}
