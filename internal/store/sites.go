// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const siteColumns = `id, domain, title, created_at, updated_at`

func scanSite(row interface{ Scan(...any) error }) (Site, error) {
	var i Site
	err := row.Scan(&i.ID, &i.Domain, &i.Title, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const createSite = `INSERT INTO sites (domain, title, created_at, updated_at)
VALUES (?, ?, ?, ?)
RETURNING ` + siteColumns

type CreateSiteParams struct {
	Domain    string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) CreateSite(ctx context.Context, arg CreateSiteParams) (Site, error) {
	row := q.db.QueryRowContext(ctx, createSite, arg.Domain, arg.Title, arg.CreatedAt, arg.UpdatedAt)
	return scanSite(row)
}

const getSiteByDomain = `SELECT ` + siteColumns + ` FROM sites WHERE domain = ?`

func (q *Queries) GetSiteByDomain(ctx context.Context, domain string) (Site, error) {
	return scanSite(q.db.QueryRowContext(ctx, getSiteByDomain, domain))
}

const listSites = `SELECT ` + siteColumns + ` FROM sites ORDER BY domain`

func (q *Queries) ListSites(ctx context.Context) ([]Site, error) {
	rows, err := q.db.QueryContext(ctx, listSites)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Site
	for rows.Next() {
		i, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
