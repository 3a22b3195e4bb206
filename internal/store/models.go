// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

type Site struct {
	ID        int64     `json:"id"`
	Domain    string    `json:"domain"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Page struct {
	ID           int64          `json:"id"`
	SiteID       int64          `json:"site_id"`
	ParentPageID sql.NullInt64  `json:"parent_page_id"`
	Slug         string         `json:"slug"`
	Title        string         `json:"title"`
	Description  sql.NullString `json:"description"`
	Template     string         `json:"template"`
	Position     int64          `json:"position"`
	SortMode     string         `json:"sort_mode"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// IsRoot reports whether p is the parentless root page of its site.
func (p Page) IsRoot() bool {
	return !p.ParentPageID.Valid
}

type PageVersion struct {
	ID            int64          `json:"id"`
	PageID        int64          `json:"page_id"`
	VersionNumber int64          `json:"version_number"`
	IsPublished   bool           `json:"is_published"`
	CreatedBy     sql.NullString `json:"created_by"`
	CreatedAt     time.Time      `json:"created_at"`
}

type Component struct {
	ID            int64          `json:"id"`
	PageVersionID int64          `json:"page_version_id"`
	ComponentType string         `json:"component_type"`
	Position      int64          `json:"position"`
	Content       string         `json:"content"`
	Title         sql.NullString `json:"title"`
	Template      string         `json:"template"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type Event struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}
