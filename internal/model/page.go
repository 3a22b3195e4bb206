// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain vocabulary shared by the store, service and API layers.
package model

// SortMode controls the display order of a page's children.
type SortMode string

// Sort modes
const (
	SortCreatedAtAsc  SortMode = "created_at_asc"
	SortCreatedAtDesc SortMode = "created_at_desc"
	SortTitleAsc      SortMode = "title_asc"
	SortTitleDesc     SortMode = "title_desc"
	SortManual        SortMode = "manual"
)

// SortModes lists every accepted sort mode.
var SortModes = []SortMode{
	SortCreatedAtAsc,
	SortCreatedAtDesc,
	SortTitleAsc,
	SortTitleDesc,
	SortManual,
}

// IsValid returns true if m is one of the known sort modes.
func (m SortMode) IsValid() bool {
	for _, v := range SortModes {
		if m == v {
			return true
		}
	}
	return false
}

// Field limits for pages.
const (
	MaxTitleLength       = 255
	MaxSlugLength        = 255
	MaxDescriptionLength = 500
	MaxTemplateLength    = 50
)

// PagePosition assigns a position to a page during sibling reordering.
type PagePosition struct {
	ID       int64 `json:"id"`
	Position int64 `json:"position"`
}
