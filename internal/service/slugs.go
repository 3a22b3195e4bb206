// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"

	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/util"
)

// SlugAllocator derives slugs from titles and resolves collisions among siblings.
type SlugAllocator struct {
	queries *store.Queries
}

// NewSlugAllocator creates a new SlugAllocator.
func NewSlugAllocator(db store.DBTX) *SlugAllocator {
	return &SlugAllocator{queries: store.New(db)}
}

// SlugFromTitle derives a URL-safe slug from title.
func (a *SlugAllocator) SlugFromTitle(title string) string {
	return util.Slugify(title)
}

// GenerateUniqueSlug returns baseSlug if no sibling under (siteID, parentID)
// uses it, otherwise the first free "baseSlug-N" for N = 2, 3, ...
// A nil parentID probes among root-level pages.
func (a *SlugAllocator) GenerateUniqueSlug(ctx context.Context, siteID int64, parentID *int64, baseSlug string) (string, error) {
	parent := util.NullInt64FromPtr(parentID)

	slug := baseSlug
	for suffix := 2; ; suffix++ {
		taken, err := a.isTaken(ctx, siteID, parent, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = util.WithSuffix(baseSlug, suffix)
	}
}

func (a *SlugAllocator) isTaken(ctx context.Context, siteID int64, parent sql.NullInt64, slug string) (bool, error) {
	count, err := a.queries.CountSiblingsWithSlug(ctx, siteID, parent, slug)
	if err != nil {
		return false, ioErr("checking slug existence", err)
	}
	return count > 0, nil
}
