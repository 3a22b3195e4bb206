// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/util"
)

// VersionLedger manages the append-only version history of pages.
//
// The latest unpublished version of a page is its draft; the latest
// published version is its live content. Publish and Unpublish touch exactly
// one row, so older versions may keep their published flag.
type VersionLedger struct {
	db      *sql.DB
	queries *store.Queries
	now     func() time.Time
}

// NewVersionLedger creates a new VersionLedger.
func NewVersionLedger(db *sql.DB) *VersionLedger {
	return &VersionLedger{
		db:      db,
		queries: store.New(db),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateVersionInput describes a new page version.
type CreateVersionInput struct {
	PageID        int64
	VersionNumber int64
	CreatedBy     string
}

func (in CreateVersionInput) validate() error {
	if in.PageID <= 0 {
		return invalid("page_id", "invalid page ID")
	}
	if in.VersionNumber <= 0 {
		return invalid("version_number", "version number must be positive")
	}
	return nil
}

// NextVersionNumber returns one past the highest version number of pageID,
// or 1 if the page has no versions.
func (l *VersionLedger) NextVersionNumber(ctx context.Context, pageID int64) (int64, error) {
	return nextVersionNumber(ctx, l.queries, pageID)
}

func nextVersionNumber(ctx context.Context, q *store.Queries, pageID int64) (int64, error) {
	maxNumber, err := q.GetMaxVersionNumber(ctx, pageID)
	if err != nil {
		return 0, ioErr("getting max version number", err)
	}
	if !maxNumber.Valid {
		return 1, nil
	}
	return maxNumber.Int64 + 1, nil
}

// Create inserts an unpublished version.
func (l *VersionLedger) Create(ctx context.Context, in CreateVersionInput) (store.PageVersion, error) {
	return createVersion(ctx, l.queries, in, l.now())
}

func createVersion(ctx context.Context, q *store.Queries, in CreateVersionInput, now time.Time) (store.PageVersion, error) {
	if err := in.validate(); err != nil {
		return store.PageVersion{}, err
	}

	if _, err := q.GetPageParentID(ctx, in.PageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.PageVersion{}, &NotFoundError{Entity: EntityPage, ID: in.PageID}
		}
		return store.PageVersion{}, ioErr("getting page", err)
	}

	existing, err := q.CountVersionsWithNumber(ctx, in.PageID, in.VersionNumber)
	if err != nil {
		return store.PageVersion{}, ioErr("checking version number", err)
	}
	conflict := &ConflictError{
		Entity:   EntityVersion,
		Field:    "version_number",
		Value:    strconv.FormatInt(in.VersionNumber, 10),
		ParentID: in.PageID,
	}
	if existing > 0 {
		return store.PageVersion{}, conflict
	}

	version, err := q.CreatePageVersion(ctx, store.CreatePageVersionParams{
		PageID:        in.PageID,
		VersionNumber: in.VersionNumber,
		IsPublished:   false,
		CreatedBy:     util.NullStringFromValue(in.CreatedBy),
		CreatedAt:     now,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return store.PageVersion{}, conflict
		}
		return store.PageVersion{}, ioErr("creating page version", err)
	}
	return version, nil
}

// Get returns the version with id or a NotFoundError.
func (l *VersionLedger) Get(ctx context.Context, id int64) (store.PageVersion, error) {
	version, err := l.queries.GetPageVersionByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.PageVersion{}, &NotFoundError{Entity: EntityVersion, ID: id}
	}
	if err != nil {
		return store.PageVersion{}, ioErr("getting page version", err)
	}
	return version, nil
}

// ListByPage returns every version of pageID, newest first.
func (l *VersionLedger) ListByPage(ctx context.Context, pageID int64) ([]store.PageVersion, error) {
	versions, err := l.queries.ListPageVersions(ctx, pageID)
	if err != nil {
		return nil, ioErr("listing page versions", err)
	}
	return versions, nil
}

// Latest returns the highest-numbered version of pageID, or nil.
func (l *VersionLedger) Latest(ctx context.Context, pageID int64) (*store.PageVersion, error) {
	return optionalVersion(l.queries.GetLatestPageVersion(ctx, pageID))
}

// Draft returns the latest unpublished version of pageID, or nil.
func (l *VersionLedger) Draft(ctx context.Context, pageID int64) (*store.PageVersion, error) {
	return optionalVersion(l.queries.GetDraftVersion(ctx, pageID))
}

// Published returns the latest published version of pageID, or nil.
func (l *VersionLedger) Published(ctx context.Context, pageID int64) (*store.PageVersion, error) {
	return optionalVersion(l.queries.GetPublishedVersion(ctx, pageID))
}

func optionalVersion(v store.PageVersion, err error) (*store.PageVersion, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ioErr("getting page version", err)
	}
	return &v, nil
}

// Publish sets the published flag on versionID only.
func (l *VersionLedger) Publish(ctx context.Context, versionID int64) error {
	return setPublished(ctx, l.queries, versionID, true)
}

// Unpublish clears the published flag on versionID only.
func (l *VersionLedger) Unpublish(ctx context.Context, versionID int64) error {
	return setPublished(ctx, l.queries, versionID, false)
}

func setPublished(ctx context.Context, q *store.Queries, versionID int64, published bool) error {
	rows, err := q.SetVersionPublished(ctx, versionID, published)
	if err != nil {
		return ioErr("updating publish flag", err)
	}
	if rows == 0 {
		return &NotFoundError{Entity: EntityVersion, ID: versionID}
	}
	return nil
}

// DeleteDraft deletes versionID and its components if it is unpublished.
// A published or missing version is left alone and reported as false.
func (l *VersionLedger) DeleteDraft(ctx context.Context, versionID int64) (bool, error) {
	var deleted bool
	err := inTx(ctx, l.db, func(q *store.Queries) error {
		var err error
		deleted, err = deleteDraft(ctx, q, versionID)
		return err
	})
	return deleted, err
}

func deleteDraft(ctx context.Context, q *store.Queries, versionID int64) (bool, error) {
	if _, err := q.DeleteDraftComponents(ctx, versionID); err != nil {
		return false, ioErr("deleting draft components", err)
	}
	rows, err := q.DeleteDraftVersion(ctx, versionID)
	if err != nil {
		return false, ioErr("deleting draft version", err)
	}
	return rows > 0, nil
}

// ListOldVersions returns every version of pageID except excludeID.
func (l *VersionLedger) ListOldVersions(ctx context.Context, pageID, excludeID int64) ([]store.PageVersion, error) {
	versions, err := l.queries.ListOldVersions(ctx, pageID, excludeID)
	if err != nil {
		return nil, ioErr("listing old versions", err)
	}
	return versions, nil
}

// DeleteVersions removes the given versions and their components and
// returns how many versions were deleted. An empty list is a no-op.
func (l *VersionLedger) DeleteVersions(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int64
	err := inTx(ctx, l.db, func(q *store.Queries) error {
		var err error
		deleted, err = deleteVersions(ctx, q, ids)
		return err
	})
	return deleted, err
}

func deleteVersions(ctx context.Context, q *store.Queries, ids []int64) (int64, error) {
	if _, err := q.DeleteComponentsByVersions(ctx, ids); err != nil {
		return 0, ioErr("deleting version components", err)
	}
	deleted, err := q.DeletePageVersions(ctx, ids)
	if err != nil {
		return 0, ioErr("deleting versions", err)
	}
	return deleted, nil
}
