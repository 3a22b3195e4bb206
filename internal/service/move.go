// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/olegiv/ocms-pagetree/internal/store"
)

// MoveEngine reparents pages and the subtrees below them.
type MoveEngine struct {
	db     *sql.DB
	events *EventService
	logger *slog.Logger
	now    func() time.Time
}

// NewMoveEngine creates a new MoveEngine.
func NewMoveEngine(db *sql.DB, events *EventService, logger *slog.Logger) *MoveEngine {
	return &MoveEngine{
		db:     db,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// MoveResult describes a completed move.
type MoveResult struct {
	PageID      int64 `json:"page_id"`
	OldParentID int64 `json:"old_parent_id"`
	NewParentID int64 `json:"new_parent_id"`
	Position    int64 `json:"position"`
	Moved       bool  `json:"moved"`
}

// MovePage makes newParentID the parent of pageID and appends it after the
// existing children there. All checks and the update run in one transaction;
// moving a page to the parent it already has succeeds without changes.
func (m *MoveEngine) MovePage(ctx context.Context, pageID, newParentID int64) (MoveResult, error) {
	result := MoveResult{PageID: pageID, NewParentID: newParentID}

	err := inTx(ctx, m.db, func(q *store.Queries) error {
		page, err := q.GetPageByID(ctx, pageID)
		if errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{Entity: EntityPage, ID: pageID}
		}
		if err != nil {
			return ioErr("getting page", err)
		}
		if page.IsRoot() {
			return &StructuralError{Reason: ReasonRootMove, PageID: pageID}
		}
		result.OldParentID = page.ParentPageID.Int64
		result.Position = page.Position

		target, err := q.GetPageByID(ctx, newParentID)
		if errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{Entity: EntityPage, ID: newParentID}
		}
		if err != nil {
			return ioErr("getting new parent page", err)
		}

		if target.SiteID != page.SiteID {
			return &StructuralError{Reason: ReasonCrossSiteMove, PageID: pageID, TargetID: newParentID}
		}

		if page.ParentPageID.Int64 == newParentID {
			return nil
		}

		if pageID == newParentID {
			return &StructuralError{Reason: ReasonMoveToSelf, PageID: pageID, TargetID: newParentID}
		}

		cyclic, err := isDescendantOf(ctx, q, newParentID, pageID)
		if err != nil {
			return err
		}
		if cyclic {
			return &StructuralError{Reason: ReasonMoveToDescendant, PageID: pageID, TargetID: newParentID}
		}

		_, err = q.GetSiblingIDWithSlug(ctx, page.SiteID, newParentID, page.Slug, pageID)
		if err == nil {
			return &ConflictError{Entity: EntityPage, Field: "slug", Value: page.Slug, ParentID: newParentID}
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return ioErr("checking slug conflict", err)
		}

		position, err := nextChildPosition(ctx, q, newParentID, nil)
		if err != nil {
			return err
		}

		if err := q.UpdatePageParent(ctx, pageID, newParentID, position, m.now()); err != nil {
			if store.IsUniqueViolation(err) {
				return &ConflictError{Entity: EntityPage, Field: "slug", Value: page.Slug, ParentID: newParentID}
			}
			return ioErr("updating page parent", err)
		}
		result.Position = position
		result.Moved = true
		return nil
	})
	if err != nil {
		return MoveResult{}, err
	}

	if result.Moved {
		m.events.LogPageEvent(ctx, "page moved", map[string]any{
			"page_id":       pageID,
			"old_parent_id": result.OldParentID,
			"new_parent_id": newParentID,
			"position":      result.Position,
		})
	}
	return result, nil
}
