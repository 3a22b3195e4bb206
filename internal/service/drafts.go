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

// DraftService implements the draft workflow on top of the version ledger:
// editing always happens on a draft forked from the live version.
type DraftService struct {
	db             *sql.DB
	queries        *store.Queries
	events         *EventService
	logger         *slog.Logger
	purgeOnPublish bool
	now            func() time.Time
}

// NewDraftService creates a new DraftService. When purgeOnPublish is set,
// publishing a draft deletes every other version of the page.
func NewDraftService(db *sql.DB, events *EventService, logger *slog.Logger, purgeOnPublish bool) *DraftService {
	return &DraftService{
		db:             db,
		queries:        store.New(db),
		events:         events,
		logger:         logger,
		purgeOnPublish: purgeOnPublish,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Draft is a draft version together with its components.
type Draft struct {
	Version    store.PageVersion `json:"version"`
	Components []store.Component `json:"components"`
	Created    bool              `json:"created"`
}

// PublishResult describes a published draft.
type PublishResult struct {
	PageID             int64 `json:"page_id"`
	VersionID          int64 `json:"published_version_id"`
	VersionNumber      int64 `json:"version_number"`
	OldVersionsDeleted int64 `json:"old_versions_deleted"`
}

// GetOrCreateDraft returns the current draft of pageID. When the latest
// version is published it creates the next version and copies the latest
// version's components into it.
func (s *DraftService) GetOrCreateDraft(ctx context.Context, pageID int64, createdBy string) (Draft, error) {
	var draft Draft
	err := inTx(ctx, s.db, func(q *store.Queries) error {
		if _, err := q.GetPageParentID(ctx, pageID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &NotFoundError{Entity: EntityPage, ID: pageID}
			}
			return ioErr("getting page", err)
		}

		latest, err := optionalVersion(q.GetLatestPageVersion(ctx, pageID))
		if err != nil {
			return err
		}
		if latest != nil && !latest.IsPublished {
			draft.Version = *latest
		} else {
			next, err := nextVersionNumber(ctx, q, pageID)
			if err != nil {
				return err
			}
			now := s.now()
			draft.Version, err = createVersion(ctx, q, CreateVersionInput{
				PageID:        pageID,
				VersionNumber: next,
				CreatedBy:     createdBy,
			}, now)
			if err != nil {
				return err
			}
			if latest != nil {
				if _, err := copyComponents(ctx, q, latest.ID, draft.Version.ID, now); err != nil {
					return err
				}
			}
			draft.Created = true
		}

		draft.Components, err = q.ListComponentsByVersion(ctx, draft.Version.ID)
		if err != nil {
			return ioErr("listing draft components", err)
		}
		return nil
	})
	if err != nil {
		return Draft{}, err
	}

	if draft.Created {
		s.events.LogVersionEvent(ctx, "draft created", map[string]any{
			"page_id":        pageID,
			"version_id":     draft.Version.ID,
			"version_number": draft.Version.VersionNumber,
			"components":     len(draft.Components),
		})
	}
	return draft, nil
}

// PublishDraft makes the current draft of pageID its live version. The
// previously published version is unpublished, and other versions are
// purged when the service is configured to do so.
func (s *DraftService) PublishDraft(ctx context.Context, pageID int64) (PublishResult, error) {
	result := PublishResult{PageID: pageID}
	err := inTx(ctx, s.db, func(q *store.Queries) error {
		draft, err := currentDraft(ctx, q, pageID)
		if err != nil {
			return err
		}

		published, err := optionalVersion(q.GetPublishedVersion(ctx, pageID))
		if err != nil {
			return err
		}
		if published != nil {
			if err := setPublished(ctx, q, published.ID, false); err != nil {
				return err
			}
		}
		if err := setPublished(ctx, q, draft.ID, true); err != nil {
			return err
		}
		result.VersionID = draft.ID
		result.VersionNumber = draft.VersionNumber

		if !s.purgeOnPublish {
			return nil
		}
		old, err := q.ListOldVersions(ctx, pageID, draft.ID)
		if err != nil {
			return ioErr("listing old versions", err)
		}
		ids := make([]int64, len(old))
		for i, v := range old {
			ids[i] = v.ID
		}
		result.OldVersionsDeleted, err = deleteVersions(ctx, q, ids)
		return err
	})
	if err != nil {
		return PublishResult{}, err
	}

	s.events.LogVersionEvent(ctx, "draft published", map[string]any{
		"page_id":              pageID,
		"version_id":           result.VersionID,
		"version_number":       result.VersionNumber,
		"old_versions_deleted": result.OldVersionsDeleted,
	})
	return result, nil
}

// DiscardDraft deletes the current draft of pageID and its components.
func (s *DraftService) DiscardDraft(ctx context.Context, pageID int64) error {
	var versionID int64
	err := inTx(ctx, s.db, func(q *store.Queries) error {
		draft, err := currentDraft(ctx, q, pageID)
		if err != nil {
			return err
		}
		versionID = draft.ID
		_, err = deleteDraft(ctx, q, draft.ID)
		return err
	})
	if err != nil {
		return err
	}

	s.events.LogVersionEvent(ctx, "draft discarded", map[string]any{
		"page_id":    pageID,
		"version_id": versionID,
	})
	return nil
}

// currentDraft returns the latest version of pageID when it is unpublished.
// Older unpublished versions are history, not drafts.
func currentDraft(ctx context.Context, q *store.Queries, pageID int64) (store.PageVersion, error) {
	latest, err := optionalVersion(q.GetLatestPageVersion(ctx, pageID))
	if err != nil {
		return store.PageVersion{}, err
	}
	if latest == nil || latest.IsPublished {
		return store.PageVersion{}, &StructuralError{Reason: ReasonNoDraft, PageID: pageID}
	}
	return *latest, nil
}

// ListVersions returns the version history of pageID, newest first.
func (s *DraftService) ListVersions(ctx context.Context, pageID int64) ([]store.PageVersion, error) {
	if _, err := s.queries.GetPageParentID(ctx, pageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Entity: EntityPage, ID: pageID}
		}
		return nil, ioErr("getting page", err)
	}
	versions, err := s.queries.ListPageVersions(ctx, pageID)
	if err != nil {
		return nil, ioErr("listing page versions", err)
	}
	return versions, nil
}
