// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/store"
	"github.com/olegiv/ocms-pagetree/internal/util"
)

// ComponentService edits the content blocks of page versions.
// Only unpublished versions accept changes.
type ComponentService struct {
	db      *sql.DB
	queries *store.Queries
	logger  *slog.Logger
	now     func() time.Time
}

// NewComponentService creates a new ComponentService.
func NewComponentService(db *sql.DB, logger *slog.Logger) *ComponentService {
	return &ComponentService{
		db:      db,
		queries: store.New(db),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// AddComponentInput describes a new component.
type AddComponentInput struct {
	VersionID     int64
	ComponentType string
	Content       json.RawMessage
	Title         *string
	Template      string
	// Position defaults to one past the last component of the version.
	Position *int64
}

// UpdateComponentInput carries the component fields to change; nil fields are kept.
type UpdateComponentInput struct {
	ID       int64
	Content  json.RawMessage
	Title    *string
	Template *string
}

// Get returns the component with id or a NotFoundError.
func (s *ComponentService) Get(ctx context.Context, id int64) (store.Component, error) {
	return getComponent(ctx, s.queries, id)
}

func getComponent(ctx context.Context, q *store.Queries, id int64) (store.Component, error) {
	component, err := q.GetComponentByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Component{}, &NotFoundError{Entity: EntityComponent, ID: id}
	}
	if err != nil {
		return store.Component{}, ioErr("getting component", err)
	}
	return component, nil
}

// List returns the components of versionID ordered by position.
func (s *ComponentService) List(ctx context.Context, versionID int64) ([]store.Component, error) {
	components, err := s.queries.ListComponentsByVersion(ctx, versionID)
	if err != nil {
		return nil, ioErr("listing components", err)
	}
	return components, nil
}

// editableVersion loads versionID and fails unless it is still a draft.
func editableVersion(ctx context.Context, q *store.Queries, versionID, componentID int64) (store.PageVersion, error) {
	version, err := q.GetPageVersionByID(ctx, versionID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.PageVersion{}, &NotFoundError{Entity: EntityVersion, ID: versionID}
	}
	if err != nil {
		return store.PageVersion{}, ioErr("getting page version", err)
	}
	if version.IsPublished {
		return store.PageVersion{}, &StructuralError{
			Reason:      ReasonPublishedVersion,
			PageID:      version.PageID,
			ComponentID: componentID,
			VersionID:   versionID,
		}
	}
	return version, nil
}

// Add appends a component to an unpublished version.
func (s *ComponentService) Add(ctx context.Context, in AddComponentInput) (store.Component, error) {
	if in.Template == "" {
		in.Template = store.DefaultTemplate
	}
	if err := validateComponentMeta(in.ComponentType, in.Template, in.Title); err != nil {
		return store.Component{}, err
	}
	if in.Position != nil {
		if err := validatePosition(*in.Position); err != nil {
			return store.Component{}, err
		}
	}
	content, err := normalizeComponentContent(in.ComponentType, in.Content)
	if err != nil {
		return store.Component{}, err
	}

	var component store.Component
	err = inTx(ctx, s.db, func(q *store.Queries) error {
		if _, err := editableVersion(ctx, q, in.VersionID, 0); err != nil {
			return err
		}

		var position int64
		if in.Position != nil {
			position = *in.Position
		} else {
			maxPos, err := q.GetMaxComponentPosition(ctx, in.VersionID)
			if err != nil {
				return ioErr("getting max component position", err)
			}
			if maxPos.Valid {
				position = maxPos.Int64 + 1
			}
		}

		now := s.now()
		component, err = q.CreateComponent(ctx, store.CreateComponentParams{
			PageVersionID: in.VersionID,
			ComponentType: in.ComponentType,
			Position:      position,
			Content:       content,
			Title:         util.NullStringFromPtr(in.Title),
			Template:      in.Template,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err != nil {
			return ioErr("creating component", err)
		}
		return nil
	})
	if err != nil {
		return store.Component{}, err
	}

	s.logger.Debug("component added", "component_id", component.ID, "version_id", in.VersionID)
	return component, nil
}

// Update changes a component of an unpublished version.
func (s *ComponentService) Update(ctx context.Context, in UpdateComponentInput) (store.Component, error) {
	var updated store.Component
	err := inTx(ctx, s.db, func(q *store.Queries) error {
		component, err := getComponent(ctx, q, in.ID)
		if err != nil {
			return err
		}
		if _, err := editableVersion(ctx, q, component.PageVersionID, component.ID); err != nil {
			return err
		}

		params := store.UpdateComponentParams{
			ID:        component.ID,
			Content:   component.Content,
			Title:     component.Title,
			Template:  component.Template,
			UpdatedAt: s.now(),
		}
		if in.Template != nil {
			params.Template = *in.Template
		}
		if in.Title != nil {
			params.Title = util.NullStringFromValue(*in.Title)
		}
		if err := validateComponentMeta(component.ComponentType, params.Template, in.Title); err != nil {
			return err
		}
		if in.Content != nil {
			params.Content, err = normalizeComponentContent(component.ComponentType, in.Content)
			if err != nil {
				return err
			}
		}

		updated, err = q.UpdateComponent(ctx, params)
		if err != nil {
			return ioErr("updating component", err)
		}
		return nil
	})
	return updated, err
}

// Delete removes a component of an unpublished version.
func (s *ComponentService) Delete(ctx context.Context, id int64) error {
	return inTx(ctx, s.db, func(q *store.Queries) error {
		component, err := getComponent(ctx, q, id)
		if err != nil {
			return err
		}
		if _, err := editableVersion(ctx, q, component.PageVersionID, component.ID); err != nil {
			return err
		}
		if _, err := q.DeleteComponent(ctx, id); err != nil {
			return ioErr("deleting component", err)
		}
		return nil
	})
}

// Reorder assigns new positions to components of an unpublished version.
func (s *ComponentService) Reorder(ctx context.Context, versionID int64, positions []model.ComponentPosition) error {
	for _, p := range positions {
		if err := validatePosition(p.Position); err != nil {
			return err
		}
	}

	return inTx(ctx, s.db, func(q *store.Queries) error {
		if _, err := editableVersion(ctx, q, versionID, 0); err != nil {
			return err
		}
		now := s.now()
		for _, p := range positions {
			component, err := getComponent(ctx, q, p.ID)
			if err != nil {
				return err
			}
			if component.PageVersionID != versionID {
				return &NotFoundError{Entity: EntityComponent, ID: p.ID}
			}
			if err := q.UpdateComponentPosition(ctx, p.ID, p.Position, now); err != nil {
				return ioErr("updating component position", err)
			}
		}
		return nil
	})
}

// CopyAll copies every component of fromVersionID into toVersionID and
// renumbers the copies 0..n-1. It returns the number of copied components.
func (s *ComponentService) CopyAll(ctx context.Context, fromVersionID, toVersionID int64) (int64, error) {
	var copied int64
	err := inTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		copied, err = copyComponents(ctx, q, fromVersionID, toVersionID, s.now())
		return err
	})
	return copied, err
}

func copyComponents(ctx context.Context, q *store.Queries, fromVersionID, toVersionID int64, now time.Time) (int64, error) {
	copied, err := q.CopyComponents(ctx, fromVersionID, toVersionID, now)
	if err != nil {
		return 0, ioErr("copying components", err)
	}
	if err := normalizePositions(ctx, q, toVersionID, now); err != nil {
		return 0, err
	}
	return copied, nil
}

// NormalizePositions renumbers the components of versionID 0..n-1 keeping their order.
func (s *ComponentService) NormalizePositions(ctx context.Context, versionID int64) error {
	return inTx(ctx, s.db, func(q *store.Queries) error {
		return normalizePositions(ctx, q, versionID, s.now())
	})
}

func normalizePositions(ctx context.Context, q *store.Queries, versionID int64, now time.Time) error {
	components, err := q.ListComponentsByVersion(ctx, versionID)
	if err != nil {
		return ioErr("listing components", err)
	}
	for i, c := range components {
		if c.Position == int64(i) {
			continue
		}
		if err := q.UpdateComponentPosition(ctx, c.ID, int64(i), now); err != nil {
			return ioErr("updating component position", err)
		}
	}
	return nil
}
