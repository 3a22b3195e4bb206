// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"database/sql"
	"log/slog"

	"github.com/olegiv/ocms-pagetree/internal/store"
)

// Options tunes service behaviour.
type Options struct {
	// PurgeOnPublish deletes superseded versions when a draft is published.
	PurgeOnPublish bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{PurgeOnPublish: true}
}

// Services bundles every service bound to one site database.
type Services struct {
	Events     *EventService
	Sites      *SiteService
	Slugs      *SlugAllocator
	Pages      *PageTree
	Moves      *MoveEngine
	Versions   *VersionLedger
	Components *ComponentService
	Drafts     *DraftService
	Renderer   *Renderer
}

// New wires the services for db.
func New(db *sql.DB, logger *slog.Logger, opts Options) *Services {
	events := NewEventService(db, logger)
	slugs := NewSlugAllocator(db)
	return &Services{
		Events:     events,
		Sites:      NewSiteService(db, events, logger),
		Slugs:      slugs,
		Pages:      NewPageTree(db, slugs, events, logger),
		Moves:      NewMoveEngine(db, events, logger),
		Versions:   NewVersionLedger(db),
		Components: NewComponentService(db, logger),
		Drafts:     NewDraftService(db, events, logger, opts.PurgeOnPublish),
		Renderer:   NewRenderer(store.New(db)),
	}
}
