// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/olegiv/ocms-pagetree/internal/model"
	"github.com/olegiv/ocms-pagetree/internal/store"
)

// EventService records an audit trail of structural changes in the site database.
type EventService struct {
	queries *store.Queries
	logger  *slog.Logger
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB, logger *slog.Logger) *EventService {
	return &EventService{
		queries: store.New(db),
		logger:  logger,
	}
}

// LogEvent creates a new event log entry.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, metadata map[string]any) error {
	metadataJSON := "{}"
	if metadata != nil {
		jsonBytes, err := json.Marshal(metadata)
		if err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		Metadata:  metadataJSON,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to log event", "error", err, "message", message)
		return err
	}

	return nil
}

// LogInfo logs an info-level event.
func (s *EventService) LogInfo(ctx context.Context, category, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, category, message, metadata)
}

// LogPageEvent logs a page-related info event and mirrors it to the application log.
// Failures are logged, never returned: the mutation it describes has already committed.
func (s *EventService) LogPageEvent(ctx context.Context, message string, metadata map[string]any) {
	s.logger.Info(message, append([]any{"category", model.EventCategoryPage}, flatten(metadata)...)...)
	_ = s.LogInfo(ctx, model.EventCategoryPage, message, metadata)
}

// LogVersionEvent logs a version-related info event.
func (s *EventService) LogVersionEvent(ctx context.Context, message string, metadata map[string]any) {
	s.logger.Info(message, append([]any{"category", model.EventCategoryVersion}, flatten(metadata)...)...)
	_ = s.LogInfo(ctx, model.EventCategoryVersion, message, metadata)
}

// ListEvents returns the most recent events, newest first.
func (s *EventService) ListEvents(ctx context.Context, limit int64) ([]store.Event, error) {
	events, err := s.queries.ListEvents(ctx, limit)
	if err != nil {
		return nil, ioErr("listing events", err)
	}
	return events, nil
}

func flatten(m map[string]any) []any {
	args := make([]any, 0, len(m)*2)
	for k, v := range m {
		args = append(args, k, v)
	}
	return args
}
