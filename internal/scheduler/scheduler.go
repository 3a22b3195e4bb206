// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs for the page service.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/ocms-pagetree/internal/store"
)

// DefaultPruneSpec runs event log pruning at the start of every hour.
const DefaultPruneSpec = "0 * * * *"

// DatabaseSource lists the databases maintenance jobs run against.
type DatabaseSource func() []*sql.DB

// Scheduler handles scheduled tasks like pruning the event log.
type Scheduler struct {
	dbs       DatabaseSource
	cron      *cron.Cron
	logger    *slog.Logger
	retention time.Duration
	now       func() time.Time
}

// New creates a new scheduler instance. Events older than retention are
// pruned; a zero retention disables pruning.
func New(dbs DatabaseSource, retention time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		dbs:       dbs,
		cron:      cron.New(),
		logger:    logger,
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start registers the maintenance jobs on spec and starts the cron runner.
func (s *Scheduler) Start(spec string) error {
	if s.retention > 0 {
		_, err := s.cron.AddFunc(spec, func() {
			if _, err := s.PruneEvents(context.Background()); err != nil {
				s.logger.Error("failed to prune event log", "error", err)
			}
		})
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// PruneEvents deletes event log entries older than the retention period in
// every database and returns how many were removed. It keeps going after a
// failing database and returns the first error.
func (s *Scheduler) PruneEvents(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}

	cutoff := s.now().Add(-s.retention)
	var deleted int64
	var firstErr error
	for _, db := range s.dbs() {
		n, err := store.New(db).DeleteEventsBefore(ctx, cutoff)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted += n
	}
	if deleted > 0 {
		s.logger.Info("pruned event log", "deleted", deleted, "before", cutoff.Format(time.RFC3339))
	}
	return deleted, firstErr
}
