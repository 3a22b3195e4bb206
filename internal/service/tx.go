// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"

	"github.com/olegiv/ocms-pagetree/internal/store"
)

// inTx runs fn inside a transaction on db and commits when fn returns nil.
// Any error rolls the whole transaction back.
func inTx(ctx context.Context, db *sql.DB, fn func(q *store.Queries) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &IOError{Op: "starting transaction", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(store.New(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return &IOError{Op: "committing transaction", Err: err}
	}
	return nil
}
