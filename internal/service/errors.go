// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"errors"
	"fmt"
)

// Kind classifies service errors so callers can branch without parsing messages.
type Kind int

// Error kinds
const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindStructural
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindStructural:
		return "structural_violation"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against the typed errors below.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrStructural = errors.New("structural violation")
	ErrIO         = errors.New("storage error")
)

// KindOf returns the Kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrStructural):
		return KindStructural
	case errors.Is(err, ErrIO):
		return KindIO
	default:
		return KindUnknown
	}
}

// ValidationError reports a field-level constraint violation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Entity names used in NotFoundError and ConflictError.
const (
	EntitySite      = "site"
	EntityPage      = "page"
	EntityVersion   = "version"
	EntityComponent = "component"
)

// NotFoundError reports that an id does not resolve to a row.
type NotFoundError struct {
	Entity string
	ID     int64
	Key    string // set instead of ID for lookups by natural key
}

func (e *NotFoundError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
	}
	return fmt.Sprintf("%s with id %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports a uniqueness violation.
type ConflictError struct {
	Entity   string
	Field    string
	Value    string
	ParentID int64 // parent page for slug conflicts, page for version conflicts
}

func (e *ConflictError) Error() string {
	switch {
	case e.Entity == EntityPage && e.Field == "slug":
		return fmt.Sprintf("a page with slug '%s' already exists under parent page %d", e.Value, e.ParentID)
	case e.Entity == EntityVersion:
		return fmt.Sprintf("version %s already exists for page %d", e.Value, e.ParentID)
	default:
		return fmt.Sprintf("%s with %s '%s' already exists", e.Entity, e.Field, e.Value)
	}
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// StructuralReason identifies which tree or version invariant a request would break.
type StructuralReason int

// Structural reasons
const (
	ReasonRootCreation StructuralReason = iota + 1
	ReasonRootDeletion
	ReasonRootMove
	ReasonHasChildren
	ReasonMoveToSelf
	ReasonMoveToDescendant
	ReasonCrossSiteMove
	ReasonWrongParent
	ReasonNoDraft
	ReasonPublishedVersion
	ReasonRootSlug
)

// StructuralError reports a request that would break a tree or version invariant.
type StructuralError struct {
	Reason      StructuralReason
	PageID      int64
	TargetID    int64 // new parent for moves, expected parent for reorders
	ChildCount  int64
	ComponentID int64
	VersionID   int64
}

func (e *StructuralError) Error() string {
	switch e.Reason {
	case ReasonRootCreation:
		return "root pages are created automatically with sites and cannot be created manually"
	case ReasonRootDeletion:
		return "cannot delete root page"
	case ReasonRootMove:
		return "cannot move root page"
	case ReasonHasChildren:
		return fmt.Sprintf("cannot delete page with id %d because it has %d child page(s)", e.PageID, e.ChildCount)
	case ReasonMoveToSelf:
		return "cannot move page to itself"
	case ReasonMoveToDescendant:
		return fmt.Sprintf("cannot move page %d to one of its descendants (%d)", e.PageID, e.TargetID)
	case ReasonCrossSiteMove:
		return "cannot move page to a different site"
	case ReasonWrongParent:
		return fmt.Sprintf("page %d does not have parent page %d", e.PageID, e.TargetID)
	case ReasonNoDraft:
		return fmt.Sprintf("no draft version exists for page %d; use get_or_create_draft first", e.PageID)
	case ReasonPublishedVersion:
		if e.ComponentID == 0 {
			return fmt.Sprintf("version %d is published; use get_or_create_draft first", e.VersionID)
		}
		return fmt.Sprintf("component %d belongs to published version %d; use get_or_create_draft first", e.ComponentID, e.VersionID)
	case ReasonRootSlug:
		return "the root page slug must stay empty"
	default:
		return "structural violation"
	}
}

func (e *StructuralError) Is(target error) bool { return target == ErrStructural }

// IOError wraps a failure of the underlying store.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

// ioErr wraps err as an IOError unless it already carries a service kind.
func ioErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}
	return &IOError{Op: op, Err: err}
}
