// Copyright (c) 2026 Collabry, Inc. All rights reserved.

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
//
// # Conditional Writes
//
// The storage layer expresses "exactly once" guarantees as conditional
// inserts guarded by unique constraints. A SQLSTATE 23505 violation is
// therefore a distinguishable business signal ("already exists"), not a
// server fault, and is mapped to a CONFLICT error here.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/collabry/groups/internal/platform/apperr"
)

// ErrNotFound is a standard error returned when a queried row doesn't exist.
var ErrNotFound = apperr.NotFound("Record")

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
// The conflictMsg is the client-safe message used when the error is a unique
// violation; pass "" to treat a conflict as an internal error instead.
func Wrap(err error, conflictMsg string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// 2. Unique-constraint violations are business conflicts when expected
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		if conflictMsg != "" {
			return apperr.Conflict(conflictMsg)
		}
	}

	// 3. Unknown query errors become Internal Server Errors
	return apperr.Internal(err)
}

// IsNotFound reports whether err represents a missing row.
func IsNotFound(err error) bool {
	return apperr.IsCode(err, "NOT_FOUND")
}
