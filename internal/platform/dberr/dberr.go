// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/dossier/internal/platform/apperr"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")
)

// UniqueViolation reports which unique constraint rejected a write.
type UniqueViolation struct {
	Constraint string
	Cause      error
}

func (e *UniqueViolation) Error() string {
	return fmt.Sprintf("unique constraint %q violated", e.Constraint)
}

func (e *UniqueViolation) Unwrap() error { return e.Cause }

// Wrap inspects a database error and classifies it.
//
//   - pgx.ErrNoRows becomes [ErrNotFound].
//   - SQLSTATE 23505 becomes a [*UniqueViolation] so repositories can map
//     the constraint name to a domain error.
//   - Anything else becomes an Internal [apperr.AppError] tagged with action.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// 2. Constraint violations
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) && pgError.Code == pgerrcode.UniqueViolation {
		return &UniqueViolation{Constraint: pgError.ConstraintName, Cause: err}
	}

	// 3. Unknown query errors become Internal Server Errors
	return apperr.Internal(fmt.Errorf("%s: %w", action, err))
}

// AsUniqueViolation extracts the violated constraint name, if any.
func AsUniqueViolation(err error) (string, bool) {
	var violation *UniqueViolation
	if errors.As(err, &violation) {
		return violation.Constraint, true
	}
	return "", false
}
