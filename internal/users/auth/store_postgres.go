// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/dossier/internal/platform/dberr"
)

// Unique constraint names from data/migrations.
const (
	constraintUsername = "principal_username_key"
	constraintEmail    = "principal_email_key"
)

const principalColumns = `id, username, email, passwordhash, COALESCE(displayname, ''), isactive, createdat, updatedat`

// # Principal Repository

// PostgresPrincipalRepository implements [PrincipalRepository] using pgx.
type PostgresPrincipalRepository struct {
	pool *pgxpool.Pool
}

// NewPrincipalRepository creates a new PostgreSQL implementation of the PrincipalRepository.
func NewPrincipalRepository(pool *pgxpool.Pool) *PostgresPrincipalRepository {
	return &PostgresPrincipalRepository{pool: pool}
}

/*
Create inserts a principal into kb.principal and hydrates ID and timestamps.

Description: The unique constraints are the final arbiter; a violation is
mapped to the matching duplicate error.

Parameters:
  - context: context.Context
  - principal: *Principal (Entity to persist)

Returns:
  - error: ErrDuplicateUsername, ErrDuplicateEmail, or internal failures
*/
func (repository *PostgresPrincipalRepository) Create(context context.Context, principal *Principal) error {
	const query = `
		INSERT INTO kb.principal (username, email, passwordhash, displayname, isactive)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		RETURNING id, createdat, updatedat`

	err := repository.pool.QueryRow(context, query,
		principal.Username,
		principal.Email,
		principal.PasswordHash,
		principal.DisplayName,
		principal.IsActive,
	).Scan(&principal.ID, &principal.CreatedAt, &principal.UpdatedAt)

	if err != nil {
		wrapped := dberr.Wrap(err, "postgres_principal_repo_create_failed")
		if constraint, ok := dberr.AsUniqueViolation(wrapped); ok {
			switch constraint {
			case constraintUsername:
				return ErrDuplicateUsername
			case constraintEmail:
				return ErrDuplicateEmail
			}
		}
		return wrapped
	}

	return nil
}

/*
FindByID retrieves a principal by primary key.

Returns:
  - *Principal: Hydrated entity
  - error: ErrPrincipalNotFound or database errors
*/
func (repository *PostgresPrincipalRepository) FindByID(context context.Context, id int64) (*Principal, error) {
	return repository.findOne(context, "id = $1", id)
}

/*
FindByUsername retrieves a principal by exact, case-sensitive username.

Returns:
  - *Principal: Hydrated entity
  - error: ErrPrincipalNotFound or database errors
*/
func (repository *PostgresPrincipalRepository) FindByUsername(context context.Context, username string) (*Principal, error) {
	return repository.findOne(context, "username = $1", username)
}

/*
FindByEmail retrieves a principal by exact email.

Returns:
  - *Principal: Hydrated entity
  - error: ErrPrincipalNotFound or database errors
*/
func (repository *PostgresPrincipalRepository) FindByEmail(context context.Context, email string) (*Principal, error) {
	return repository.findOne(context, "email = $1", email)
}

/*
UpdatePasswordHash replaces the stored hash, used when upgrading legacy hashes.

Returns:
  - error: ErrPrincipalNotFound or execution errors
*/
func (repository *PostgresPrincipalRepository) UpdatePasswordHash(context context.Context, id int64, newHash string) error {
	const query = `UPDATE kb.principal SET passwordhash = $2, updatedat = now() WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id, newHash)
	if err != nil {
		return dberr.Wrap(err, "postgres_principal_repo_update_password_failed")
	}
	if tag.RowsAffected() == 0 {
		return ErrPrincipalNotFound
	}
	return nil
}

func (repository *PostgresPrincipalRepository) findOne(context context.Context, predicate string, argument any) (*Principal, error) {
	query := fmt.Sprintf("SELECT %s FROM kb.principal WHERE %s", principalColumns, predicate)

	principal := &Principal{}
	err := repository.pool.QueryRow(context, query, argument).Scan(
		&principal.ID,
		&principal.Username,
		&principal.Email,
		&principal.PasswordHash,
		&principal.DisplayName,
		&principal.IsActive,
		&principal.CreatedAt,
		&principal.UpdatedAt,
	)

	if err != nil {
		wrapped := dberr.Wrap(err, "postgres_principal_repo_find_failed")
		if errors.Is(wrapped, dberr.ErrNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, wrapped
	}

	return principal, nil
}
