// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/dossier/internal/platform/dberr"
	"github.com/taibuivan/dossier/internal/users/auth"
)

// # Repository Implementations

// PostgresAccountRepository implements [Repository] on kb.principal.
//
// Reads go through the auth repository so both packages hydrate principals
// from the same column list.
type PostgresAccountRepository struct {
	pool       *pgxpool.Pool
	principals *auth.PostgresPrincipalRepository
}

// NewAccountRepository creates a new Postgres implementation for profile management.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool, principals: auth.NewPrincipalRepository(pool)}
}

// FindByID retrieves a principal by primary key.
func (repository *PostgresAccountRepository) FindByID(context context.Context, id int64) (*auth.Principal, error) {
	return repository.principals.FindByID(context, id)
}

/*
UpdateDisplayName replaces the display name and bumps updatedat.

Parameters:
  - context: context.Context
  - id: int64
  - displayName: string (empty stores NULL)

Returns:
  - *auth.Principal: The updated entity
  - error: auth.ErrPrincipalNotFound or database execution failure
*/
func (repository *PostgresAccountRepository) UpdateDisplayName(context context.Context, id int64, displayName string) (*auth.Principal, error) {
	const query = `UPDATE kb.principal SET displayname = NULLIF($2, ''), updatedat = now() WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id, displayName)
	if err != nil {
		return nil, dberr.Wrap(err, "postgres_account_repo_update_failed")
	}
	if tag.RowsAffected() == 0 {
		return nil, auth.ErrPrincipalNotFound
	}

	return repository.principals.FindByID(context, id)
}

/*
Deactivate clears isactive. Repeated calls are harmless.

Returns:
  - error: auth.ErrPrincipalNotFound or database execution failure
*/
func (repository *PostgresAccountRepository) Deactivate(context context.Context, id int64) error {
	const query = `UPDATE kb.principal SET isactive = false, updatedat = now() WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "postgres_account_repo_deactivate_failed")
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrPrincipalNotFound
	}
	return nil
}
