// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # Principal Data Access

// PrincipalRepository defines the data access contract for the credential store.
type PrincipalRepository interface {

	/*
		FindByID returns the principal with the given ID.

		Returns:
		  - *Principal: Hydrated entity
		  - error: ErrPrincipalNotFound or storage failures
	*/
	FindByID(context context.Context, id int64) (*Principal, error)

	/*
		FindByUsername returns the principal with exactly this username.

		Returns:
		  - *Principal: Hydrated entity
		  - error: ErrPrincipalNotFound or storage failures
	*/
	FindByUsername(context context.Context, username string) (*Principal, error)

	/*
		FindByEmail returns the principal with exactly this email.

		Returns:
		  - *Principal: Hydrated entity
		  - error: ErrPrincipalNotFound or storage failures
	*/
	FindByEmail(context context.Context, email string) (*Principal, error)

	/*
		Create persists a brand-new principal and assigns its ID and timestamps.

		Uniqueness is enforced by the store itself, so two concurrent
		registrations for the same name cannot both succeed.

		Returns:
		  - error: ErrDuplicateUsername, ErrDuplicateEmail or storage failures
	*/
	Create(context context.Context, principal *Principal) error

	/*
		UpdatePasswordHash replaces only the principal's password hash.

		Returns:
		  - error: ErrPrincipalNotFound or storage failures
	*/
	UpdatePasswordHash(context context.Context, id int64, newHash string) error
}

// # Volatile Data Access

// RevocationList records token IDs that must be rejected before they expire.
type RevocationList interface {

	/*
		Revoke records tokenID for ttl. Once ttl passes the token would be
		rejected as expired anyway, so the entry may disappear.
	*/
	Revoke(context context.Context, tokenID string, ttl time.Duration) error

	/*
		IsRevoked reports whether tokenID has been revoked.
	*/
	IsRevoked(context context.Context, tokenID string) (bool, error)
}
