// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles what an authenticated principal can do to itself:
read and edit its profile, deactivate, and inspect its collection status.

# Architecture

  - Entities: [Status] (DTO). The principal entity itself belongs to auth.
  - Domain: This package depends on the auth package for the Principal entity.
  - Collaborators: document counts and index readiness are read through narrow
    interfaces so this package never imports the knowledge packages.
*/
package account

import (
	"context"

	"github.com/taibuivan/dossier/internal/platform/sec"
	"github.com/taibuivan/dossier/internal/users/auth"
)

// # Domain Entities

// Status summarises a principal's collection.
type Status struct {
	Status         string `json:"status"`
	UserID         int64  `json:"user_id"`
	Username       string `json:"username"`
	DocumentsCount int    `json:"documents_count"`
	IndexReady     bool   `json:"index_ready"`
}

// StatusRunning is the only status value reported today.
const StatusRunning = "running"

// # Repository Contracts

// Repository defines the persistence contract for profile management.
type Repository interface {
	/*
		FindByID retrieves a principal by ID.

		Returns:
		  - *auth.Principal: Loaded entity
		  - error: auth.ErrPrincipalNotFound or storage failures
	*/
	FindByID(context context.Context, id int64) (*auth.Principal, error)

	/*
		UpdateDisplayName replaces the display name; an empty name clears it.

		Returns:
		  - *auth.Principal: The updated entity
		  - error: auth.ErrPrincipalNotFound or storage failures
	*/
	UpdateDisplayName(context context.Context, id int64, displayName string) (*auth.Principal, error)

	/*
		Deactivate clears the active flag. The record itself is kept.

		Returns:
		  - error: auth.ErrPrincipalNotFound or storage failures
	*/
	Deactivate(context context.Context, id int64) error
}

// # Collaborator Contracts

// DocumentCounter counts the documents a principal owns.
type DocumentCounter interface {
	CountForOwner(context context.Context, ownerID int64) (int, error)
}

// IndexInspector reports whether a principal's search index is queryable.
type IndexInspector interface {
	Ready(context context.Context, ownerID int64) bool
}

// TokenRevoker revokes the token an identity presented.
type TokenRevoker interface {
	Logout(context context.Context, identity *sec.Identity) error
}
