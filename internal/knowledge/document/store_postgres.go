// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/dossier/internal/platform/dberr"
)

// Unique constraint name from data/migrations.
const constraintStorageName = "document_storagename_key"

const documentColumns = `id, ownerid, storagename, originalname, storagepath, sizebytes, contenttype, checksum, uploadedat, isindexed`

// # Document Repository

// PostgresRegistry implements [Registry] on kb.document using pgx.
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

// NewPostgresRegistry creates a new PostgreSQL implementation of the Registry.
func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{pool: pool}
}

/*
Create inserts a document record and hydrates its ID and upload time.

Parameters:
  - context: context.Context
  - document: *Document (Entity to persist; OwnerID is required)

Returns:
  - error: ErrDuplicateStorageName or internal failures
*/
func (repository *PostgresRegistry) Create(context context.Context, document *Document) error {
	const query = `
		INSERT INTO kb.document (ownerid, storagename, originalname, storagepath, sizebytes, contenttype, checksum)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, uploadedat, isindexed`

	err := repository.pool.QueryRow(context, query,
		document.OwnerID,
		document.StorageName,
		document.OriginalName,
		document.StoragePath,
		document.SizeBytes,
		document.ContentType,
		document.Checksum,
	).Scan(&document.ID, &document.UploadedAt, &document.IsIndexed)

	if err != nil {
		wrapped := dberr.Wrap(err, "postgres_document_repo_create_failed")
		if constraint, ok := dberr.AsUniqueViolation(wrapped); ok && constraint == constraintStorageName {
			return ErrDuplicateStorageName
		}
		return wrapped
	}

	return nil
}

// ListForOwner returns ownerID's documents ordered by ID.
func (repository *PostgresRegistry) ListForOwner(context context.Context, ownerID int64) ([]*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM kb.document WHERE ownerid = $1 ORDER BY id ASC`

	rows, err := repository.pool.Query(context, query, ownerID)
	if err != nil {
		return nil, dberr.Wrap(err, "postgres_document_repo_list_failed")
	}
	defer rows.Close()

	documents := make([]*Document, 0)
	for rows.Next() {
		document, err := scanDocument(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "postgres_document_repo_scan_failed")
		}
		documents = append(documents, document)
	}

	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "postgres_document_repo_list_failed")
	}
	return documents, nil
}

/*
Delete removes the document only when both the ID and the owner match.

Description: A single DELETE ... RETURNING keeps the ownership check and the
removal atomic.

Returns:
  - *Document: The removed record, or nil
  - bool: Whether a row was removed
  - error: Internal failures
*/
func (repository *PostgresRegistry) Delete(context context.Context, documentID, ownerID int64) (*Document, bool, error) {
	query := `DELETE FROM kb.document WHERE id = $1 AND ownerid = $2 RETURNING ` + documentColumns

	document, err := scanDocument(repository.pool.QueryRow(context, query, documentID, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, dberr.Wrap(err, "postgres_document_repo_delete_failed")
	}
	return document, true, nil
}

// CountForOwner counts ownerID's documents.
func (repository *PostgresRegistry) CountForOwner(context context.Context, ownerID int64) (int, error) {
	const query = `SELECT count(*) FROM kb.document WHERE ownerid = $1`

	var count int
	if err := repository.pool.QueryRow(context, query, ownerID).Scan(&count); err != nil {
		return 0, dberr.Wrap(err, "postgres_document_repo_count_failed")
	}
	return count, nil
}

// MarkIndexed flags the listed documents of ownerID as indexed.
func (repository *PostgresRegistry) MarkIndexed(context context.Context, ownerID int64, documentIDs []int64) error {
	if len(documentIDs) == 0 {
		return nil
	}

	const query = `UPDATE kb.document SET isindexed = TRUE WHERE ownerid = $1 AND id = ANY($2) AND NOT isindexed`

	if _, err := repository.pool.Exec(context, query, ownerID, documentIDs); err != nil {
		return dberr.Wrap(err, "postgres_document_repo_mark_indexed_failed")
	}
	return nil
}

func scanDocument(row pgx.Row) (*Document, error) {
	document := &Document{}
	err := row.Scan(
		&document.ID,
		&document.OwnerID,
		&document.StorageName,
		&document.OriginalName,
		&document.StoragePath,
		&document.SizeBytes,
		&document.ContentType,
		&document.Checksum,
		&document.UploadedAt,
		&document.IsIndexed,
	)
	if err != nil {
		return nil, err
	}
	return document, nil
}
