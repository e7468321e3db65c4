// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document

import "context"

// # Document Data Access

// Registry defines the data access contract for document records.
//
// Every method is scoped by owner; none of them can reach another owner's
// records.
type Registry interface {

	/*
		Create persists a new record and assigns its ID and upload time.

		Returns:
		  - error: ErrDuplicateStorageName or storage failures
	*/
	Create(context context.Context, document *Document) error

	/*
		ListForOwner returns ownerID's documents in ascending ID order.
	*/
	ListForOwner(context context.Context, ownerID int64) ([]*Document, error)

	/*
		Delete removes documentID only if ownerID owns it.

		Returns:
		  - *Document: The removed record, nil when nothing was removed
		  - bool: Whether a record was removed
		  - error: Storage failures only; absence is not an error
	*/
	Delete(context context.Context, documentID, ownerID int64) (*Document, bool, error)

	/*
		CountForOwner returns how many documents ownerID has.
	*/
	CountForOwner(context context.Context, ownerID int64) (int, error)

	/*
		MarkIndexed sets the indexed flag on the given documents of ownerID.
		IDs that ownerID does not own are ignored.
	*/
	MarkIndexed(context context.Context, ownerID int64, documentIDs []int64) error
}
