// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package index maintains one private search index per principal.

# Architecture

Each principal's index is a chromem-go collection persisted under
<root>/<owner id>/ and rebuilt in full from the principal's current document
set after every upload and every delete. Mutations and the rebuild that
follows run under a per-owner write lock; searches take the read lock, so a
search sees either the old index or the fully rebuilt one.

An index that failed to rebuild is dropped and marked stale. It is never
served: the next search rebuilds it first.
*/
package index

import (
	"context"
	"errors"

	"github.com/taibuivan/dossier/internal/platform/apperr"
)

// # Collaborator Contracts

// Source is one document a rebuild must read.
type Source struct {
	DocumentID int64
	Filename   string
	BlobKey    string
}

// Corpus is the authoritative document set the index is derived from.
type Corpus interface {
	// Sources lists every document ownerID currently owns.
	Sources(context context.Context, ownerID int64) ([]Source, error)

	// MarkIndexed flags documentIDs of ownerID as searchable.
	MarkIndexed(context context.Context, ownerID int64, documentIDs []int64) error
}

// Synthesizer turns a question and tenant-scoped context into an answer.
type Synthesizer interface {
	Answer(context context.Context, question string, contextDocuments []string) (string, error)
}

// # Results

// Hit is one ranked search result.
type Hit struct {
	DocumentID int64   `json:"document_id"`
	Filename   string  `json:"filename"`
	Excerpt    string  `json:"content"`
	Score      float32 `json:"score"`
}

// # Errors

var (
	// ErrIndexUnavailable is returned when a stale index could not be rebuilt.
	ErrIndexUnavailable = apperr.ServiceUnavailable("Search index is being rebuilt, try again shortly")

	// ErrSynthesisUnavailable is returned when no synthesizer is configured.
	ErrSynthesisUnavailable = errors.New("index: answer synthesis unavailable")
)

// # Tuning

const (
	collectionName = "documents"
	manifestName   = "manifest.json"
	vectorsDir     = "vectors"

	// Blob reads run in parallel during a rebuild.
	readConcurrency = 4

	// Context passed to the synthesizer is bounded per excerpt.
	maxContextRunes = 1500

	metaOwner    = "owner_id"
	metaDocument = "document_id"
	metaFilename = "filename"
)
