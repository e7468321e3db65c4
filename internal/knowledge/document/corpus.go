// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document

import (
	"context"

	"github.com/taibuivan/dossier/internal/knowledge/index"
	"github.com/taibuivan/dossier/pkg/slice"
)

// Corpus exposes a [Registry] to the index manager as its source of truth.
type Corpus struct {
	registry Registry
}

// NewCorpus wraps registry as an [index.Corpus].
func NewCorpus(registry Registry) *Corpus {
	return &Corpus{registry: registry}
}

// Sources lists ownerID's documents as index inputs.
func (corpus *Corpus) Sources(context context.Context, ownerID int64) ([]index.Source, error) {
	documents, err := corpus.registry.ListForOwner(context, ownerID)
	if err != nil {
		return nil, err
	}

	return slice.Map(documents, func(document *Document) index.Source {
		return index.Source{
			DocumentID: document.ID,
			Filename:   document.OriginalName,
			BlobKey:    document.StoragePath,
		}
	}), nil
}

// MarkIndexed records which documents the rebuilt index covers.
func (corpus *Corpus) MarkIndexed(context context.Context, ownerID int64, documentIDs []int64) error {
	return corpus.registry.MarkIndexed(context, ownerID, documentIDs)
}
