// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// # In-Memory Document Registry

// MemoryRegistry keeps document records in process memory.
//
// It backs STORE_DRIVER=memory and the test suites.
type MemoryRegistry struct {
	mu            sync.RWMutex
	nextID        int64
	byID          map[int64]*Document
	storageNames  map[string]struct{}
	failNextWrite error
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byID:         make(map[int64]*Document),
		storageNames: make(map[string]struct{}),
	}
}

// FailNextWrite makes the next Create or Delete return err. Tests use it to
// simulate a registry outage.
func (repository *MemoryRegistry) FailNextWrite(err error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.failNextWrite = err
}

// Create stores a copy of document, assigning the next ID.
func (repository *MemoryRegistry) Create(_ context.Context, document *Document) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if err := repository.takeFailure(); err != nil {
		return err
	}
	if _, taken := repository.storageNames[document.StorageName]; taken {
		return ErrDuplicateStorageName
	}

	repository.nextID++
	document.ID = repository.nextID
	document.UploadedAt = time.Now().UTC()
	document.IsIndexed = false

	stored := *document
	repository.byID[stored.ID] = &stored
	repository.storageNames[stored.StorageName] = struct{}{}
	return nil
}

// ListForOwner returns copies of ownerID's documents ordered by ID.
func (repository *MemoryRegistry) ListForOwner(_ context.Context, ownerID int64) ([]*Document, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	documents := make([]*Document, 0)
	for _, document := range repository.byID {
		if document.OwnerID == ownerID {
			clone := *document
			documents = append(documents, &clone)
		}
	}

	slices.SortFunc(documents, func(a, b *Document) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return documents, nil
}

// Delete removes documentID if ownerID owns it.
func (repository *MemoryRegistry) Delete(_ context.Context, documentID, ownerID int64) (*Document, bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if err := repository.takeFailure(); err != nil {
		return nil, false, err
	}

	document, ok := repository.byID[documentID]
	if !ok || document.OwnerID != ownerID {
		return nil, false, nil
	}

	delete(repository.byID, documentID)
	delete(repository.storageNames, document.StorageName)
	return document, true, nil
}

// CountForOwner counts ownerID's documents.
func (repository *MemoryRegistry) CountForOwner(_ context.Context, ownerID int64) (int, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	count := 0
	for _, document := range repository.byID {
		if document.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

// MarkIndexed flags ownerID's listed documents as indexed.
func (repository *MemoryRegistry) MarkIndexed(_ context.Context, ownerID int64, documentIDs []int64) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, id := range documentIDs {
		if document, ok := repository.byID[id]; ok && document.OwnerID == ownerID {
			document.IsIndexed = true
		}
	}
	return nil
}

// takeFailure must be called with the lock held.
func (repository *MemoryRegistry) takeFailure() error {
	err := repository.failNextWrite
	repository.failNextWrite = nil
	return err
}
