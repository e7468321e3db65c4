// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"sync"
	"time"
)

// # In-Memory Principal Repository

// MemoryPrincipalRepository keeps principals in process memory.
//
// It backs STORE_DRIVER=memory and the test suites. Uniqueness is checked and
// the record inserted under one lock, matching the database's guarantee.
type MemoryPrincipalRepository struct {
	mu         sync.RWMutex
	nextID     int64
	byID       map[int64]*Principal
	byUsername map[string]int64
	byEmail    map[string]int64
}

// NewMemoryPrincipalRepository creates an empty repository.
func NewMemoryPrincipalRepository() *MemoryPrincipalRepository {
	return &MemoryPrincipalRepository{
		byID:       make(map[int64]*Principal),
		byUsername: make(map[string]int64),
		byEmail:    make(map[string]int64),
	}
}

// Create inserts principal, assigning the next ID.
func (repository *MemoryPrincipalRepository) Create(_ context.Context, principal *Principal) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, taken := repository.byUsername[principal.Username]; taken {
		return ErrDuplicateUsername
	}
	if _, taken := repository.byEmail[principal.Email]; taken {
		return ErrDuplicateEmail
	}

	repository.nextID++
	now := time.Now().UTC()

	principal.ID = repository.nextID
	principal.CreatedAt = now
	principal.UpdatedAt = now

	stored := *principal
	repository.byID[stored.ID] = &stored
	repository.byUsername[stored.Username] = stored.ID
	repository.byEmail[stored.Email] = stored.ID
	return nil
}

// FindByID returns a copy of the principal with id.
func (repository *MemoryPrincipalRepository) FindByID(_ context.Context, id int64) (*Principal, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()
	return repository.copyOf(id)
}

// FindByUsername returns a copy of the principal with username.
func (repository *MemoryPrincipalRepository) FindByUsername(_ context.Context, username string) (*Principal, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	id, ok := repository.byUsername[username]
	if !ok {
		return nil, ErrPrincipalNotFound
	}
	return repository.copyOf(id)
}

// FindByEmail returns a copy of the principal with email.
func (repository *MemoryPrincipalRepository) FindByEmail(_ context.Context, email string) (*Principal, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	id, ok := repository.byEmail[email]
	if !ok {
		return nil, ErrPrincipalNotFound
	}
	return repository.copyOf(id)
}

// UpdatePasswordHash replaces the stored hash.
func (repository *MemoryPrincipalRepository) UpdatePasswordHash(_ context.Context, id int64, newHash string) error {
	return repository.mutate(id, func(principal *Principal) {
		principal.PasswordHash = newHash
	})
}

// UpdateDisplayName replaces the display name and returns the updated record.
func (repository *MemoryPrincipalRepository) UpdateDisplayName(_ context.Context, id int64, displayName string) (*Principal, error) {
	if err := repository.mutate(id, func(principal *Principal) {
		principal.DisplayName = displayName
	}); err != nil {
		return nil, err
	}

	repository.mu.RLock()
	defer repository.mu.RUnlock()
	return repository.copyOf(id)
}

// Deactivate clears the active flag.
func (repository *MemoryPrincipalRepository) Deactivate(_ context.Context, id int64) error {
	return repository.mutate(id, func(principal *Principal) {
		principal.IsActive = false
	})
}

func (repository *MemoryPrincipalRepository) mutate(id int64, apply func(*Principal)) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	principal, ok := repository.byID[id]
	if !ok {
		return ErrPrincipalNotFound
	}
	apply(principal)
	principal.UpdatedAt = time.Now().UTC()
	return nil
}

// copyOf must be called with the lock held.
func (repository *MemoryPrincipalRepository) copyOf(id int64) (*Principal, error) {
	principal, ok := repository.byID[id]
	if !ok {
		return nil, ErrPrincipalNotFound
	}
	clone := *principal
	return &clone, nil
}

// # In-Memory Revocation List

// MemoryRevocationList keeps revoked token IDs in process memory.
type MemoryRevocationList struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocationList creates an empty revocation list.
func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{entries: make(map[string]time.Time), now: time.Now}
}

// Revoke records tokenID until ttl elapses.
func (list *MemoryRevocationList) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	list.mu.Lock()
	defer list.mu.Unlock()

	now := list.now()
	for id, expiresAt := range list.entries {
		if !now.Before(expiresAt) {
			delete(list.entries, id)
		}
	}
	list.entries[tokenID] = now.Add(ttl)
	return nil
}

// IsRevoked reports whether tokenID is on the list and not yet expired.
func (list *MemoryRevocationList) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	list.mu.Lock()
	defer list.mu.Unlock()

	expiresAt, ok := list.entries[tokenID]
	return ok && list.now().Before(expiresAt), nil
}
