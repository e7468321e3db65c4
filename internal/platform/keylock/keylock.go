// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package keylock provides reader/writer locks scoped to a key.
//
// Callers holding locks for different keys never contend. Entries are
// reference counted and dropped once the last holder releases them, so the
// table only grows with the number of keys in use at the same moment.
package keylock

import "sync"

// Keyed hands out one [sync.RWMutex] per key.
type Keyed[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

type entry struct {
	lock sync.RWMutex
	refs int
}

// New creates an empty lock table.
func New[K comparable]() *Keyed[K] {
	return &Keyed[K]{entries: make(map[K]*entry)}
}

// Lock acquires the exclusive lock for key and returns its release function.
func (keyed *Keyed[K]) Lock(key K) (unlock func()) {
	e := keyed.acquire(key)
	e.lock.Lock()
	return func() {
		e.lock.Unlock()
		keyed.release(key)
	}
}

// RLock acquires the shared lock for key and returns its release function.
func (keyed *Keyed[K]) RLock(key K) (unlock func()) {
	e := keyed.acquire(key)
	e.lock.RLock()
	return func() {
		e.lock.RUnlock()
		keyed.release(key)
	}
}

// Len reports how many keys currently have holders or waiters.
func (keyed *Keyed[K]) Len() int {
	keyed.mu.Lock()
	defer keyed.mu.Unlock()
	return len(keyed.entries)
}

func (keyed *Keyed[K]) acquire(key K) *entry {
	keyed.mu.Lock()
	defer keyed.mu.Unlock()

	e, ok := keyed.entries[key]
	if !ok {
		e = &entry{}
		keyed.entries[key] = e
	}
	e.refs++
	return e
}

func (keyed *Keyed[K]) release(key K) {
	keyed.mu.Lock()
	defer keyed.mu.Unlock()

	e := keyed.entries[key]
	e.refs--
	if e.refs == 0 {
		delete(keyed.entries, key)
	}
}
