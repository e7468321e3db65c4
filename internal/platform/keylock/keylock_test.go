// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package keylock_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/dossier/internal/platform/keylock"
)

/*
TestKeyed_ExclusivePerKey verifies that writers on the same key serialize.
*/
func TestKeyed_ExclusivePerKey(t *testing.T) {
	locks := keylock.New[int64]()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(1)
			defer unlock()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, locks.Len())
}

/*
TestKeyed_IndependentKeys verifies that a held key does not block another key.
*/
func TestKeyed_IndependentKeys(t *testing.T) {
	locks := keylock.New[int64]()

	unlockAlice := locks.Lock(1)
	defer unlockAlice()

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock(2)
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on key 2 blocked behind key 1")
	}
}

/*
TestKeyed_ReadersShare verifies that readers of one key run together and
that a writer waits for them.
*/
func TestKeyed_ReadersShare(t *testing.T) {
	locks := keylock.New[string]()

	unlockFirst := locks.RLock("bob")
	unlockSecond := locks.RLock("bob")

	acquired := make(chan struct{})
	go func() {
		unlock := locks.Lock("bob")
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("writer acquired the lock while readers held it")
	case <-time.After(20 * time.Millisecond):
	}

	unlockFirst()
	unlockSecond()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("writer never acquired the lock")
	}
}
