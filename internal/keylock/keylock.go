// Package keylock provides exclusive locks keyed by entity id with
// context-bounded acquisition. One lock guards one order or one stock line;
// acquisition that outlives the caller's deadline fails with ErrBusy instead
// of blocking indefinitely.
package keylock

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrBusy is returned when a lock could not be acquired before the caller's
// context expired. Callers are expected to retry with backoff.
var ErrBusy = errors.New("entity is locked by a concurrent operation")

type entry struct {
	sem     *semaphore.Weighted
	waiters int
}

// KeyLock hands out one exclusive lock per key. Locks are created lazily and
// discarded once nobody holds or waits for them.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*entry)}
}

// Acquire takes the exclusive lock for key, waiting no longer than ctx allows.
// On success it returns a release function that must be called exactly once.
func (k *KeyLock) Acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		k.locks[key] = e
	}
	e.waiters++
	k.mu.Unlock()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		k.release(key, e, false)
		return nil, ErrBusy
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			k.release(key, e, true)
		})
	}, nil
}

func (k *KeyLock) release(key string, e *entry, held bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if held {
		e.sem.Release(1)
	}
	e.waiters--
	if e.waiters == 0 {
		delete(k.locks, key)
	}
}
