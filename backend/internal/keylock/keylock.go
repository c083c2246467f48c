package keylock

import (
	"context"
	"sync"
)

// KeyLock provides an exclusive lock per string key. It backs the task
// lifecycle engine: every status transition on a task acquires the lock for
// that task id before reading the row, so at most one transition is in
// flight per task. Locks for distinct keys never contend.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	sem  chan struct{}
	refs int
}

func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*entry)}
}

// Acquire blocks until the lock for key is held or ctx is done. On success
// it returns a release function that must be called exactly once. On ctx
// expiry it returns ctx.Err(), which callers surface as a retryable busy
// condition.
func (kl *KeyLock) Acquire(ctx context.Context, key string) (func(), error) {
	kl.mu.Lock()
	e, ok := kl.locks[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		kl.locks[key] = e
	}
	e.refs++
	kl.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return func() {
			<-e.sem
			kl.release(key, e)
		}, nil
	case <-ctx.Done():
		kl.release(key, e)
		return nil, ctx.Err()
	}
}

func (kl *KeyLock) release(key string, e *entry) {
	kl.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(kl.locks, key)
	}
	kl.mu.Unlock()
}
