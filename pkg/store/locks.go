package store

import (
	"context"
	"sync"
)

// nameLocks hands out one single-slot semaphore per document name.
// Entries are never evicted; the set of names an application touches is small.
type nameLocks struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newNameLocks() *nameLocks {
	return &nameLocks{slots: make(map[string]chan struct{})}
}

// acquire blocks until name is free or ctx is done.
func (l *nameLocks) acquire(ctx context.Context, name string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	slot, ok := l.slots[name]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[name] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-slot }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *nameLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
