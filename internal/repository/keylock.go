package repository

import (
	"context"
	"sync"
)

// keyLocks hands out one single-slot semaphore per key. Slots are dropped once
// nobody holds or waits for them, so the map only grows with in-flight keys.
type keyLocks[K comparable] struct {
	mu    sync.Mutex
	slots map[K]*slot
}

type slot struct {
	sem  chan struct{}
	refs int
}

func newKeyLocks[K comparable]() *keyLocks[K] {
	return &keyLocks[K]{slots: make(map[K]*slot)}
}

// acquire blocks until the slot for key is free or ctx is done.
func (l *keyLocks[K]) acquire(ctx context.Context, key K) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{sem: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.sem
				l.put(key, s)
			})
		}, nil
	case <-ctx.Done():
		l.put(key, s)
		return nil, ctx.Err()
	}
}

func (l *keyLocks[K]) put(key K, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

func (l *keyLocks[K]) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
