package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"service-fulfillment/internal/apperr"
)

// ErrKeyChanged is returned when an update tries to move a record to another key.
var ErrKeyChanged = errors.New("update must not change record key")

// Store is a concurrency-safe in-memory record store indexed by id and by key (order id).
//
// Records are held by value: every read returns a copy and writes go through Insert and
// Update only. The store knows nothing about entity invariants; callers enforce them by
// running their check-then-act sequence inside WithKey.
type Store[K comparable, V any] struct {
	mu      sync.RWMutex
	seq     int64
	records []V
	byID    map[int64]int
	byKey   map[K][]int

	keyOf func(V) K
	stamp func(*V, int64)
	locks *keyLocks[K]
}

// New creates an empty Store. keyOf extracts the record key, stamp writes the
// generated sequence id into a record.
func New[K comparable, V any](keyOf func(V) K, stamp func(*V, int64)) *Store[K, V] {
	return &Store[K, V]{
		byID:  make(map[int64]int),
		byKey: make(map[K][]int),
		keyOf: keyOf,
		stamp: stamp,
		locks: newKeyLocks[K](),
	}
}

// Insert reserves the next id, stamps it onto the record and appends it.
func (s *Store[K, V]) Insert(v V) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	id := s.seq
	s.stamp(&v, id)

	idx := len(s.records)
	s.records = append(s.records, v)
	s.byID[id] = idx
	key := s.keyOf(v)
	s.byKey[key] = append(s.byKey[key], idx)
	return id
}

// Find returns the first record for key, in insertion order, accepted by match.
// A nil match accepts every record.
func (s *Store[K, V]) Find(key K, match func(V) bool) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, idx := range s.byKey[key] {
		if v := s.records[idx]; match == nil || match(v) {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// FindLast returns the most recently inserted record for key accepted by match.
func (s *Store[K, V]) FindLast(key K, match func(V) bool) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idxs := s.byKey[key]
	for i := len(idxs) - 1; i >= 0; i-- {
		if v := s.records[idxs[i]]; match == nil || match(v) {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// List returns a copy of all records in insertion order.
func (s *Store[K, V]) List() []V {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]V, len(s.records))
	copy(out, s.records)
	return out
}

// Count returns the number of records accepted by match.
func (s *Store[K, V]) Count(match func(V) bool) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if match == nil {
		return len(s.records)
	}
	n := 0
	for _, v := range s.records {
		if match(v) {
			n++
		}
	}
	return n
}

// Update applies mutate to a copy of the record with the given id and stores the
// result. If mutate fails the stored record is left untouched.
func (s *Store[K, V]) Update(id int64, mutate func(*V) error) (V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	idx, ok := s.byID[id]
	if !ok {
		return zero, fmt.Errorf("record %d: %w", id, apperr.ErrNotFound)
	}

	next := s.records[idx]
	if err := mutate(&next); err != nil {
		return zero, err
	}
	if s.keyOf(next) != s.keyOf(s.records[idx]) {
		return zero, ErrKeyChanged
	}
	s.records[idx] = next
	return next, nil
}

// WithKey runs fn while holding the exclusive section for key. Calls for different
// keys proceed in parallel. fn must not call WithKey for the same key.
func (s *Store[K, V]) WithKey(ctx context.Context, key K, fn func() error) error {
	release, err := s.locks.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}
