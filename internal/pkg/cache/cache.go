package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Store is a TTL-bounded get-or-compute cache. Entries go stale only by TTL
// expiry or explicit invalidation; no background timer refreshes them.
// Concurrent misses on the same key collapse into a single in-flight
// computation, with every caller receiving that one result.
//
// Stores are explicit service objects: constructed once, injected into their
// callers, never reached through package-level state.
type Store[K comparable, V any] struct {
	name  string
	ttl   time.Duration
	keyFn func(K) string

	mu      sync.RWMutex
	entries map[K]entry[V]
	group   singleflight.Group

	// now is swapped in tests to step time
	now func() time.Time
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// New builds a Store. keyFn maps the typed key onto the string space the
// in-flight registry is keyed by; it must be injective.
func New[K comparable, V any](name string, ttl time.Duration, keyFn func(K) string) *Store[K, V] {
	return &Store[K, V]{
		name:    name,
		ttl:     ttl,
		keyFn:   keyFn,
		entries: make(map[K]entry[V]),
		now:     time.Now,
	}
}

// GetOrCompute returns the cached value for key, or runs compute exactly once
// across all concurrent callers and caches its result. Errors are never
// cached.
func (s *Store[K, V]) GetOrCompute(ctx context.Context, key K, compute func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := s.lookup(key); ok {
		return v, nil
	}

	v, err, _ := s.group.Do(s.keyFn(key), func() (interface{}, error) {
		// Another caller may have filled the entry while we queued.
		if v, ok := s.lookup(key); ok {
			return v, nil
		}
		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		s.put(key, value)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Invalidate drops the entry for key and forgets any in-flight computation
// for it, so the next read resolves freshly. Callers must invalidate after
// their mutation commits and before acknowledging it.
func (s *Store[K, V]) Invalidate(key K) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	s.group.Forget(s.keyFn(key))
}

// InvalidateAll drops every entry.
func (s *Store[K, V]) InvalidateAll() {
	s.mu.Lock()
	s.entries = make(map[K]entry[V])
	s.mu.Unlock()
}

// Len reports the number of live (possibly expired) entries.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store[K, V]) lookup(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || s.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (s *Store[K, V]) put(key K, value V) {
	s.mu.Lock()
	s.entries[key] = entry[V]{value: value, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
}
