// Package cache implements the tiered read-through data cache: in-process
// memory, persistent store, external catalog, with self-healing on a total
// miss.
package cache

import (
	"sync"
	"time"
)

type memoryEntry[V any] struct {
	value   V
	expires time.Time
}

// Memory is the fast in-process tier: a mutex-guarded map with per-entry
// expiry. Expired entries are pruned opportunistically on writes.
type Memory[V any] struct {
	mu        sync.RWMutex
	ttl       time.Duration
	items     map[string]memoryEntry[V]
	lastPrune time.Time
	now       func() time.Time
}

// NewMemory returns an empty memory tier whose entries live for ttl.
func NewMemory[V any](ttl time.Duration) *Memory[V] {
	return &Memory[V]{
		ttl:   ttl,
		items: make(map[string]memoryEntry[V]),
		now:   time.Now,
	}
}

// Get returns the cached value for key if present and unexpired.
func (m *Memory[V]) Get(key string) (V, bool) {
	m.mu.RLock()
	entry, ok := m.items[key]
	m.mu.RUnlock()
	if !ok || m.now().After(entry.expires) {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Set stores a value under key with a fresh expiry.
func (m *Memory[V]) Set(key string, value V) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = memoryEntry[V]{value: value, expires: now.Add(m.ttl)}
	if now.Sub(m.lastPrune) > m.ttl {
		for k, e := range m.items {
			if now.After(e.expires) {
				delete(m.items, k)
			}
		}
		m.lastPrune = now
	}
}

// Len returns the number of entries currently held, expired or not.
func (m *Memory[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
