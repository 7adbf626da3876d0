// Package viewstate keeps per-view state objects, keyed by a view id and
// dropped once the view has been idle for longer than the TTL.
package viewstate

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value    T
	lastUsed time.Time
}

// Registry holds one T per key. All access goes through With, which runs
// under the registry lock, so a T never needs its own synchronization.
type Registry[T any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*entry[T]
}

// New returns a registry whose entries expire after ttl of inactivity.
// A non-positive ttl disables expiry.
func New[T any](ttl time.Duration) *Registry[T] {
	return &Registry[T]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*entry[T]),
	}
}

// Put stores value under key, replacing any previous value.
func (r *Registry[T]) Put(key string, value T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	r.entries[key] = &entry[T]{value: value, lastUsed: r.now()}
}

// With runs fn on the value stored under key. It reports false, without
// calling fn, when there is none.
func (r *Registry[T]) With(key string, fn func(T) error) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	e, ok := r.entries[key]
	if !ok {
		return false, nil
	}
	e.lastUsed = r.now()
	return true, fn(e.value)
}

// Delete drops key.
func (r *Registry[T]) Delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// Len returns the number of live entries.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	return len(r.entries)
}

func (r *Registry[T]) sweepLocked() {
	if r.ttl <= 0 {
		return
	}
	cutoff := r.now().Add(-r.ttl)
	for k, e := range r.entries {
		if e.lastUsed.Before(cutoff) {
			delete(r.entries, k)
		}
	}
}
