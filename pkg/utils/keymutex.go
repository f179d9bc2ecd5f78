package utils

import "sync"

// KeyMutex provides a mutex per key so independent keys never contend.
// Entries are reference counted and removed once the last holder unlocks,
// keeping the map from growing with dead keys.
type KeyMutex[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyMutex creates a new KeyMutex.
func NewKeyMutex[K comparable]() *KeyMutex[K] {
	return &KeyMutex[K]{
		locks: make(map[K]*keyLock),
	}
}

// Lock acquires the mutex for the given key, blocking until it is free.
func (m *KeyMutex[K]) Lock(key K) {
	m.mu.Lock()

	lock, exists := m.locks[key]
	if !exists {
		lock = &keyLock{}
		m.locks[key] = lock
	}

	lock.refs++

	m.mu.Unlock()

	lock.mu.Lock()
}

// Unlock releases the mutex for the given key.
func (m *KeyMutex[K]) Unlock(key K) {
	m.mu.Lock()

	lock, exists := m.locks[key]
	if exists {
		lock.refs--
		if lock.refs == 0 {
			delete(m.locks, key)
		}
	}

	m.mu.Unlock()

	if exists {
		lock.mu.Unlock()
	}
}
