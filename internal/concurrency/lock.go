package concurrency

import "sync"

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// KeyedLockManager serializes processing per principal. Turn N+1 for one
// principal must not start before turn N completes; distinct principals must
// never block each other. Entries are reference counted and evicted once no
// goroutine holds or waits on them, so hostile sender ids seen once do not
// accumulate.
type KeyedLockManager struct {
	locks map[string]*lockEntry
	mu    sync.Mutex
}

func NewKeyedLockManager() *KeyedLockManager {
	return &KeyedLockManager{
		locks: make(map[string]*lockEntry),
	}
}

func (m *KeyedLockManager) Lock(key string) {
	m.mu.Lock()
	entry, ok := m.locks[key]
	if !ok {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	m.mu.Unlock()
	entry.mu.Lock()
}

func (m *KeyedLockManager) Unlock(key string) {
	m.mu.Lock()
	entry, ok := m.locks[key]
	if !ok {
		m.mu.Unlock()
		return
	}
	entry.refs--
	if entry.refs == 0 {
		delete(m.locks, key)
	}
	m.mu.Unlock()
	entry.mu.Unlock()
}

// Size reports how many keys currently have a live entry.
func (m *KeyedLockManager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
