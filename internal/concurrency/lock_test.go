package concurrency

import (
	"sync"
	"testing"
)

func TestKeyedLockManager_MutualExclusionPerKey(t *testing.T) {
	m := NewKeyedLockManager()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Lock("key")
			counter++
			m.Unlock("key")
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("Counter: got %d, want 100", counter)
	}
}

func TestKeyedLockManager_DistinctKeysIndependent(t *testing.T) {
	m := NewKeyedLockManager()

	m.Lock("a")
	done := make(chan struct{})
	go func() {
		m.Lock("b")
		m.Unlock("b")
		close(done)
	}()

	<-done // must not block on the lock held for "a"
	m.Unlock("a")
}

func TestKeyedLockManager_EvictsUnusedEntries(t *testing.T) {
	m := NewKeyedLockManager()

	// Every unique key, hostile senders included, releases its entry once the
	// last holder leaves.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := string(rune('a' + n%26))
			m.Lock(key)
			m.Unlock(key)
		}(i)
	}
	wg.Wait()

	if got := m.Size(); got != 0 {
		t.Errorf("Live entries after release: got %d, want 0", got)
	}

	m.Lock("held")
	if got := m.Size(); got != 1 {
		t.Errorf("Live entries while held: got %d, want 1", got)
	}
	m.Unlock("held")
	if got := m.Size(); got != 0 {
		t.Errorf("Live entries after unlock: got %d, want 0", got)
	}
}
