package session

import (
	"log/slog"
	"sync"
	"time"
)

// Store is the single shared mutable resource of the conversation layer.
// It is specified for arbitrary keys even though the running system is locked
// to one principal, so concurrent distinct-key access stays correct and
// testable.
type Store interface {
	// GetOrCreate returns the live session for ownerID, atomically creating
	// an empty one when absent.
	GetOrCreate(ownerID string) *Session

	// Append adds a turn to the session. A missing session is a caller error,
	// not a user-facing one: it is logged and ignored.
	Append(ownerID, role, text string)

	// Destroy removes the session. Destroying a non-existent session is not
	// an error.
	Destroy(ownerID string)

	Exists(ownerID string) bool

	// Turns returns a copy of the session's turn sequence, oldest first.
	Turns(ownerID string) []Turn

	// IdleOwners returns owners whose sessions have been untouched for
	// longer than ttl.
	IdleOwners(ttl time.Duration) []string

	// DestroyIfIdle destroys the session only if it is still idle. The
	// sweeper calls this under the per-principal lock so eviction never
	// races an in-flight append.
	DestroyIfIdle(ownerID string, ttl time.Duration) bool
}

// MemoryStore is the in-memory Store. maxTurns bounds per-session growth:
// once exceeded, the oldest turns are dropped (newest context wins, matching
// how the agent consumes history).
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	maxTurns int
	now      func() time.Time
}

func NewMemoryStore(maxTurns int) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		maxTurns: maxTurns,
		now:      time.Now,
	}
}

func (s *MemoryStore) GetOrCreate(ownerID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[ownerID]; ok {
		return sess
	}

	sess := newSession(ownerID, s.now())
	s.sessions[ownerID] = sess
	slog.Debug("Session created", "owner", ownerID, "session", sess.ID)
	return sess
}

func (s *MemoryStore) Append(ownerID, role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[ownerID]
	if !ok {
		slog.Warn("Append with no backing session, ignoring", "owner", ownerID, "role", role)
		return
	}

	now := s.now()
	sess.Turns = append(sess.Turns, Turn{Role: role, Text: text, At: now})
	sess.LastTouchedAt = now

	if s.maxTurns > 0 && len(sess.Turns) > s.maxTurns {
		overflow := len(sess.Turns) - s.maxTurns
		sess.Turns = append(sess.Turns[:0:0], sess.Turns[overflow:]...)
		slog.Debug("Session turn cap reached, oldest turns dropped", "owner", ownerID, "dropped", overflow)
	}
}

func (s *MemoryStore) Destroy(ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[ownerID]; !ok {
		return
	}

	delete(s.sessions, ownerID)
	slog.Info("Session destroyed", "owner", ownerID)
}

func (s *MemoryStore) Exists(ownerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.sessions[ownerID]
	return ok
}

func (s *MemoryStore) Turns(ownerID string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[ownerID]
	if !ok {
		return nil
	}

	out := make([]Turn, len(sess.Turns))
	copy(out, sess.Turns)
	return out
}

func (s *MemoryStore) IdleOwners(ttl time.Duration) []string {
	if ttl <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.now().Add(-ttl)
	var idle []string
	for owner, sess := range s.sessions {
		if sess.LastTouchedAt.Before(cutoff) {
			idle = append(idle, owner)
		}
	}
	return idle
}

func (s *MemoryStore) DestroyIfIdle(ownerID string, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[ownerID]
	if !ok {
		return false
	}

	if !sess.LastTouchedAt.Before(s.now().Add(-ttl)) {
		return false
	}

	delete(s.sessions, ownerID)
	slog.Info("Idle session evicted", "owner", ownerID, "idle_ttl", ttl)
	return true
}
