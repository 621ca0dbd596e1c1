// Package session holds the ephemeral per-principal conversation state used
// for multi-turn slot-filling. Sessions live only in process memory: they are
// created on the first authorized message, accumulate role-tagged turns, and
// are destroyed the moment the agent signals the task is done (or after an
// idle timeout). Nothing here survives a restart.
package session

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Roles for turn attribution.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one role-tagged message in a conversation. Insertion order is
// significant: the agent's reasoning depends on it.
type Turn struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Session is the accumulated conversation for one principal.
type Session struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Turns         []Turn    `json:"turns"`
	CreatedAt     time.Time `json:"created_at"`
	LastTouchedAt time.Time `json:"last_touched_at"`
}

func newSession(ownerID string, now time.Time) *Session {
	return &Session{
		ID:            ulid.Make().String(),
		OwnerID:       ownerID,
		CreatedAt:     now,
		LastTouchedAt: now,
	}
}
