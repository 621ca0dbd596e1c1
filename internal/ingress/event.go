package ingress

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/novatasks/nova/internal/adapter"
)

type EventType string

const (
	TypeUserMessage EventType = "user_message"
	TypeCommand     EventType = "command" // Slash command
)

// Event is the normalized data structure for all inbound messages.
type Event struct {
	// Identity
	ID         string `json:"id"` // ULID
	Source     string `json:"source"`
	ExternalID string `json:"external_id"` // transport update id

	// Classification
	Type EventType `json:"type"`

	// Addressing
	SenderID   string `json:"sender_id"`
	ChatID     string `json:"chat_id"`
	SenderName string `json:"sender_name,omitempty"`

	// Payload
	Content string `json:"content"`

	ReceivedAt time.Time `json:"received_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewEvent normalizes an adapter message into an event with a fresh ULID.
func NewEvent(source string, msg adapter.InboundMessage) Event {
	return Event{
		ID:         ulid.Make().String(),
		Source:     source,
		ExternalID: msg.ExternalID,
		Type:       TypeUserMessage,
		SenderID:   msg.SenderID,
		ChatID:     msg.ChatID,
		SenderName: msg.SenderName,
		Content:    msg.Text,
		ReceivedAt: msg.ReceivedAt,
		CreatedAt:  time.Now(),
	}
}

// DedupeKey is the deterministic idempotency key for an event.
func DedupeKey(source, externalID string) string {
	return fmt.Sprintf("%s:%s", source, externalID)
}
