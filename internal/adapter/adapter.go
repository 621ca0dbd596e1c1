package adapter

import (
	"context"
	"time"
)

// Mode selects the formatting level for an outbound message.
type Mode string

const (
	// ModeMarkdown asks the transport to interpret rich-formatting syntax.
	ModeMarkdown Mode = "markdown"
	// ModePlain delivers the text verbatim with no markup interpretation.
	ModePlain Mode = "plain"
)

// InboundMessage is the normalized payload adapters hand to the event handler.
type InboundMessage struct {
	// ExternalID is the transport-unique update identifier, used for
	// idempotency.
	ExternalID string
	// SenderID identifies who wrote the message (compared against the
	// principal).
	SenderID string
	// ChatID identifies where replies go. Equal to SenderID in direct chats.
	ChatID string
	// SenderName is a display name for alerting, best effort.
	SenderName string
	Text       string
	ReceivedAt time.Time
}

// EventHandler is the callback adapters invoke for each inbound message.
// It decouples adapters from ingress wiring.
type EventHandler func(ctx context.Context, source string, msg InboundMessage) error

// InputAdapter receives events from an external platform.
type InputAdapter interface {
	Name() string

	// Start begins listening (long-poll or server). Must respect context
	// cancellation.
	Start(ctx context.Context) error

	Stop(ctx context.Context) error

	Health(ctx context.Context) error
}

// OutputAdapter sends messages to an external platform. A Send that fails
// because the platform rejected the formatting syntax must return an error
// wrapping errors.ErrFormatDelivery so the renderer can fall back.
type OutputAdapter interface {
	Name() string

	Send(ctx context.Context, chatID string, text string, mode Mode) error

	// Typing shows a best-effort "typing" indicator in the chat. Transports
	// without one return nil.
	Typing(ctx context.Context, chatID string) error

	Health(ctx context.Context) error
}
