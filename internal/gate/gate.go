// Package gate classifies inbound messages as authorized or intrusive.
// Rejection happens strictly before any session state is read or written, so
// an unauthorized sender can never cause a session to be created or observed.
package gate

import (
	"context"
	"log/slog"
	"time"

	"github.com/novatasks/nova/internal/audit"
	"github.com/novatasks/nova/internal/concurrency"
)

// DenialReply is what a rejected sender receives instead of a system error.
const DenialReply = "Access Denied! Unauthorized user detected. I am exclusively configured to assist my designated operator."

// IntrusionEvent records one rejected access attempt.
type IntrusionEvent struct {
	RejectedID    string
	SenderName    string
	AttemptedText string
	Timestamp     time.Time
}

// Notifier delivers a best-effort security alert to the principal.
// Failures are logged, never propagated to the rejection response.
type Notifier interface {
	Alert(ctx context.Context, ev IntrusionEvent) error
}

// Gate holds the single authorized principal identifier. Exactly one
// principal is treated as authorized per running process.
type Gate struct {
	principalID string
	notifier    Notifier
	journal     *audit.Journal
	now         func() time.Time
}

func New(principalID string, notifier Notifier, journal *audit.Journal) *Gate {
	return &Gate{
		principalID: principalID,
		notifier:    notifier,
		journal:     journal,
		now:         time.Now,
	}
}

// PrincipalID returns the configured authorized identifier.
func (g *Gate) PrincipalID() string {
	return g.principalID
}

// Authorize compares senderID against the configured principal with exact
// equality. On mismatch it records the intrusion and fires the alert, both
// best-effort, then reports rejection.
func (g *Gate) Authorize(ctx context.Context, senderID, senderName, text string) bool {
	if senderID == g.principalID && g.principalID != "" {
		return true
	}

	ev := IntrusionEvent{
		RejectedID:    senderID,
		SenderName:    senderName,
		AttemptedText: text,
		Timestamp:     g.now(),
	}

	slog.Warn("Intrusion attempt blocked", "rejected_id", senderID, "sender_name", senderName)

	if g.journal != nil {
		if err := g.journal.Record(audit.Entry{
			RejectedID:    ev.RejectedID,
			SenderName:    ev.SenderName,
			AttemptedText: ev.AttemptedText,
			Timestamp:     ev.Timestamp,
		}); err != nil {
			slog.Error("Failed to journal intrusion event", "error", err)
		}
	}

	if g.notifier != nil {
		concurrency.SafeGo(func() {
			if err := g.notifier.Alert(context.WithoutCancel(ctx), ev); err != nil {
				slog.Error("Failed to alert principal of intrusion", "rejected_id", senderID, "error", err)
			}
		}, nil)
	}

	return false
}
