package orchestrator

import (
	"context"
	"fmt"

	"github.com/novatasks/nova/internal/gate"
	"github.com/novatasks/nova/internal/render"
)

// PrincipalAlerter delivers intrusion alerts to the principal's own chat.
// It implements gate.Notifier.
type PrincipalAlerter struct {
	renderer    *render.Renderer
	principalID string
}

func NewPrincipalAlerter(renderer *render.Renderer, principalID string) *PrincipalAlerter {
	return &PrincipalAlerter{renderer: renderer, principalID: principalID}
}

func (a *PrincipalAlerter) Alert(ctx context.Context, ev gate.IntrusionEvent) error {
	name := ev.SenderName
	if name == "" {
		name = "unknown"
	}
	msg := fmt.Sprintf(
		"SECURITY ALERT\n\nSomeone tried to access your task assistant!\nName: %s\nUser ID: %s\nThey typed: %s",
		name, ev.RejectedID, ev.AttemptedText,
	)
	return a.renderer.Deliver(ctx, a.principalID, msg)
}
