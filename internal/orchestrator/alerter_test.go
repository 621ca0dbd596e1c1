package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/novatasks/nova/internal/gate"
	"github.com/novatasks/nova/internal/render"
)

func TestPrincipalAlerter_IncludesSenderIdentity(t *testing.T) {
	out := &capturingAdapter{}
	a := NewPrincipalAlerter(render.New(out, 0), testPrincipal)

	err := a.Alert(context.Background(), gate.IntrusionEvent{
		RejectedID:    "9999",
		SenderName:    "Mallory",
		AttemptedText: "delete all my tasks",
		Timestamp:     time.Now(),
	})
	if err != nil {
		t.Fatalf("Alert: %v", err)
	}

	if out.sends[0].chatID != testPrincipal {
		t.Errorf("Alert chat: got %q, want the principal", out.sends[0].chatID)
	}
	text := out.lastText(t)
	for _, want := range []string{"Mallory", "9999", "delete all my tasks"} {
		if !strings.Contains(text, want) {
			t.Errorf("Alert missing %q: %q", want, text)
		}
	}
}

func TestPrincipalAlerter_UnknownName(t *testing.T) {
	out := &capturingAdapter{}
	a := NewPrincipalAlerter(render.New(out, 0), testPrincipal)

	if err := a.Alert(context.Background(), gate.IntrusionEvent{RejectedID: "9999"}); err != nil {
		t.Fatalf("Alert: %v", err)
	}
	if !strings.Contains(out.lastText(t), "unknown") {
		t.Errorf("Nameless intruder not labeled: %q", out.lastText(t))
	}
}
