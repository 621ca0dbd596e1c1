package ingress

import (
	"context"
	"testing"
)

func TestRouter_PlainTextToPipeline(t *testing.T) {
	r := NewStandardRouter()

	evt := &Event{Content: "remind me to buy coffee", Type: TypeUserMessage}
	dest := r.Route(context.Background(), evt)

	if dest.Type != DestPipeline {
		t.Errorf("Destination: got %v, want pipeline", dest.Type)
	}
	if evt.Type != TypeUserMessage {
		t.Error("Plain text must stay a user message")
	}
}

func TestRouter_RegisteredCommand(t *testing.T) {
	r := NewStandardRouter()
	r.RegisterCommand("/start", func(ctx context.Context, evt *Event) error { return nil })

	evt := &Event{Content: "/start", Type: TypeUserMessage}
	dest := r.Route(context.Background(), evt)

	if dest.Type != DestCommand {
		t.Errorf("Destination: got %v, want command", dest.Type)
	}
	if dest.Handler == nil {
		t.Error("Handler missing on command destination")
	}
	if evt.Type != TypeCommand {
		t.Error("Command not reclassified")
	}
}

func TestRouter_CommandWithArguments(t *testing.T) {
	r := NewStandardRouter()
	r.RegisterCommand("/start", func(ctx context.Context, evt *Event) error { return nil })

	dest := r.Route(context.Background(), &Event{Content: "  /start now  "})
	if dest.Type != DestCommand {
		t.Errorf("Command with arguments not matched: %v", dest.Type)
	}
}

func TestRouter_UnknownCommandDropped(t *testing.T) {
	r := NewStandardRouter()

	dest := r.Route(context.Background(), &Event{Content: "/help"})
	if dest.Type != DestDrop {
		t.Errorf("Destination: got %v, want drop", dest.Type)
	}
}
