package ingress

import (
	"context"
	"testing"
	"time"

	"github.com/novatasks/nova/internal/adapter"
	"github.com/novatasks/nova/internal/errors"
)

func newTestIngress(queueSize int) *Ingress {
	return NewIngress(queueSize, RuntimeConfig{
		SubmitTimeout: 50 * time.Millisecond,
		DedupeTTL:     time.Minute,
	})
}

func userEvent(externalID, senderID, text string) *Event {
	evt := NewEvent("telegram", adapter.InboundMessage{
		ExternalID: externalID,
		SenderID:   senderID,
		ChatID:     senderID,
		Text:       text,
		ReceivedAt: time.Now(),
	})
	return &evt
}

func TestIngress_SubmitQueues(t *testing.T) {
	ing := newTestIngress(10)

	evt := userEvent("1", "100", "remind me to buy coffee")
	if err := ing.Submit(context.Background(), evt); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case got := <-ing.Queue():
		if got.Content != "remind me to buy coffee" {
			t.Errorf("Queued content: %q", got.Content)
		}
		if got.ID == "" {
			t.Error("Event ID not assigned")
		}
	default:
		t.Fatal("Event not queued")
	}
}

func TestIngress_DuplicateDropped(t *testing.T) {
	ing := newTestIngress(10)

	first := userEvent("42", "100", "hello")
	if err := ing.Submit(context.Background(), first); err != nil {
		t.Fatalf("First submit: %v", err)
	}

	dup := userEvent("42", "100", "hello")
	err := ing.Submit(context.Background(), dup)
	if !errors.IsCategory(err, errors.ErrDuplicateEvent) {
		t.Errorf("Expected duplicate error, got %v", err)
	}

	if len(ing.Queue()) != 1 {
		t.Errorf("Queue length: got %d, want 1", len(ing.Queue()))
	}
}

func TestIngress_Backpressure(t *testing.T) {
	ing := newTestIngress(1)

	if err := ing.Submit(context.Background(), userEvent("1", "100", "a")); err != nil {
		t.Fatalf("First submit: %v", err)
	}

	err := ing.Submit(context.Background(), userEvent("2", "100", "b"))
	if !errors.IsCategory(err, errors.ErrTransient) {
		t.Errorf("Expected transient backpressure error, got %v", err)
	}
}

func TestIngress_RegisteredCommandHandledInline(t *testing.T) {
	ing := newTestIngress(10)

	var handled *Event
	ing.RegisterCommand("/start", func(ctx context.Context, evt *Event) error {
		handled = evt
		return nil
	})

	if err := ing.Submit(context.Background(), userEvent("1", "100", "/start")); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if handled == nil {
		t.Fatal("Command handler not invoked")
	}
	if handled.Type != TypeCommand {
		t.Errorf("Event type: got %q, want %q", handled.Type, TypeCommand)
	}
	if len(ing.Queue()) != 0 {
		t.Error("Command leaked into the pipeline queue")
	}
}

func TestIngress_UnknownCommandDropped(t *testing.T) {
	ing := newTestIngress(10)

	if err := ing.Submit(context.Background(), userEvent("1", "100", "/unknown")); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(ing.Queue()) != 0 {
		t.Error("Unknown command reached the pipeline queue")
	}
}

func TestIngress_NilEvent(t *testing.T) {
	ing := newTestIngress(10)

	if err := ing.Submit(context.Background(), nil); !errors.IsCategory(err, errors.ErrInvalidInput) {
		t.Errorf("Expected invalid input error, got %v", err)
	}
}

func TestIngress_Health(t *testing.T) {
	ing := newTestIngress(10)

	if err := ing.Health(context.Background()); err != nil {
		t.Errorf("Empty queue should be healthy: %v", err)
	}

	for i := 0; i < 10; i++ {
		ing.queue <- userEvent("x", "100", "fill")
	}
	if err := ing.Health(context.Background()); err == nil {
		t.Error("Saturated queue should report unhealthy")
	}
}
