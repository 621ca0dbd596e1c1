package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/novatasks/nova/internal/adapter"
	"github.com/novatasks/nova/internal/agent/contract"
	"github.com/novatasks/nova/internal/errors"
	"github.com/novatasks/nova/internal/gate"
	"github.com/novatasks/nova/internal/ingress"
	"github.com/novatasks/nova/internal/render"
	"github.com/novatasks/nova/internal/session"
	"github.com/novatasks/nova/internal/signal"
)

const testPrincipal = "123456"

// scriptedDispatcher returns queued replies (or errors) in order and records
// the history it was handed.
type scriptedDispatcher struct {
	replies   []string
	errs      []error
	calls     int
	histories [][]contract.Message
}

func (d *scriptedDispatcher) Dispatch(ctx context.Context, history []contract.Message) (string, error) {
	idx := d.calls
	d.calls++
	d.histories = append(d.histories, history)
	if idx < len(d.errs) && d.errs[idx] != nil {
		return "", d.errs[idx]
	}
	if idx < len(d.replies) {
		return d.replies[idx], nil
	}
	return "", errors.Internal("no scripted reply")
}

func (d *scriptedDispatcher) Health(ctx context.Context) error { return nil }

type capturingAdapter struct {
	sends    []sendRecord
	typing   []string
	failWith error
}

type sendRecord struct {
	chatID string
	text   string
	mode   adapter.Mode
}

func (c *capturingAdapter) Name() string { return "capturing" }

func (c *capturingAdapter) Send(ctx context.Context, chatID string, text string, mode adapter.Mode) error {
	if c.failWith != nil {
		return c.failWith
	}
	c.sends = append(c.sends, sendRecord{chatID: chatID, text: text, mode: mode})
	return nil
}

func (c *capturingAdapter) Typing(ctx context.Context, chatID string) error {
	c.typing = append(c.typing, chatID)
	return nil
}

func (c *capturingAdapter) Health(ctx context.Context) error { return nil }

func (c *capturingAdapter) lastText(t *testing.T) string {
	t.Helper()
	if len(c.sends) == 0 {
		t.Fatal("Nothing was delivered")
	}
	return c.sends[len(c.sends)-1].text
}

func newTestKernel(dispatcher *scriptedDispatcher) (*DefaultKernel, session.Store, *capturingAdapter) {
	store := session.NewMemoryStore(40)
	out := &capturingAdapter{}
	renderer := render.New(out, 0)
	g := gate.New(testPrincipal, nil, nil)
	k := NewKernel(g, store, dispatcher, renderer, "@default")
	return k, store, out
}

func principalEvent(text string) *ingress.Event {
	return &ingress.Event{
		ID:         "01TEST",
		Source:     "telegram",
		Type:       ingress.TypeUserMessage,
		SenderID:   testPrincipal,
		ChatID:     testPrincipal,
		Content:    text,
		ReceivedAt: time.Now(),
		CreatedAt:  time.Now(),
	}
}

func TestKernel_MultiTurnTaskLifecycle(t *testing.T) {
	dispatcher := &scriptedDispatcher{replies: []string{
		"When tomorrow should I remind you about the coffee?",
		"Done! Task 'buy coffee' created for tomorrow 9am. " + signal.Marker,
	}}
	k, store, out := newTestKernel(dispatcher)
	ctx := context.Background()

	// Turn 1: agent asks for missing details, session persists.
	if err := k.Execute(ctx, principalEvent("Remind me to buy coffee tomorrow")); err != nil {
		t.Fatalf("Execute turn 1: %v", err)
	}
	if !store.Exists(testPrincipal) {
		t.Fatal("Session destroyed mid-collection")
	}
	if got := out.lastText(t); got != "When tomorrow should I remind you about the coffee?" {
		t.Errorf("Turn 1 delivery: %q", got)
	}
	if turns := store.Turns(testPrincipal); len(turns) != 2 {
		t.Errorf("Turns after turn 1: got %d, want 2 (user + assistant)", len(turns))
	}

	// Turn 2: completion marker ends the session and never reaches the user.
	if err := k.Execute(ctx, principalEvent("9am please")); err != nil {
		t.Fatalf("Execute turn 2: %v", err)
	}
	if store.Exists(testPrincipal) {
		t.Error("Session not destroyed after completion marker")
	}
	final := out.lastText(t)
	if strings.Contains(final, signal.Marker) {
		t.Errorf("Marker leaked to the user: %q", final)
	}
	if final != "Done! Task 'buy coffee' created for tomorrow 9am." {
		t.Errorf("Final delivery: %q", final)
	}
}

func TestKernel_HistoryCarriesContext(t *testing.T) {
	dispatcher := &scriptedDispatcher{replies: []string{"When?", "Done! " + signal.Marker}}
	k, _, _ := newTestKernel(dispatcher)
	ctx := context.Background()

	k.Execute(ctx, principalEvent("remind me to buy coffee"))
	k.Execute(ctx, principalEvent("tomorrow 9am"))

	if len(dispatcher.histories) != 2 {
		t.Fatalf("Dispatches: got %d, want 2", len(dispatcher.histories))
	}

	second := dispatcher.histories[1]
	if second[0].Role != "system" {
		t.Fatal("History must start with the system prompt")
	}
	// system + user1 + assistant1 + user2
	if len(second) != 4 {
		t.Fatalf("Second dispatch history: got %d messages, want 4", len(second))
	}
	if second[1].Content != "remind me to buy coffee" || second[3].Content != "tomorrow 9am" {
		t.Error("Accumulated turns missing or out of order")
	}
}

func TestKernel_IntruderRejectedBeforeSessionAccess(t *testing.T) {
	dispatcher := &scriptedDispatcher{}
	k, store, out := newTestKernel(dispatcher)

	evt := principalEvent("add a task")
	evt.SenderID = "9999"
	evt.ChatID = "9999"

	if err := k.Execute(context.Background(), evt); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if dispatcher.calls != 0 {
		t.Error("Agent dispatched for an intruder")
	}
	if store.Exists("9999") {
		t.Error("Session created for an intruder")
	}
	if got := out.lastText(t); got != gate.DenialReply {
		t.Errorf("Intruder reply: %q", got)
	}
	if out.sends[0].chatID != "9999" {
		t.Errorf("Denial sent to wrong chat: %q", out.sends[0].chatID)
	}
}

func TestKernel_DispatchFailureKeepsSession(t *testing.T) {
	dispatcher := &scriptedDispatcher{
		errs:    []error{errors.Wrap(errors.ErrAgentDispatch, "quota exceeded")},
		replies: []string{""},
	}
	k, store, out := newTestKernel(dispatcher)

	if err := k.Execute(context.Background(), principalEvent("add a task")); err != nil {
		t.Fatalf("Dispatch failure must be absorbed, got %v", err)
	}

	if !store.Exists(testPrincipal) {
		t.Error("Session lost on dispatch failure")
	}
	if got := out.lastText(t); got != errors.ReplyRateLimited {
		t.Errorf("Failure notice: %q", got)
	}
}

func TestKernel_DeliveryFailureKeepsSession(t *testing.T) {
	dispatcher := &scriptedDispatcher{replies: []string{"Done! " + signal.Marker}}
	k, store, out := newTestKernel(dispatcher)
	out.failWith = errors.Transient("connection reset")

	err := k.Execute(context.Background(), principalEvent("mark the report as done"))
	if err == nil {
		t.Fatal("Expected delivery error to propagate")
	}

	// The reply never reached the user, so completion must not be applied.
	if !store.Exists(testPrincipal) {
		t.Error("Session destroyed although the reply was never delivered")
	}
}

func TestKernel_EmptyVisibleReplyFallback(t *testing.T) {
	dispatcher := &scriptedDispatcher{replies: []string{signal.Marker}}
	k, store, out := newTestKernel(dispatcher)

	if err := k.Execute(context.Background(), principalEvent("done")); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if got := out.lastText(t); got == "" {
		t.Error("Empty reply delivered to the user")
	}
	if store.Exists(testPrincipal) {
		t.Error("Marker-only reply must still complete the session")
	}
}

func TestKernel_TypingIndicatorForAuthorizedTurns(t *testing.T) {
	dispatcher := &scriptedDispatcher{replies: []string{"On it."}}
	k, _, out := newTestKernel(dispatcher)
	ctx := context.Background()

	if err := k.Execute(ctx, principalEvent("list my tasks")); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out.typing) != 1 || out.typing[0] != testPrincipal {
		t.Errorf("Typing indicator: %v", out.typing)
	}

	evt := principalEvent("add a task")
	evt.SenderID = "9999"
	evt.ChatID = "9999"
	if err := k.Execute(ctx, evt); err != nil {
		t.Fatalf("Execute intruder: %v", err)
	}
	if len(out.typing) != 1 {
		t.Errorf("Typing indicator fired for an intruder: %v", out.typing)
	}
}

func TestKernel_HandleStart(t *testing.T) {
	k, store, out := newTestKernel(&scriptedDispatcher{})

	evt := principalEvent("/start")
	evt.Type = ingress.TypeCommand
	if err := k.HandleStart(context.Background(), evt); err != nil {
		t.Fatalf("HandleStart: %v", err)
	}

	if got := out.lastText(t); got != WelcomeText {
		t.Errorf("Welcome text mismatch: %q", got)
	}
	if store.Exists(testPrincipal) {
		t.Error("HandleStart touched session state")
	}
}
