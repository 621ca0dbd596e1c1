package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/novatasks/nova/internal/concurrency"
	"github.com/novatasks/nova/internal/ingress"
)

// recordingKernel records processed events per sender.
type recordingKernel struct {
	mu        sync.Mutex
	processed map[string][]string
	delay     time.Duration
	done      chan struct{}
}

func newRecordingKernel(expected int) *recordingKernel {
	k := &recordingKernel{processed: make(map[string][]string)}
	k.done = make(chan struct{}, expected)
	return k
}

func (k *recordingKernel) Execute(ctx context.Context, evt *ingress.Event) error {
	if k.delay > 0 {
		time.Sleep(k.delay)
	}
	k.mu.Lock()
	k.processed[evt.SenderID] = append(k.processed[evt.SenderID], evt.Content)
	k.mu.Unlock()
	k.done <- struct{}{}
	return nil
}

func (k *recordingKernel) HandleStart(ctx context.Context, evt *ingress.Event) error { return nil }

func (k *recordingKernel) Health(ctx context.Context) error { return nil }

func testEvent(id, sender, content string) *ingress.Event {
	return &ingress.Event{
		ID:       id,
		SenderID: sender,
		ChatID:   sender,
		Content:  content,
	}
}

func TestWorker_ProcessesInArrivalOrder(t *testing.T) {
	events := make(chan *ingress.Event, 10)
	kernel := newRecordingKernel(3)
	locks := concurrency.NewKeyedLockManager()

	w := NewWorker("test", events, kernel, locks, RuntimeConfig{ShutdownTimeout: time.Second})
	if _, err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop(context.Background())

	events <- testEvent("1", "100", "first")
	events <- testEvent("2", "100", "second")
	events <- testEvent("3", "100", "third")

	for i := 0; i < 3; i++ {
		select {
		case <-kernel.done:
		case <-time.After(time.Second):
			t.Fatal("Timed out waiting for event processing")
		}
	}

	kernel.mu.Lock()
	defer kernel.mu.Unlock()
	got := kernel.processed["100"]
	if len(got) != 3 || got[0] != "first" || got[1] != "second" || got[2] != "third" {
		t.Errorf("Processing order: %v", got)
	}
}

func TestRouter_PoolPreservesPerSenderOrder(t *testing.T) {
	// Many senders submitting ordered pairs into one queue drained by two
	// workers. Sender affinity must keep every pair in arrival order; a bare
	// shared queue lets whichever worker grabs the lock first invert them.
	const senders = 200
	source := make(chan *ingress.Event, senders*2)
	kernel := newRecordingKernel(senders * 2)
	kernel.delay = time.Millisecond
	locks := concurrency.NewKeyedLockManager()

	r := NewRouter(source, 2, senders*2)
	w1 := NewWorker("w1", r.Lane(0), kernel, locks, RuntimeConfig{ShutdownTimeout: time.Second})
	w2 := NewWorker("w2", r.Lane(1), kernel, locks, RuntimeConfig{ShutdownTimeout: time.Second})
	ctx := context.Background()
	w1.Start(ctx)
	w2.Start(ctx)
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Router start: %v", err)
	}
	defer w1.Stop(ctx)
	defer w2.Stop(ctx)
	defer r.Stop(ctx)

	for i := 0; i < senders; i++ {
		sender := fmt.Sprintf("%d", 1000+i)
		source <- testEvent(sender+"-1", sender, "first")
		source <- testEvent(sender+"-2", sender, "second")
	}

	for i := 0; i < senders*2; i++ {
		select {
		case <-kernel.done:
		case <-time.After(10 * time.Second):
			t.Fatal("Timed out waiting for event processing")
		}
	}

	kernel.mu.Lock()
	defer kernel.mu.Unlock()
	for i := 0; i < senders; i++ {
		sender := fmt.Sprintf("%d", 1000+i)
		got := kernel.processed[sender]
		if len(got) != 2 || got[0] != "first" || got[1] != "second" {
			t.Fatalf("Arrival order violated for sender %s: %v", sender, got)
		}
	}
}

func TestRouter_SenderAffinityStable(t *testing.T) {
	r := NewRouter(make(chan *ingress.Event), 4, 0)

	for i := 0; i < 100; i++ {
		sender := fmt.Sprintf("%d", i)
		first := laneFor(sender, r.LaneCount())
		if first < 0 || first >= r.LaneCount() {
			t.Fatalf("Lane out of range for %s: %d", sender, first)
		}
		if second := laneFor(sender, r.LaneCount()); second != first {
			t.Fatalf("Lane not stable for %s: %d then %d", sender, first, second)
		}
	}
}

func TestRouter_StopClosesLanes(t *testing.T) {
	source := make(chan *ingress.Event)
	r := NewRouter(source, 2, 1)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	for n := 0; n < r.LaneCount(); n++ {
		select {
		case _, ok := <-r.Lane(n):
			if ok {
				t.Fatalf("Lane %d delivered an event after stop", n)
			}
		case <-time.After(time.Second):
			t.Fatalf("Lane %d not closed after stop", n)
		}
	}

	if err := r.Stop(context.Background()); err != nil {
		t.Errorf("Second stop: %v", err)
	}
}

func TestWorker_SkipsInvalidEvents(t *testing.T) {
	events := make(chan *ingress.Event, 10)
	kernel := newRecordingKernel(1)
	locks := concurrency.NewKeyedLockManager()

	w := NewWorker("test", events, kernel, locks, RuntimeConfig{ShutdownTimeout: time.Second})
	w.Start(context.Background())
	defer w.Stop(context.Background())

	events <- &ingress.Event{ID: "", SenderID: "100", Content: "no id"}
	events <- &ingress.Event{ID: "2", SenderID: "", Content: "no sender"}
	events <- testEvent("3", "100", "valid")

	select {
	case <-kernel.done:
	case <-time.After(time.Second):
		t.Fatal("Valid event not processed")
	}

	kernel.mu.Lock()
	defer kernel.mu.Unlock()
	if got := kernel.processed["100"]; len(got) != 1 || got[0] != "valid" {
		t.Errorf("Processed: %v", got)
	}
}

func TestWorker_DoubleStartFails(t *testing.T) {
	events := make(chan *ingress.Event)
	w := NewWorker("test", events, newRecordingKernel(0), concurrency.NewKeyedLockManager(), RuntimeConfig{ShutdownTimeout: time.Second})

	if _, err := w.Start(context.Background()); err != nil {
		t.Fatalf("First start: %v", err)
	}
	defer w.Stop(context.Background())

	if _, err := w.Start(context.Background()); err == nil {
		t.Error("Second start must fail")
	}
}

func TestWorker_StopIdempotent(t *testing.T) {
	events := make(chan *ingress.Event)
	w := NewWorker("test", events, newRecordingKernel(0), concurrency.NewKeyedLockManager(), RuntimeConfig{ShutdownTimeout: time.Second})

	if err := w.Stop(context.Background()); err != nil {
		t.Errorf("Stop before start: %v", err)
	}

	w.Start(context.Background())
	if err := w.Stop(context.Background()); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if err := w.Stop(context.Background()); err != nil {
		t.Errorf("Second stop: %v", err)
	}
}
