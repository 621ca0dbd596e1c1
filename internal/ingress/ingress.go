package ingress

import (
	"context"
	"log/slog"
	"time"

	"github.com/novatasks/nova/internal/config"
	"github.com/novatasks/nova/internal/errors"
)

type RuntimeConfig struct {
	SubmitTimeout time.Duration
	DedupeTTL     time.Duration
}

// Ingress normalizes and queues inbound events. One bounded queue feeds the
// workers; backpressure surfaces as a transient submit error rather than an
// unbounded buffer.
type Ingress struct {
	queue         chan *Event
	router        Router
	dedupe        *dedupeCache
	submitTimeout time.Duration
}

func NewIngress(queueSize int, runtimeCfg RuntimeConfig) *Ingress {
	if queueSize <= 0 {
		queueSize = config.DefaultIngressQueueSize
	}
	if runtimeCfg.SubmitTimeout <= 0 {
		if d, err := config.DurationOrDefault("", config.DefaultIngressSubmitTimeout); err == nil {
			runtimeCfg.SubmitTimeout = d
		}
	}
	if runtimeCfg.DedupeTTL <= 0 {
		if d, err := config.DurationOrDefault("", config.DefaultIngressDedupeTTL); err == nil {
			runtimeCfg.DedupeTTL = d
		}
	}

	return &Ingress{
		queue:         make(chan *Event, queueSize),
		router:        NewStandardRouter(),
		dedupe:        newDedupeCache(runtimeCfg.DedupeTTL),
		submitTimeout: runtimeCfg.SubmitTimeout,
	}
}

// RegisterCommand wires a slash-command handler into the router.
func (i *Ingress) RegisterCommand(command string, handler CommandHandler) {
	i.router.RegisterCommand(command, handler)
}

// Submit ingests an event: dedupes, routes, and queues it. Returns an error
// when the queue is full (backpressure) or the event is a duplicate.
func (i *Ingress) Submit(ctx context.Context, evt *Event) error {
	if evt == nil {
		return errors.InvalidInput("event is nil")
	}

	slog.Debug("Ingress received event", "id", evt.ID, "source", evt.Source, "sender", evt.SenderID)

	if evt.ExternalID != "" {
		key := DedupeKey(evt.Source, evt.ExternalID)
		if i.dedupe.CheckAndMark(key) {
			slog.Warn("Duplicate event detected", "key", key)
			return errors.ErrDuplicateEvent
		}
	}

	dest := i.router.Route(ctx, evt)
	switch dest.Type {
	case DestDrop:
		slog.Info("Event dropped by router", "id", evt.ID, "content", evt.Content)
		return nil
	case DestCommand:
		slog.Info("Handling as command", "id", evt.ID)
		if dest.Handler != nil {
			return dest.Handler(ctx, evt)
		}
		return nil
	case DestPipeline:
		// fall through to the queue
	default:
		return errors.InvalidInput("unknown destination type")
	}

	select {
	case i.queue <- evt:
		slog.Debug("Event queued", "id", evt.ID, "sender", evt.SenderID)
		return nil
	case <-time.After(i.submitTimeout):
		slog.Warn("Ingress queue full, dropping event", "id", evt.ID)
		return errors.ErrTransient
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (i *Ingress) Queue() <-chan *Event {
	return i.queue
}

// Close shuts the queue; pending events are left for the workers to drain.
func (i *Ingress) Close() error {
	close(i.queue)
	slog.Info("Ingress shut down")
	return nil
}

// Health checks queue saturation.
func (i *Ingress) Health(ctx context.Context) error {
	if i.queue == nil {
		return errors.Internal("queue not initialized")
	}

	usage := float64(len(i.queue)) / float64(cap(i.queue))
	if usage > 0.9 {
		return errors.Transient("ingress queue nearly full")
	}
	return nil
}
