package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/novatasks/nova/internal/concurrency"
	"github.com/novatasks/nova/internal/config"
	"github.com/novatasks/nova/internal/errors"
	"github.com/novatasks/nova/internal/ingress"
	"github.com/novatasks/nova/internal/orchestrator"
)

type RuntimeConfig struct {
	ShutdownTimeout time.Duration
}

// Worker drains one router lane. Sender-affinity routing guarantees that
// every event the worker sees for a given principal arrives in order, while
// distinct principals proceed in parallel across lanes. The per-principal
// lock is still taken around each event so the idle sweeper never destroys a
// session mid-turn.
type Worker struct {
	mu      sync.RWMutex
	started bool
	quit    chan struct{}
	wg      sync.WaitGroup

	name   string
	events <-chan *ingress.Event
	orch   orchestrator.Kernel
	locks  *concurrency.KeyedLockManager

	shutdownTimeout time.Duration
}

func NewWorker(name string, events <-chan *ingress.Event, orch orchestrator.Kernel, locks *concurrency.KeyedLockManager, runtimeCfg RuntimeConfig) *Worker {
	if runtimeCfg.ShutdownTimeout <= 0 {
		if d, err := config.DurationOrDefault("", config.DefaultWorkerShutdownTimeout); err == nil {
			runtimeCfg.ShutdownTimeout = d
		}
	}

	return &Worker{
		name:            name,
		events:          events,
		orch:            orch,
		locks:           locks,
		shutdownTimeout: runtimeCfg.ShutdownTimeout,
	}
}

func (w *Worker) Start(ctx context.Context) (context.Context, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return nil, fmt.Errorf("worker already started: %w", errors.ErrInvalidInput)
	}

	w.started = true
	w.quit = make(chan struct{})

	workerCtx, cancel := context.WithCancel(ctx)

	w.wg.Add(1)
	concurrency.SafeGo(func() {
		defer w.wg.Done()
		defer cancel()

		slog.Info("Worker started", "worker", w.name)
		w.eventLoop(workerCtx)
		slog.Info("Worker stopped", "worker", w.name)
	}, nil)

	return workerCtx, nil
}

func (w *Worker) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.quit:
			return
		case evt, ok := <-w.events:
			if !ok {
				slog.Info("Worker stopping (channel closed)", "worker", w.name)
				return
			}
			w.process(ctx, evt)
		}
	}
}

func (w *Worker) process(ctx context.Context, evt *ingress.Event) {
	start := time.Now()

	if err := w.validateEvent(evt); err != nil {
		slog.Error("Invalid event", "worker", w.name, "error", err)
		return
	}

	// Ordering comes from lane affinity; the lock coordinates with the idle
	// sweeper, which evicts only while holding the same key.
	w.locks.Lock(evt.SenderID)
	defer w.locks.Unlock(evt.SenderID)

	if err := w.orch.Execute(ctx, evt); err != nil {
		slog.Error("Event processing failed", "id", evt.ID, "worker", w.name, "error", err)
		return
	}

	slog.Debug("Event processed", "id", evt.ID, "duration", time.Since(start))
}

func (w *Worker) validateEvent(evt *ingress.Event) error {
	if evt == nil {
		return errors.InvalidInput("event is nil")
	}
	if evt.ID == "" {
		return errors.InvalidInput("event ID is empty")
	}
	if evt.SenderID == "" {
		return errors.InvalidInput("sender ID is empty")
	}
	return nil
}

func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return nil
	}

	close(w.quit)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.started = false
		return nil
	case <-time.After(w.shutdownTimeout):
		slog.Warn("Worker shutdown timeout, force stopping", "worker", w.name)
		w.started = false
		return errors.Internal("shutdown timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) Health(ctx context.Context) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if !w.started {
		return errors.Internal("worker not started")
	}
	if w.events == nil {
		return errors.Internal("event channel not initialized")
	}
	if w.orch == nil {
		return errors.Internal("orchestrator not configured")
	}
	return nil
}
