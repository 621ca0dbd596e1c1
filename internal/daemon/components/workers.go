package components

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/novatasks/nova/internal/config"
	"github.com/novatasks/nova/internal/daemon"
	"github.com/novatasks/nova/internal/worker"
)

// WorkersComponent runs the consumer pool over the shared ingress queue. A
// router hashes each event's sender onto one lane per worker, so one
// principal's turns are processed in arrival order no matter how large the
// pool is.
type WorkersComponent struct {
	workers      []*worker.Worker
	router       *worker.Router
	ingressComp  *IngressComponent
	orchComp     *OrchestratorComponent
	sessionsComp *SessionsComponent
	cfg          *config.Config
	initialized  bool
	started      bool
	mu           sync.RWMutex
	startTime    time.Time
}

func NewWorkersComponent(cfg *config.Config, ingComp *IngressComponent, orchComp *OrchestratorComponent, sessionsComp *SessionsComponent) *WorkersComponent {
	return &WorkersComponent{
		ingressComp:  ingComp,
		orchComp:     orchComp,
		sessionsComp: sessionsComp,
		cfg:          cfg,
		initialized:  false,
		started:      false,
	}
}

func (w *WorkersComponent) Name() string {
	return "Workers"
}

func (w *WorkersComponent) Dependencies() []string {
	return []string{"Sessions", "Ingress", "Orchestrator"}
}

func (w *WorkersComponent) Init(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ingressComp == nil || w.orchComp == nil || w.sessionsComp == nil {
		return fmt.Errorf("required component dependencies not provided")
	}
	if w.cfg == nil {
		return fmt.Errorf("config not provided")
	}

	ing := w.ingressComp.GetIngress()
	orch := w.orchComp.GetKernel()
	locks := w.sessionsComp.GetLocks()
	if ing == nil || orch == nil || locks == nil {
		return fmt.Errorf("required dependencies not initialized")
	}

	shutdownTimeout, err := config.DurationOrDefault(w.cfg.Worker.ShutdownTimeout, config.DefaultWorkerShutdownTimeout)
	if err != nil {
		return fmt.Errorf("parse worker shutdown timeout: %w", err)
	}

	count := w.cfg.Worker.Count
	if count <= 0 {
		count = config.DefaultWorkerCount
	}

	w.router = worker.NewRouter(ing.Queue(), count, w.cfg.Ingress.QueueSize)

	w.workers = make([]*worker.Worker, 0, count)
	for n := 0; n < count; n++ {
		name := fmt.Sprintf("worker-%d", n)
		w.workers = append(w.workers, worker.NewWorker(name, w.router.Lane(n), orch, locks, worker.RuntimeConfig{ShutdownTimeout: shutdownTimeout}))
	}

	w.initialized = true
	slog.Info("Workers initialized", "component", w.Name(), "count", count)
	return nil
}

func (w *WorkersComponent) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.initialized {
		return fmt.Errorf("Workers not initialized")
	}

	for _, wk := range w.workers {
		if _, err := wk.Start(ctx); err != nil {
			return fmt.Errorf("start worker: %w", err)
		}
	}
	if err := w.router.Start(ctx); err != nil {
		return fmt.Errorf("start worker router: %w", err)
	}

	w.started = true
	w.startTime = time.Now()
	slog.Info("Workers started", "component", w.Name())
	return nil
}

func (w *WorkersComponent) Stop(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		slog.Info("Workers not started, skipping stop", "component", w.Name())
		return nil
	}

	slog.Info("Stopping Workers...", "component", w.Name())
	// The router goes first: it closes the lanes, which lets the workers
	// drain and exit on end-of-stream.
	w.router.Stop(ctx)
	for _, wk := range w.workers {
		wk.Stop(ctx)
	}
	w.started = false
	slog.Info("Workers stopped", "component", w.Name())
	return nil
}

func (w *WorkersComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if !w.initialized {
		return &daemon.ComponentHealth{
			Name:    w.Name(),
			Healthy: false,
			Error:   fmt.Errorf("not initialized"),
		}, nil
	}

	if !w.started {
		return &daemon.ComponentHealth{
			Name:    w.Name(),
			Healthy: false,
			Error:   fmt.Errorf("not started"),
		}, nil
	}

	for _, wk := range w.workers {
		if err := wk.Health(ctx); err != nil {
			return &daemon.ComponentHealth{
				Name:    w.Name(),
				Healthy: false,
				Error:   err,
			}, nil
		}
	}

	return &daemon.ComponentHealth{
		Name:    w.Name(),
		Healthy: true,
		Error:   nil,
	}, nil
}
