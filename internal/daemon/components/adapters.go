package components

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/novatasks/nova/internal/adapter"
	"github.com/novatasks/nova/internal/daemon"
)

// AdaptersComponent starts last and stops first: inbound traffic only flows
// once the whole pipeline behind it is ready.
type AdaptersComponent struct {
	adapters    []adapter.InputAdapter
	initialized bool
	started     bool
	mu          sync.RWMutex
}

func NewAdaptersComponent(adapters ...adapter.InputAdapter) *AdaptersComponent {
	return &AdaptersComponent{adapters: adapters}
}

func (a *AdaptersComponent) Name() string {
	return "Adapters"
}

func (a *AdaptersComponent) Dependencies() []string {
	return []string{"Ingress", "Workers", "Orchestrator"}
}

func (a *AdaptersComponent) Init(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.adapters) == 0 {
		return fmt.Errorf("no input adapters configured")
	}
	a.initialized = true
	return nil
}

func (a *AdaptersComponent) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return fmt.Errorf("Adapters not initialized")
	}

	for _, ad := range a.adapters {
		if err := ad.Start(ctx); err != nil {
			return fmt.Errorf("start adapter %s: %w", ad.Name(), err)
		}
		slog.Info("Input adapter started", "adapter", ad.Name())
	}

	a.started = true
	slog.Info("Adapters started", "component", a.Name())
	return nil
}

func (a *AdaptersComponent) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return nil
	}

	for _, ad := range a.adapters {
		if err := ad.Stop(ctx); err != nil {
			slog.Error("Adapter stop failed", "adapter", ad.Name(), "error", err)
		}
	}
	a.started = false
	slog.Info("Adapters stopped", "component", a.Name())
	return nil
}

func (a *AdaptersComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.initialized {
		return &daemon.ComponentHealth{Name: a.Name(), Healthy: false, Error: fmt.Errorf("not initialized")}, nil
	}
	if !a.started {
		return &daemon.ComponentHealth{Name: a.Name(), Healthy: false, Error: fmt.Errorf("not started")}, nil
	}

	for _, ad := range a.adapters {
		if err := ad.Health(ctx); err != nil {
			return &daemon.ComponentHealth{Name: a.Name(), Healthy: false, Error: err}, nil
		}
	}
	return &daemon.ComponentHealth{Name: a.Name(), Healthy: true}, nil
}
