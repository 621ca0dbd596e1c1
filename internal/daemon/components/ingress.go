package components

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/novatasks/nova/internal/config"
	"github.com/novatasks/nova/internal/daemon"
	"github.com/novatasks/nova/internal/ingress"
)

type IngressComponent struct {
	ingress     *ingress.Ingress
	cfg         *config.IngressConfig
	initialized bool
	started     bool
	mu          sync.RWMutex
	startTime   time.Time
}

func NewIngressComponent(cfg *config.IngressConfig) *IngressComponent {
	return &IngressComponent{
		cfg:         cfg,
		initialized: false,
		started:     false,
	}
}

func (i *IngressComponent) Name() string {
	return "Ingress"
}

func (i *IngressComponent) Dependencies() []string {
	return []string{}
}

func (i *IngressComponent) Init(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.cfg == nil {
		return fmt.Errorf("ingress config not provided")
	}

	submitTimeout, err := config.DurationOrDefault(i.cfg.SubmitTimeout, config.DefaultIngressSubmitTimeout)
	if err != nil {
		return fmt.Errorf("parse ingress submit timeout: %w", err)
	}
	dedupeTTL, err := config.DurationOrDefault(i.cfg.DedupeTTL, config.DefaultIngressDedupeTTL)
	if err != nil {
		return fmt.Errorf("parse ingress dedupe ttl: %w", err)
	}

	i.ingress = ingress.NewIngress(i.cfg.QueueSize, ingress.RuntimeConfig{
		SubmitTimeout: submitTimeout,
		DedupeTTL:     dedupeTTL,
	})
	i.initialized = true
	slog.Info("Ingress initialized", "component", i.Name())
	return nil
}

func (i *IngressComponent) Start(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.initialized {
		return fmt.Errorf("Ingress not initialized")
	}

	i.started = true
	i.startTime = time.Now()
	slog.Info("Ingress started", "component", i.Name())
	return nil
}

func (i *IngressComponent) Stop(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.started {
		slog.Info("Ingress not started, skipping stop", "component", i.Name())
		return nil
	}

	slog.Info("Stopping Ingress...", "component", i.Name())
	if i.ingress != nil {
		i.ingress.Close()
	}
	i.started = false
	slog.Info("Ingress stopped", "component", i.Name())
	return nil
}

func (i *IngressComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if !i.started {
		return &daemon.ComponentHealth{
			Name:    i.Name(),
			Healthy: false,
			Error:   fmt.Errorf("not started"),
		}, nil
	}

	if err := i.ingress.Health(ctx); err != nil {
		return &daemon.ComponentHealth{
			Name:    i.Name(),
			Healthy: false,
			Error:   err,
		}, nil
	}

	return &daemon.ComponentHealth{
		Name:    i.Name(),
		Healthy: true,
		Error:   nil,
	}, nil
}

func (i *IngressComponent) GetIngress() *ingress.Ingress {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.ingress
}
