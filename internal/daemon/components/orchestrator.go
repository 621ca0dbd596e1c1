package components

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/novatasks/nova/internal/adapter"
	"github.com/novatasks/nova/internal/agent"
	"github.com/novatasks/nova/internal/audit"
	"github.com/novatasks/nova/internal/config"
	"github.com/novatasks/nova/internal/daemon"
	"github.com/novatasks/nova/internal/gate"
	"github.com/novatasks/nova/internal/ingress"
	"github.com/novatasks/nova/internal/orchestrator"
	"github.com/novatasks/nova/internal/render"
	"github.com/novatasks/nova/internal/tasks"
)

// OrchestratorComponent assembles the conversation kernel and everything it
// leans on: the identity gate with its intrusion journal and alerter, the
// two-level renderer over the output adapter, and the agent dispatcher with
// the task-backend toolset.
type OrchestratorComponent struct {
	kernel       orchestrator.Kernel
	cfg          *config.Config
	sessionsComp *SessionsComponent
	ingressComp  *IngressComponent
	out          adapter.OutputAdapter
	mu           sync.RWMutex
}

func NewOrchestratorComponent(cfg *config.Config, sessionsComp *SessionsComponent, ingressComp *IngressComponent, out adapter.OutputAdapter) *OrchestratorComponent {
	return &OrchestratorComponent{
		cfg:          cfg,
		sessionsComp: sessionsComp,
		ingressComp:  ingressComp,
		out:          out,
	}
}

func (o *OrchestratorComponent) Name() string {
	return "Orchestrator"
}

func (o *OrchestratorComponent) Dependencies() []string {
	return []string{"Sessions", "Ingress"}
}

func (o *OrchestratorComponent) Init(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.sessionsComp == nil || o.ingressComp == nil {
		return fmt.Errorf("required component dependencies not provided")
	}
	if o.out == nil {
		return fmt.Errorf("output adapter not provided")
	}

	store := o.sessionsComp.GetStore()
	ing := o.ingressComp.GetIngress()
	if store == nil || ing == nil {
		return fmt.Errorf("required dependencies not initialized")
	}

	renderer := render.New(o.out, o.cfg.Render.MaxMessageLength)

	journal, err := audit.NewJournal(o.cfg.Audit.JournalPath)
	if err != nil {
		return fmt.Errorf("init intrusion journal: %w", err)
	}

	alerter := orchestrator.NewPrincipalAlerter(renderer, o.cfg.Principal.ID)
	identityGate := gate.New(o.cfg.Principal.ID, alerter, journal)

	if err := tasks.MaterializeCredentials(o.cfg.Tasks.CredentialsPath, o.cfg.Tasks.TokenPath); err != nil {
		slog.Warn("Task backend credentials not materialized", "error", err)
	}

	tasksTimeout, err := config.DurationOrDefault(o.cfg.Tasks.Timeout, config.DefaultTasksTimeout)
	if err != nil {
		return fmt.Errorf("parse tasks timeout: %w", err)
	}
	service := tasks.NewRestService(o.cfg.Tasks.BaseURL, o.cfg.Tasks.TokenPath, tasksTimeout)
	toolset := tasks.NewToolset(service, o.cfg.Tasks.ListID)

	dispatcher, err := agent.NewDispatcher(o.cfg.Models, toolset)
	if err != nil {
		return fmt.Errorf("init agent dispatcher: %w", err)
	}

	kernel := orchestrator.NewKernel(identityGate, store, dispatcher, renderer, o.cfg.Tasks.ListID)
	o.kernel = kernel

	ing.RegisterCommand("/start", func(cmdCtx context.Context, evt *ingress.Event) error {
		return kernel.HandleStart(cmdCtx, evt)
	})

	slog.Info("Orchestrator kernel initialized", "component", o.Name())
	return nil
}

func (o *OrchestratorComponent) Start(ctx context.Context) error {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.kernel == nil {
		return fmt.Errorf("kernel not initialized")
	}

	slog.Info("Orchestrator started", "component", o.Name())
	return nil
}

func (o *OrchestratorComponent) Stop(ctx context.Context) error {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.kernel == nil {
		slog.Info("Kernel not initialized, skipping stop", "component", o.Name())
		return nil
	}

	slog.Info("Orchestrator stopped", "component", o.Name())
	return nil
}

func (o *OrchestratorComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.kernel == nil {
		return &daemon.ComponentHealth{
			Name:    o.Name(),
			Healthy: false,
			Error:   fmt.Errorf("not initialized"),
		}, nil
	}

	if err := o.kernel.Health(ctx); err != nil {
		return &daemon.ComponentHealth{
			Name:    o.Name(),
			Healthy: false,
			Error:   err,
		}, nil
	}

	return &daemon.ComponentHealth{
		Name:    o.Name(),
		Healthy: true,
		Error:   nil,
	}, nil
}

func (o *OrchestratorComponent) GetKernel() orchestrator.Kernel {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.kernel
}
