// Package agent is the dispatcher boundary: it owns the model providers and
// the tool-calling loop against the task backend. The session layer treats it
// as an opaque collaborator that takes an ordered turn history and returns
// free text, possibly carrying the completion marker.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/novatasks/nova/internal/agent/contract"
	anthropicProvider "github.com/novatasks/nova/internal/agent/providers/anthropic"
	geminiProvider "github.com/novatasks/nova/internal/agent/providers/gemini"
	openaiProvider "github.com/novatasks/nova/internal/agent/providers/openai"
	"github.com/novatasks/nova/internal/config"
	"github.com/novatasks/nova/internal/errors"
)

// Provider generates one completion for one model family.
type Provider interface {
	Generate(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error)
	Name() string
	Health(ctx context.Context) error
}

// ToolExecutor executes the task-backend tools the agent may call.
type ToolExecutor interface {
	Definitions() []contract.ToolDef
	Execute(ctx context.Context, call *contract.ToolCall) (string, error)
}

// Dispatcher is the external-agent boundary consumed by the orchestrator.
type Dispatcher interface {
	// Dispatch invokes the agent with the full accumulated history (system
	// prompt included) and runs tool calls to completion. Returns the final
	// free-text reply.
	Dispatch(ctx context.Context, history []contract.Message) (string, error)
	Health(ctx context.Context) error
}

type DefaultDispatcher struct {
	cfg          config.ModelsConfig
	providers    map[string]Provider
	tools        ToolExecutor
	maxToolTurns int
	timeout      time.Duration
	mu           sync.RWMutex
}

func NewDispatcher(cfg config.ModelsConfig, tools ToolExecutor) (*DefaultDispatcher, error) {
	timeout, err := config.DurationOrDefault(cfg.RequestTimeout, config.DefaultModelRequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse model request timeout: %w", err)
	}

	maxToolTurns := cfg.MaxToolTurns
	if maxToolTurns <= 0 {
		maxToolTurns = config.DefaultModelMaxToolTurns
	}

	d := &DefaultDispatcher{
		cfg:          cfg,
		providers:    make(map[string]Provider),
		tools:        tools,
		maxToolTurns: maxToolTurns,
		timeout:      timeout,
	}

	if err := d.initProviders(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DefaultDispatcher) initProviders() error {
	for _, reg := range d.cfg.Registry {
		var (
			p   Provider
			err error
		)
		switch reg.Provider {
		case "gemini":
			p, err = geminiProvider.New(reg.APIKey)
		case "openai":
			p = openaiProvider.New(reg.APIKey, reg.BaseURL)
		case "anthropic":
			p = anthropicProvider.New(reg.APIKey)
		default:
			slog.Warn("Unknown provider in model registry, skipping", "provider", reg.Provider, "model", reg.Name)
			continue
		}
		if err != nil {
			return fmt.Errorf("init provider %s: %w", reg.Provider, err)
		}
		d.providers[reg.Name] = p
		slog.Info("Model provider registered", "model", reg.Name, "provider", reg.Provider)
	}

	if len(d.providers) == 0 {
		return errors.InvalidInput("no model providers configured")
	}
	return nil
}

func (d *DefaultDispatcher) resolveProvider(model string) (Provider, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if p, ok := d.providers[model]; ok {
		return p, nil
	}
	return nil, errors.InvalidInput("no provider registered for model: " + model)
}

// Dispatch runs the tool-calling loop: the model either answers in free text
// or requests tool calls; tool results are fed back until it produces a final
// answer or the turn budget runs out. The whole exchange runs under one
// bounded timeout so a stuck provider cannot pin the principal's lane.
func (d *DefaultDispatcher) Dispatch(ctx context.Context, history []contract.Message) (string, error) {
	model := d.cfg.Default
	provider, err := d.resolveProvider(model)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	messages := make([]contract.Message, len(history))
	copy(messages, history)

	var tools []contract.ToolDef
	if d.tools != nil {
		tools = d.tools.Definitions()
	}

	for turn := 0; turn < d.maxToolTurns; turn++ {
		resp, err := provider.Generate(ctx, contract.CompletionRequest{
			Model:    model,
			Messages: messages,
			Tools:    tools,
		})
		if err != nil {
			return "", fmt.Errorf("%v: %w", err, errors.ErrAgentDispatch)
		}

		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		messages = append(messages, contract.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			result, err := d.executeTool(ctx, call)
			if err != nil {
				// Feed the failure back so the model can recover or apologize.
				result = fmt.Sprintf(`{"error":%q}`, err.Error())
			}
			messages = append(messages, contract.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	return "", fmt.Errorf("tool turn budget exhausted after %d turns: %w", d.maxToolTurns, errors.ErrAgentDispatch)
}

func (d *DefaultDispatcher) executeTool(ctx context.Context, call *contract.ToolCall) (string, error) {
	if d.tools == nil {
		return "", errors.InvalidInput("no tool executor configured")
	}

	start := time.Now()
	result, err := d.tools.Execute(ctx, call)
	slog.Debug("Tool executed", "tool", call.Name, "duration", time.Since(start), "error", err)
	return result, err
}

func (d *DefaultDispatcher) Health(ctx context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.providers) == 0 {
		return errors.Internal("no providers registered")
	}

	provider, ok := d.providers[d.cfg.Default]
	if !ok {
		return errors.Internal("default model has no provider: " + d.cfg.Default)
	}
	return provider.Health(ctx)
}
