// Package orchestrator drives the per-principal conversation state machine:
// IDLE -> COLLECTING on the first authorized message, COLLECTING ->
// COLLECTING while the agent keeps asking for missing details, COLLECTING ->
// IDLE when the agent signals completion (or the idle sweeper fires).
// Unauthorized messages never enter the machine.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/novatasks/nova/internal/agent"
	"github.com/novatasks/nova/internal/agent/contract"
	"github.com/novatasks/nova/internal/errors"
	"github.com/novatasks/nova/internal/gate"
	"github.com/novatasks/nova/internal/ingress"
	"github.com/novatasks/nova/internal/render"
	"github.com/novatasks/nova/internal/session"
	"github.com/novatasks/nova/internal/signal"
)

// WelcomeText is the /start reply.
const WelcomeText = `Hey there! I'm NovaTasks.

I'm your task assistant. No need to use strict commands - just chat with me naturally and I'll keep your to-dos organized!

Here are a few things you can ask me to do:
- Add a task: "Remind me to buy coffee tomorrow morning."
- Check your list: "What do I have to do today?"
- Check things off: "I finished the weekly report, mark it as done."
- Delete a task: "Cancel the gym task for tonight."

What's on your mind today?`

// Kernel processes one inbound event at a time per principal. The worker
// guarantees serialization; the kernel assumes it.
type Kernel interface {
	Execute(ctx context.Context, evt *ingress.Event) error
	HandleStart(ctx context.Context, evt *ingress.Event) error
	Health(ctx context.Context) error
}

type DefaultKernel struct {
	gate       *gate.Gate
	store      session.Store
	dispatcher agent.Dispatcher
	renderer   *render.Renderer
	mapper     *errors.DefaultErrorMapper
	taskListID string
	now        func() time.Time
}

func NewKernel(g *gate.Gate, store session.Store, dispatcher agent.Dispatcher, renderer *render.Renderer, taskListID string) *DefaultKernel {
	return &DefaultKernel{
		gate:       g,
		store:      store,
		dispatcher: dispatcher,
		renderer:   renderer,
		mapper:     errors.NewDefaultErrorMapper(),
		taskListID: taskListID,
		now:        time.Now,
	}
}

// Execute runs one full turn. Session-layer failures are absorbed into safe
// user-facing messages; only a total delivery failure propagates, and only
// for this exchange.
func (k *DefaultKernel) Execute(ctx context.Context, evt *ingress.Event) error {
	// Identity check runs strictly before any session access: a rejected
	// sender can never create or observe a session.
	if !k.gate.Authorize(ctx, evt.SenderID, evt.SenderName, evt.Content) {
		if err := k.renderer.Deliver(ctx, evt.ChatID, gate.DenialReply); err != nil {
			slog.Error("Failed to deliver denial reply", "chat_id", evt.ChatID, "error", err)
		}
		return nil
	}

	k.store.GetOrCreate(evt.SenderID)
	k.store.Append(evt.SenderID, session.RoleUser, evt.Content)

	if err := k.renderer.Typing(ctx, evt.ChatID); err != nil {
		slog.Debug("Typing indicator failed", "chat_id", evt.ChatID, "error", err)
	}

	reply, err := k.dispatcher.Dispatch(ctx, k.history(evt.SenderID))
	if err != nil {
		// The session survives a dispatch failure so the principal can retry
		// without re-stating accumulated context.
		slog.Error("Agent dispatch failed", "sender", evt.SenderID, "category", k.mapper.Category(k.mapper.MapError(err)), "error", err)
		if derr := k.renderer.Deliver(ctx, evt.ChatID, k.mapper.UserReply(err)); derr != nil {
			slog.Error("Failed to deliver dispatch failure notice", "chat_id", evt.ChatID, "error", derr)
		}
		return nil
	}

	visible, complete := signal.Extract(reply)
	if visible == "" {
		visible = "Sorry, I am unable to process that request right now."
	}

	k.store.Append(evt.SenderID, session.RoleAssistant, visible)

	if err := k.renderer.Deliver(ctx, evt.ChatID, visible); err != nil {
		// Both delivery levels failed. The session is kept: the reply never
		// reached the user, so the operation is not observably complete.
		return errors.Wrap(err, "reply delivery failed")
	}

	if complete {
		k.store.Destroy(evt.SenderID)
		slog.Info("Task complete, session reset", "sender", evt.SenderID)
	}

	return nil
}

// history assembles the dispatch context: the system prompt with the current
// time, then the accumulated turns in insertion order.
func (k *DefaultKernel) history(ownerID string) []contract.Message {
	turns := k.store.Turns(ownerID)

	messages := make([]contract.Message, 0, len(turns)+1)
	messages = append(messages, contract.Message{
		Role:    "system",
		Content: agent.SystemPrompt(k.now(), k.taskListID),
	})
	for _, t := range turns {
		messages = append(messages, contract.Message{Role: t.Role, Content: t.Text})
	}
	return messages
}

// HandleStart serves the /start command. It touches no session state.
func (k *DefaultKernel) HandleStart(ctx context.Context, evt *ingress.Event) error {
	return k.renderer.Deliver(ctx, evt.ChatID, WelcomeText)
}

func (k *DefaultKernel) Health(ctx context.Context) error {
	if k.dispatcher == nil {
		return errors.Internal("dispatcher not configured")
	}
	return k.dispatcher.Health(ctx)
}
