package ingress

import (
	"context"
	"strings"
)

type DestinationType int

const (
	DestPipeline DestinationType = iota
	DestCommand
	DestDrop
)

type Destination struct {
	Type    DestinationType
	Handler CommandHandler
}

type CommandHandler func(ctx context.Context, evt *Event) error

// Router decides what happens to an event before it reaches the queue:
// registered slash commands are handled inline, unknown commands are dropped,
// and everything else flows to the conversation pipeline.
type Router interface {
	Route(ctx context.Context, evt *Event) Destination
	RegisterCommand(command string, handler CommandHandler)
}

type StandardRouter struct {
	commands map[string]CommandHandler
}

func NewStandardRouter() *StandardRouter {
	return &StandardRouter{
		commands: make(map[string]CommandHandler),
	}
}

func (r *StandardRouter) RegisterCommand(command string, handler CommandHandler) {
	r.commands[command] = handler
}

func (r *StandardRouter) Route(ctx context.Context, evt *Event) Destination {
	content := strings.TrimSpace(evt.Content)
	if !strings.HasPrefix(content, "/") {
		return Destination{Type: DestPipeline}
	}

	evt.Type = TypeCommand
	name := strings.Fields(content)[0]
	if handler, ok := r.commands[name]; ok {
		return Destination{Type: DestCommand, Handler: handler}
	}
	return Destination{Type: DestDrop}
}
