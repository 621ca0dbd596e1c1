package adapter

import "context"

// NullAdapter swallows everything. Used as the outbound sink in tests and
// when no transport is enabled.
type NullAdapter struct {
	name string
}

func NewNullAdapter(name string) *NullAdapter {
	if name == "" {
		name = "null"
	}
	return &NullAdapter{name: name}
}

func (a *NullAdapter) Name() string {
	return a.name
}

func (a *NullAdapter) Send(ctx context.Context, chatID string, text string, mode Mode) error {
	return nil
}

func (a *NullAdapter) Typing(ctx context.Context, chatID string) error {
	return nil
}

func (a *NullAdapter) Health(ctx context.Context) error {
	return nil
}
