// Package render guarantees that some readable text reaches the user even
// when the agent emits unbalanced rich-formatting syntax. Delivery walks an
// ordered list of strategies; a formatting rejection from the transport moves
// to the next strategy, anything else aborts. There is no markup repair here,
// only degradation.
package render

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/novatasks/nova/internal/adapter"
	"github.com/novatasks/nova/internal/config"
	"github.com/novatasks/nova/internal/errors"
)

// Strategy prepares text for one formatting level.
type Strategy interface {
	Name() string
	Prepare(text string) (string, adapter.Mode)
}

// MarkdownStrategy delivers the text as-is with markup interpretation.
type MarkdownStrategy struct{}

func (MarkdownStrategy) Name() string { return "markdown" }

func (MarkdownStrategy) Prepare(text string) (string, adapter.Mode) {
	return text, adapter.ModeMarkdown
}

// PlainStrategy strips all rich-formatting control characters and delivers
// the remainder verbatim.
type PlainStrategy struct{}

func (PlainStrategy) Name() string { return "plain" }

func (PlainStrategy) Prepare(text string) (string, adapter.Mode) {
	return StripMarkup(text), adapter.ModePlain
}

type Renderer struct {
	out        adapter.OutputAdapter
	strategies []Strategy
	maxLen     int
}

// New builds the two-level renderer: rich first, sanitized plain as the one
// and only fallback. Additional levels can be appended without touching the
// delivery loop.
func New(out adapter.OutputAdapter, maxLen int) *Renderer {
	if maxLen <= 0 {
		maxLen = config.DefaultRenderMaxMessageLength
	}
	return &Renderer{
		out:        out,
		strategies: []Strategy{MarkdownStrategy{}, PlainStrategy{}},
		maxLen:     maxLen,
	}
}

// Typing relays the transport's typing indicator. Best effort: callers log
// failures and proceed.
func (r *Renderer) Typing(ctx context.Context, chatID string) error {
	return r.out.Typing(ctx, chatID)
}

// Deliver sends text to chatID, chunking past the transport limit. Each chunk
// tries the strategies in order; only a formatting-syntax rejection advances
// to the next one. A failure of the last strategy escalates as a delivery
// error for this exchange.
func (r *Renderer) Deliver(ctx context.Context, chatID string, text string) error {
	for _, chunk := range Chunk(text, r.maxLen) {
		if err := r.deliverChunk(ctx, chatID, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) deliverChunk(ctx context.Context, chatID string, chunk string) error {
	var lastErr error
	for i, strat := range r.strategies {
		prepared, mode := strat.Prepare(chunk)

		err := r.out.Send(ctx, chatID, prepared, mode)
		if err == nil {
			if i > 0 {
				slog.Warn("Rich delivery failed, degraded", "strategy", strat.Name(), "chat_id", chatID)
			}
			return nil
		}

		if !errors.IsCategory(err, errors.ErrFormatDelivery) {
			return errors.Wrap(err, "delivery failed")
		}

		slog.Debug("Formatting rejected by transport, trying next strategy", "strategy", strat.Name(), "error", err)
		lastErr = err
	}

	return fmt.Errorf("all delivery strategies exhausted: %v: %w", lastErr, errors.ErrDeliveryFailed)
}
