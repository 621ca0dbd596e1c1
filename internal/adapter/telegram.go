package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/novatasks/nova/internal/config"
	"github.com/novatasks/nova/internal/errors"
)

type TelegramAdapter struct {
	token         string
	updateTimeout int
	eventHandler  EventHandler
	bot           *tgbotapi.BotAPI
	updates       tgbotapi.UpdatesChannel
}

func NewTelegramAdapter(token string, eventHandler EventHandler, updateTimeout int) *TelegramAdapter {
	if updateTimeout <= 0 {
		updateTimeout = config.DefaultTelegramUpdateTimeout
	}
	return &TelegramAdapter{
		token:         token,
		updateTimeout: updateTimeout,
		eventHandler:  eventHandler,
	}
}

func (t *TelegramAdapter) Name() string {
	return "telegram"
}

func (t *TelegramAdapter) Start(ctx context.Context) error {
	var err error
	t.bot, err = tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return errors.Wrap(err, "failed to init telegram bot")
	}

	slog.Info("Telegram adapter started", "user", t.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.updateTimeout

	t.updates = t.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case update := <-t.updates:
				t.handleUpdate(ctx, update)
			}
		}
	}()

	return nil
}

func (t *TelegramAdapter) Stop(ctx context.Context) error {
	if t.bot != nil {
		t.bot.StopReceivingUpdates()
	}
	return nil
}

func (t *TelegramAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	msg := update.Message

	// A single-operator assistant only answers direct chats; group traffic is
	// dropped before it reaches the pipeline.
	if msg.Chat == nil || !msg.Chat.IsPrivate() {
		slog.Debug("Non-private chat update ignored", "update_id", update.UpdateID)
		return
	}

	inbound := InboundMessage{
		// UpdateID is unique and sequential per bot, which makes
		// "telegram:<UpdateID>" a safe idempotency key.
		ExternalID: fmt.Sprintf("%d", update.UpdateID),
		SenderID:   fmt.Sprintf("%d", msg.From.ID),
		ChatID:     fmt.Sprintf("%d", msg.Chat.ID),
		SenderName: msg.From.FirstName,
		Text:       msg.Text,
		ReceivedAt: time.Unix(int64(msg.Date), 0),
	}

	if t.eventHandler != nil {
		if err := t.eventHandler(ctx, "telegram", inbound); err != nil {
			slog.Error("Failed to handle Telegram event", "error", err)
		}
	}
}

// Send delivers a reply. A markup rejection from the Bot API surfaces as a
// formatting delivery error so the caller can retry in plain text.
func (t *TelegramAdapter) Send(ctx context.Context, chatID string, text string, mode Mode) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return errors.InvalidInput("invalid telegram chat ID: " + err.Error())
	}

	msg := tgbotapi.NewMessage(id, text)
	if mode == ModeMarkdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}

	if _, err = t.bot.Send(msg); err != nil {
		if isEntityParseError(err) {
			return errors.FormatDelivery("telegram rejected markup: " + err.Error())
		}
		return errors.Wrap(err, "failed to send telegram message")
	}

	slog.Debug("Telegram message sent", "chat_id", chatID, "mode", mode)
	return nil
}

// Typing shows the chat-level "typing..." indicator while the agent works on
// a reply.
func (t *TelegramAdapter) Typing(ctx context.Context, chatID string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return errors.InvalidInput("invalid telegram chat ID: " + err.Error())
	}

	if _, err := t.bot.Request(tgbotapi.NewChatAction(id, tgbotapi.ChatTyping)); err != nil {
		return errors.Wrap(err, "failed to send typing action")
	}
	return nil
}

// isEntityParseError matches the Bot API response for unbalanced formatting
// syntax, e.g. "Bad Request: can't parse entities: Can't find end of the
// entity starting at byte offset 12".
func isEntityParseError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "can't parse entities")
}

func (t *TelegramAdapter) Health(ctx context.Context) error {
	if t.bot == nil {
		return errors.Transient("Telegram bot not initialized")
	}

	if _, err := t.bot.GetMe(); err != nil {
		return errors.Transient("Telegram connection failed: " + err.Error())
	}

	return nil
}
