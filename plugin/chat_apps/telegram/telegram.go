// Package telegram runs the support bot over the Telegram Bot API using
// long polling. Each Telegram chat maps to one pipeline session.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hrygo/solace/ai/chat"
)

const (
	defaultParseMode = "Markdown"
	pollTimeoutSecs  = 30

	welcomeText = "Hi, I'm Solace. I'm here for conversations about stress, mood, and wellbeing. What's on your mind?"
	endedText   = "Conversation ended. Message me anytime you want to talk again."
	helpText    = "Just send me a message and I'll do my best to support you.\n\n/start - start over\n/end - end the conversation"
)

// Bot bridges Telegram chats to the resolution pipeline.
type Bot struct {
	api      *tgbotapi.BotAPI
	pipeline *chat.Pipeline
	sessions *chat.Manager
}

// NewBot creates the Telegram bot.
func NewBot(token string, pipeline *chat.Pipeline, sessions *chat.Manager) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	slog.Info("telegram: authorized", "username", api.Self.UserName)
	return &Bot{api: api, pipeline: pipeline, sessions: sessions}, nil
}

// Run polls for updates until ctx is canceled.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeoutSecs
	updates := b.api.GetUpdatesChan(cfg)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		msg = update.EditedMessage
	}
	if msg == nil || msg.Text == "" {
		return
	}

	chatID := msg.Chat.ID
	sessionID := sessionIDFor(chatID)

	if msg.IsCommand() {
		b.handleCommand(chatID, sessionID, msg.Command())
		return
	}

	turnCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, result := b.sessions.Resolve(turnCtx, b.pipeline, sessionID, msg.Text)
	b.reply(chatID, result.Text)
}

func (b *Bot) handleCommand(chatID int64, sessionID, command string) {
	switch command {
	case "start":
		b.sessions.End(sessionID)
		b.reply(chatID, welcomeText)
	case "end":
		b.sessions.End(sessionID)
		b.reply(chatID, endedText)
	case "help":
		b.reply(chatID, helpText)
	default:
		b.reply(chatID, helpText)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = defaultParseMode
	if _, err := b.api.Send(msg); err != nil {
		// Markdown parse failures are the usual culprit; retry as plain
		// text before giving up.
		plain := tgbotapi.NewMessage(chatID, text)
		if _, err := b.api.Send(plain); err != nil {
			slog.Error("telegram: send failed", "chat_id", chatID, "error", err)
		}
	}
}

func sessionIDFor(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}
