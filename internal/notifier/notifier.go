// Package notifier delivers reminder messages to chats.
package notifier

import (
	"context"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/ivklv/birthday-bot/internal/errors"
)

// Notifier sends a text message to a chat.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// TelegramNotifier delivers messages through the Telegram Bot API. Sends go
// through a circuit breaker so a Telegram outage does not stall a reminder
// pass on every single chat.
type TelegramNotifier struct {
	bot         *telebot.Bot
	log         *slog.Logger
	breaker     *apperrors.CircuitBreaker
	sendTimeout time.Duration
}

// NewTelegramNotifier constructs a notifier on top of a connected bot.
func NewTelegramNotifier(bot *telebot.Bot, log *slog.Logger, sendTimeout time.Duration) *TelegramNotifier {
	if log == nil {
		log = slog.Default()
	}
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}

	return &TelegramNotifier{
		bot:         bot,
		log:         log,
		breaker:     apperrors.NewCircuitBreaker(),
		sendTimeout: sendTimeout,
	}
}

// Send delivers text to the chat, bounded by the configured timeout.
func (n *TelegramNotifier) Send(ctx context.Context, chatID int64, text string) error {
	ctx, cancel := context.WithTimeout(ctx, n.sendTimeout)
	defer cancel()

	err := n.breaker.Call(func() error {
		done := make(chan error, 1)
		go func() {
			_, sendErr := n.bot.Send(&telebot.Chat{ID: chatID}, text)
			done <- sendErr
		}()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case sendErr := <-done:
			return sendErr
		}
	})
	if err != nil {
		n.log.Error("failed to deliver message", slog.Int64("chat_id", chatID), slog.Any("error", err))
		return apperrors.NewDeliveryError(err)
	}

	return nil
}
