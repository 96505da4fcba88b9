// Package middleware contains bot and HTTP middleware components.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/ivklv/birthday-bot/internal/bot/handlers"
	"github.com/ivklv/birthday-bot/internal/idempotency"
)

const dedupTTL = 24 * time.Hour

// Idempotency ensures handlers execute at most once per Telegram update key.
func Idempotency(manager idempotency.Manager, log *slog.Logger) handlers.Middleware {
	if manager == nil {
		return func(next handlers.Handler) handlers.Handler {
			return next
		}
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			key := extractUpdateKey(c)
			if key == "" {
				return next(c)
			}

			ctx := context.Background()

			duplicate, err := manager.Execute(ctx, key, dedupTTL, func(execCtx context.Context) error {
				return next(c)
			})
			if err != nil {
				if errors.Is(err, idempotency.ErrRequestInProgress) {
					return nil
				}

				log.Error("deduplicated handler failed", slog.String("key", key), slog.Any("error", err))
				return err
			}

			if duplicate {
				log.Info("duplicate update skipped", slog.String("key", key))
			}

			return nil
		}
	}
}

func extractUpdateKey(c telebot.Context) string {
	if c == nil {
		return ""
	}

	msg := c.Message()
	if msg == nil || msg.ID == 0 {
		return ""
	}

	chatID := int64(0)
	if msg.Chat != nil {
		chatID = msg.Chat.ID
	}

	return idempotency.GenerateKey("msg", chatID, msg.ID)
}
