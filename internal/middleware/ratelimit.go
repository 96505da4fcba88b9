package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/ivklv/birthday-bot/internal/errors"
	"github.com/ivklv/birthday-bot/internal/ratelimit"
)

// RateLimitMiddleware enforces per-chat rate limits for incoming updates.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	log     *slog.Logger
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		log:     log,
	}
}

// Handle returns a telebot middleware that enforces per-chat rate limits.
func (m *RateLimitMiddleware) Handle(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if m.limiter == nil || m.rules == nil {
			return next(c)
		}

		chat := c.Chat()
		if chat == nil {
			return next(c)
		}

		chatID := chat.ID
		if m.rules.IsWhitelisted(chatID) {
			return next(c)
		}

		limit, window, err := m.rules.GetPerChatLimit()
		if err != nil {
			m.log.Error("failed to load per-chat rate limit", slog.Int64("chat_id", chatID), slog.Any("error", err))
			return next(c)
		}

		key := fmt.Sprintf("chat:%d", chatID)
		result, err := m.limiter.Check(context.Background(), key, limit, window)
		if err != nil && !errors.Is(err, ratelimit.ErrLimitExceeded) {
			m.log.Warn("rate limiter error", slog.Int64("chat_id", chatID), slog.Any("error", err))
			return next(c)
		}

		if result != nil && !result.Allowed {
			m.log.Warn("rate limit exceeded", slog.Int64("chat_id", chatID))

			retryAfter := int(time.Until(result.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}

			return c.Send(apperrors.NewRateLimitError(retryAfter).UserMessage)
		}

		return next(c)
	}
}
