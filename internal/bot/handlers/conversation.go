package handlers

import (
	"context"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/ivklv/birthday-bot/internal/birthday"
	"github.com/ivklv/birthday-bot/internal/bot/keyboard"
	"github.com/ivklv/birthday-bot/internal/dates"
	"github.com/ivklv/birthday-bot/internal/domain"
	apperrors "github.com/ivklv/birthday-bot/internal/errors"
	"github.com/ivklv/birthday-bot/internal/i18n"
	"github.com/ivklv/birthday-bot/internal/state"
)

// birthdateCtxLayout is how the pending birthdate is serialized inside the
// conversation state between the two onboarding steps.
const birthdateCtxLayout = "2006-01-02"

// NewBirthdateHandler consumes the birthdate during onboarding. Unparseable
// input re-prompts without leaving the state.
func NewBirthdateHandler(fsm state.Machine, tr i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		ctx := context.Background()
		chatID := c.Chat().ID

		birthdate, err := domain.ParseBirthdate(c.Text())
		if err != nil {
			log.Info("rejected birthdate input", slog.Int64("chat_id", chatID))
			return c.Send(tr.T("invalid.birthdate"))
		}

		err = fsm.Transition(ctx, chatID, state.StateAwaitingHour, map[string]interface{}{
			state.CtxBirthdate: birthdate.Format(birthdateCtxLayout),
		})
		if err != nil {
			return err
		}

		return c.Send(tr.T("prompt.hour"), keyboard.Hours())
	}
}

// NewHourHandler consumes the reminder hour, completing onboarding. The
// birthdate stored by the previous step comes out of the conversation state.
func NewHourHandler(fsm state.Machine, svc *birthday.Service, tr i18n.Translator, loc *time.Location, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}

	return func(c telebot.Context) error {
		ctx := context.Background()
		chatID := c.Chat().ID

		hour, err := domain.ParseRemindHour(c.Text())
		if err != nil {
			log.Info("rejected hour input", slog.Int64("chat_id", chatID))
			return c.Send(tr.T("invalid.hour"))
		}

		chatState, err := fsm.GetState(ctx, chatID)
		if err != nil {
			return err
		}

		birthdate, err := pendingBirthdate(chatState)
		if err != nil {
			// The stored context is unusable. Restart onboarding.
			log.Error("conversation context lost", slog.Int64("chat_id", chatID), slog.Any("error", err))
			if clearErr := fsm.ClearState(ctx, chatID); clearErr != nil {
				return clearErr
			}
			return c.Send(tr.T("error.generic"), keyboard.Remove())
		}

		if _, err := svc.Complete(ctx, chatID, birthdate, hour); err != nil {
			return err
		}

		if err := fsm.ClearState(ctx, chatID); err != nil {
			return err
		}

		if err := c.Send(tr.T("saved"), keyboard.MainMenu(tr)); err != nil {
			return err
		}

		return c.Send(dates.Message(tr, birthdate, time.Now().In(loc)))
	}
}

// NewBirthdateUpdateHandler consumes a replacement birthdate for an existing
// record.
func NewBirthdateUpdateHandler(fsm state.Machine, svc *birthday.Service, tr i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		ctx := context.Background()
		chatID := c.Chat().ID

		birthdate, err := domain.ParseBirthdate(c.Text())
		if err != nil {
			return c.Send(tr.T("invalid.birthdate"))
		}

		if err := svc.ChangeBirthdate(ctx, chatID, birthdate); err != nil {
			return err
		}

		if err := fsm.ClearState(ctx, chatID); err != nil {
			return err
		}

		return c.Send(tr.T("updated.birthdate"), keyboard.MainMenu(tr))
	}
}

// NewHourUpdateHandler consumes a replacement reminder hour for an existing
// record.
func NewHourUpdateHandler(fsm state.Machine, svc *birthday.Service, tr i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		ctx := context.Background()
		chatID := c.Chat().ID

		hour, err := domain.ParseRemindHour(c.Text())
		if err != nil {
			return c.Send(tr.T("invalid.hour"))
		}

		if err := svc.ChangeHour(ctx, chatID, hour); err != nil {
			return err
		}

		if err := fsm.ClearState(ctx, chatID); err != nil {
			return err
		}

		return c.Send(tr.T("updated.hour"), keyboard.MainMenu(tr))
	}
}

func pendingBirthdate(chatState *state.ChatState) (time.Time, error) {
	if chatState == nil || chatState.Context == nil {
		return time.Time{}, apperrors.NewStateError("conversation context is empty")
	}

	raw, ok := chatState.Context[state.CtxBirthdate].(string)
	if !ok {
		return time.Time{}, apperrors.NewStateError("birthdate missing from conversation context")
	}

	birthdate, err := time.Parse(birthdateCtxLayout, raw)
	if err != nil {
		return time.Time{}, apperrors.NewStateError("birthdate in conversation context is malformed")
	}

	return birthdate.UTC(), nil
}
