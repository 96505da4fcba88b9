package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/ivklv/birthday-bot/internal/birthday"
	"github.com/ivklv/birthday-bot/internal/bot/keyboard"
	"github.com/ivklv/birthday-bot/internal/dates"
	"github.com/ivklv/birthday-bot/internal/i18n"
	"github.com/ivklv/birthday-bot/internal/state"
)

// NewTodayHandler handles /today: reports how many days remain.
func NewTodayHandler(svc *birthday.Service, tr i18n.Translator, loc *time.Location, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}

	return func(c telebot.Context) error {
		ctx := context.Background()
		chatID := c.Chat().ID

		record, err := svc.Get(ctx, chatID)
		if err != nil {
			if errors.Is(err, birthday.ErrNoRecord) {
				return c.Send(tr.T("no_record"))
			}
			return err
		}

		return c.Send(dates.Message(tr, record.Birthdate, time.Now().In(loc)), keyboard.MainMenu(tr))
	}
}

// NewBirthdayCommandHandler handles /birthday: starts a birthdate change.
func NewBirthdayCommandHandler(fsm state.Machine, svc *birthday.Service, tr i18n.Translator, log *slog.Logger) Handler {
	return newUpdateEntryHandler(fsm, svc, tr, log, state.StateAwaitingBirthdateUpdate, "prompt.birthdate_update", keyboard.Remove())
}

// NewTimeCommandHandler handles /time: starts a reminder hour change.
func NewTimeCommandHandler(fsm state.Machine, svc *birthday.Service, tr i18n.Translator, log *slog.Logger) Handler {
	return newUpdateEntryHandler(fsm, svc, tr, log, state.StateAwaitingHourUpdate, "prompt.hour_update", keyboard.Hours())
}

// newUpdateEntryHandler starts a single-field update dialog. The chat must
// already have a record; commands interrupt whatever dialog was in progress.
func newUpdateEntryHandler(
	fsm state.Machine,
	svc *birthday.Service,
	tr i18n.Translator,
	log *slog.Logger,
	target state.State,
	promptKey string,
	markup *telebot.ReplyMarkup,
) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		ctx := context.Background()
		chatID := c.Chat().ID

		if _, err := svc.Get(ctx, chatID); err != nil {
			if errors.Is(err, birthday.ErrNoRecord) {
				return c.Send(tr.T("no_record"))
			}
			return err
		}

		if err := fsm.ClearState(ctx, chatID); err != nil {
			return err
		}
		if err := fsm.Transition(ctx, chatID, target, nil); err != nil {
			return err
		}

		return c.Send(tr.T(promptKey), markup)
	}
}

// NewStopHandler handles /stop: switches reminder delivery off, keeping the
// stored data for a later /start.
func NewStopHandler(fsm state.Machine, svc *birthday.Service, tr i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		ctx := context.Background()
		chatID := c.Chat().ID

		if err := svc.Deactivate(ctx, chatID); err != nil {
			if errors.Is(err, birthday.ErrNoRecord) {
				return c.Send(tr.T("no_record"))
			}
			return err
		}

		if err := fsm.ClearState(ctx, chatID); err != nil {
			return err
		}

		return c.Send(tr.T("deactivated"), keyboard.Remove())
	}
}

// NewCancelHandler handles /cancel: resets the conversation.
func NewCancelHandler(fsm state.Machine, tr i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		ctx := context.Background()
		chatID := c.Chat().ID

		if err := fsm.ClearState(ctx, chatID); err != nil {
			log.Error("failed to clear chat state", slog.Int64("chat_id", chatID), slog.Any("error", err))
			return err
		}

		return c.Send(tr.T("cancelled"), keyboard.MainMenu(tr))
	}
}

// NewHelpHandler handles /help.
func NewHelpHandler(tr i18n.Translator) Handler {
	return func(c telebot.Context) error {
		return c.Send(tr.T("help"), keyboard.MainMenu(tr))
	}
}
