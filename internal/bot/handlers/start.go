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

// NewStartHandler handles /start. A chat with an active record gets the
// current countdown and stays idle; a deactivated record gets its reminders
// switched back on; everyone else enters the onboarding dialog.
func NewStartHandler(fsm state.Machine, svc *birthday.Service, tr i18n.Translator, loc *time.Location, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}

	return func(c telebot.Context) error {
		if c == nil || c.Chat() == nil {
			log.Warn("start handler invoked without chat context")
			return nil
		}

		ctx := context.Background()
		chatID := c.Chat().ID

		record, err := svc.Get(ctx, chatID)
		if err != nil && !errors.Is(err, birthday.ErrNoRecord) {
			return err
		}

		if record != nil {
			// An interrupted dialog does not survive /start.
			if err := fsm.ClearState(ctx, chatID); err != nil {
				return err
			}

			if record.Active {
				return c.Send(dates.Message(tr, record.Birthdate, time.Now().In(loc)), keyboard.MainMenu(tr))
			}

			if err := svc.Reactivate(ctx, chatID); err != nil {
				return err
			}
			return c.Send(tr.T("start.reactivated"), keyboard.MainMenu(tr))
		}

		if err := fsm.ClearState(ctx, chatID); err != nil {
			return err
		}
		if err := fsm.Transition(ctx, chatID, state.StateAwaitingBirthdate, nil); err != nil {
			return err
		}

		if err := c.Send(tr.T("start.welcome"), keyboard.Remove()); err != nil {
			return err
		}

		return c.Send(tr.T("prompt.birthdate"))
	}
}
