// Package keyboard builds the reply keyboards used by the bot.
package keyboard

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/ivklv/birthday-bot/internal/i18n"
)

// MainMenu builds a localized reply keyboard for the bot main menu.
func MainMenu(t i18n.Translator) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: false,
	}

	lookup := func(key string) string {
		if t == nil {
			return key
		}
		return t.T(key)
	}

	todayBtn := markup.Text(lookup("menu.today"))
	birthdayBtn := markup.Text(lookup("menu.birthday"))
	timeBtn := markup.Text(lookup("menu.time"))
	stopBtn := markup.Text(lookup("menu.stop"))

	markup.Reply(
		markup.Row(todayBtn, birthdayBtn),
		markup.Row(timeBtn, stopBtn),
	)

	return markup
}

// Remove produces a markup that hides any visible reply keyboard.
func Remove() *telebot.ReplyMarkup {
	return &telebot.ReplyMarkup{RemoveKeyboard: true}
}
