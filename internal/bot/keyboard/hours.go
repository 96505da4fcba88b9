package keyboard

import (
	"fmt"

	telebot "gopkg.in/telebot.v3"
)

const hoursPerRow = 4

// Hours builds the reminder hour picker: one button per hour of the day,
// labeled "00:00" through "23:00", four per row.
func Hours() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}

	rows := make([]telebot.Row, 0, 24/hoursPerRow)
	row := make([]telebot.Btn, 0, hoursPerRow)

	for hour := 0; hour < 24; hour++ {
		row = append(row, markup.Text(HourLabel(hour)))
		if len(row) == hoursPerRow {
			rows = append(rows, markup.Row(row...))
			row = make([]telebot.Btn, 0, hoursPerRow)
		}
	}

	markup.Reply(rows...)

	return markup
}

// HourLabel formats an hour of day the way the picker displays it.
func HourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}
