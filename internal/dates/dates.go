// Package dates implements the calendar arithmetic behind birthday countdowns.
package dates

import (
	"fmt"
	"time"

	"github.com/ivklv/birthday-bot/internal/i18n"
)

// NextOccurrence returns the next calendar date on or after today that shares
// the birthdate's month and day. When today already matches, today is
// returned. A Feb 29 birthdate in a year without one falls on Feb 28 of that
// year.
func NextOccurrence(birthdate, today time.Time) time.Time {
	today = truncateToDay(today)

	candidate := occurrenceInYear(birthdate, today.Year())
	if candidate.Before(today) {
		candidate = occurrenceInYear(birthdate, today.Year()+1)
	}

	return candidate
}

// DaysUntil returns the whole number of days from today until the next
// occurrence of the birthdate. Zero means the birthday is today.
func DaysUntil(birthdate, today time.Time) int {
	today = truncateToDay(today)
	next := NextOccurrence(birthdate, today)

	return int(next.Sub(today).Hours() / 24)
}

// Message renders the reminder text for the given birthdate and date: the
// celebratory line on the day itself, otherwise the countdown template with
// the remaining day count.
func Message(tr i18n.Translator, birthdate, today time.Time) string {
	days := DaysUntil(birthdate, today)
	if days == 0 {
		return tr.T("reminder.today")
	}

	return fmt.Sprintf(tr.T("reminder.countdown"), days)
}

func occurrenceInYear(birthdate time.Time, year int) time.Time {
	month, day := birthdate.Month(), birthdate.Day()
	if month == time.February && day == 29 && !isLeapYear(year) {
		day = 28
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
