package domain

import (
	"strconv"
	"strings"
	"time"
)

// BirthdateLayout is the only accepted input format for birthdates.
const BirthdateLayout = "02.01.2006"

// ParseBirthdate parses user input as a calendar date in DD.MM.YYYY form.
// The result is normalized to UTC midnight. Any deviation from the layout,
// including calendrically impossible dates such as 31.02, is rejected.
func ParseBirthdate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)

	parsed, err := time.Parse(BirthdateLayout, text)
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
}

// ParseRemindHour parses user input as an hour of day. Accepted forms are
// "HH:MM" with zero minutes (the hour keyboard sends "08:00") and a bare hour
// token such as "8" or "08". Returns the hour in [0,23].
func ParseRemindHour(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, &ParseError{Input: text, Reason: "empty input"}
	}

	hourPart := text
	if idx := strings.IndexByte(text, ':'); idx >= 0 {
		hourPart = text[:idx]
		if text[idx+1:] != "00" {
			return 0, &ParseError{Input: text, Reason: "minutes must be 00"}
		}
	}

	if len(hourPart) == 0 || len(hourPart) > 2 {
		return 0, &ParseError{Input: text, Reason: "expected HH:00 or a bare hour"}
	}

	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0, &ParseError{Input: text, Reason: "hour is not a number"}
	}

	if hour < 0 || hour > 23 {
		return 0, &ParseError{Input: text, Reason: "hour out of range"}
	}

	return hour, nil
}

// ParseError describes why a user-supplied value was rejected.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return "parse " + strconv.Quote(e.Input) + ": " + e.Reason
}
