package dates

import (
	"fmt"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextOccurrence(t *testing.T) {
	testCases := []struct {
		name      string
		birthdate time.Time
		today     time.Time
		want      time.Time
	}{
		{name: "later this year", birthdate: date(2007, time.April, 13), today: date(2026, time.January, 10), want: date(2026, time.April, 13)},
		{name: "already passed this year", birthdate: date(2007, time.April, 13), today: date(2026, time.May, 1), want: date(2027, time.April, 13)},
		{name: "same day", birthdate: date(2007, time.April, 13), today: date(2026, time.April, 13), want: date(2026, time.April, 13)},
		{name: "day before", birthdate: date(2007, time.April, 13), today: date(2026, time.April, 12), want: date(2026, time.April, 13)},
		{name: "day after", birthdate: date(2007, time.April, 13), today: date(2026, time.April, 14), want: date(2027, time.April, 13)},
		{name: "new year boundary", birthdate: date(1995, time.January, 1), today: date(2026, time.December, 31), want: date(2027, time.January, 1)},
		{name: "leap birthdate in leap year", birthdate: date(2000, time.February, 29), today: date(2028, time.January, 1), want: date(2028, time.February, 29)},
		{name: "leap birthdate substitutes feb 28", birthdate: date(2000, time.February, 29), today: date(2026, time.January, 1), want: date(2026, time.February, 28)},
		{name: "leap birthdate on substituted day", birthdate: date(2000, time.February, 29), today: date(2026, time.February, 28), want: date(2026, time.February, 28)},
		{name: "leap birthdate just after substitution", birthdate: date(2000, time.February, 29), today: date(2026, time.March, 1), want: date(2027, time.February, 28)},
		{name: "century non-leap year", birthdate: date(2000, time.February, 29), today: date(2100, time.January, 1), want: date(2100, time.February, 28)},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := NextOccurrence(tc.birthdate, tc.today)
			if !got.Equal(tc.want) {
				t.Fatalf("NextOccurrence(%v, %v) = %v, expected %v", tc.birthdate, tc.today, got, tc.want)
			}
			if got.Before(tc.today) {
				t.Fatalf("NextOccurrence returned %v before today %v", got, tc.today)
			}
		})
	}
}

func TestDaysUntil(t *testing.T) {
	testCases := []struct {
		name      string
		birthdate time.Time
		today     time.Time
		want      int
	}{
		{name: "same day", birthdate: date(2007, time.April, 13), today: date(2026, time.April, 13), want: 0},
		{name: "one day left", birthdate: date(2007, time.April, 13), today: date(2026, time.April, 12), want: 1},
		{name: "wraps to next year", birthdate: date(2007, time.April, 13), today: date(2026, time.April, 14), want: 364},
		{name: "time of day ignored", birthdate: date(2007, time.April, 13), today: time.Date(2026, time.April, 12, 23, 59, 0, 0, time.UTC), want: 1},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := DaysUntil(tc.birthdate, tc.today); got != tc.want {
				t.Fatalf("DaysUntil(%v, %v) = %d, expected %d", tc.birthdate, tc.today, got, tc.want)
			}
		})
	}
}

type staticTranslator map[string]string

func (s staticTranslator) T(key string) string { return s[key] }
func (s staticTranslator) Lang() string        { return "test" }

func TestMessage(t *testing.T) {
	tr := staticTranslator{
		"reminder.today":     "happy birthday",
		"reminder.countdown": "%d days left",
	}

	if got := Message(tr, date(2007, time.April, 13), date(2026, time.April, 13)); got != "happy birthday" {
		t.Fatalf("expected celebration text, got %q", got)
	}

	for _, days := range []int{1, 7, 200} {
		today := date(2026, time.April, 13).AddDate(0, 0, -days)
		want := fmt.Sprintf("%d days left", days)
		if got := Message(tr, date(2007, time.April, 13), today); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}
