package domain

import (
	"testing"
	"time"
)

func TestParseBirthdate(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "valid date", input: "13.04.2007", want: time.Date(2007, time.April, 13, 0, 0, 0, 0, time.UTC)},
		{name: "valid with surrounding spaces", input: " 01.01.1990 ", want: time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{name: "leap day", input: "29.02.2000", want: time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC)},
		{name: "month out of range", input: "31.13.2007", wantErr: true},
		{name: "impossible day", input: "31.02.2007", wantErr: true},
		{name: "leap day in non-leap year", input: "29.02.2001", wantErr: true},
		{name: "wrong separator", input: "13-04-2007", wantErr: true},
		{name: "iso format rejected", input: "2007-04-13", wantErr: true},
		{name: "free text", input: "tomorrow", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseBirthdate(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseBirthdate(%q) = %v, expected error", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBirthdate(%q) returned error: %v", tc.input, err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("ParseBirthdate(%q) = %v, expected %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseRemindHour(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "keyboard token", input: "08:00", want: 8},
		{name: "midnight", input: "00:00", want: 0},
		{name: "late evening", input: "23:00", want: 23},
		{name: "bare hour", input: "8", want: 8},
		{name: "bare padded hour", input: "08", want: 8},
		{name: "nonzero minutes", input: "08:30", wantErr: true},
		{name: "hour out of range", input: "24:00", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "not a time", input: "morning", wantErr: true},
		{name: "too many digits", input: "008:00", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseRemindHour(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseRemindHour(%q) = %d, expected error", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRemindHour(%q) returned error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Fatalf("ParseRemindHour(%q) = %d, expected %d", tc.input, got, tc.want)
			}
		})
	}
}
