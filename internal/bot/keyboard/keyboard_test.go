package keyboard_test

import (
	"testing"

	"github.com/ivklv/birthday-bot/internal/bot/keyboard"
)

type mockTranslator struct {
	translations map[string]string
}

func (m *mockTranslator) T(key string) string {
	if text, ok := m.translations[key]; ok {
		return text
	}
	return key
}

func (m *mockTranslator) Lang() string { return "ru" }

func TestMainMenu(t *testing.T) {
	translator := &mockTranslator{
		translations: map[string]string{
			"menu.today":    "Сколько осталось",
			"menu.birthday": "Изменить дату",
			"menu.time":     "Изменить время",
			"menu.stop":     "Отключить напоминания",
		},
	}

	markup := keyboard.MainMenu(translator)

	if !markup.ResizeKeyboard {
		t.Fatal("expected ResizeKeyboard to be true")
	}

	expectedRows := [][]string{
		{"Сколько осталось", "Изменить дату"},
		{"Изменить время", "Отключить напоминания"},
	}

	if len(markup.ReplyKeyboard) != len(expectedRows) {
		t.Fatalf("expected %d rows, got %d", len(expectedRows), len(markup.ReplyKeyboard))
	}

	for i, row := range expectedRows {
		if len(markup.ReplyKeyboard[i]) != len(row) {
			t.Fatalf("row %d: expected %d buttons, got %d", i, len(row), len(markup.ReplyKeyboard[i]))
		}
		for j, text := range row {
			if markup.ReplyKeyboard[i][j].Text != text {
				t.Errorf("row %d button %d: expected %q, got %q", i, j, text, markup.ReplyKeyboard[i][j].Text)
			}
		}
	}
}

func TestHours(t *testing.T) {
	markup := keyboard.Hours()

	if !markup.OneTimeKeyboard {
		t.Fatal("expected OneTimeKeyboard to be true")
	}

	if len(markup.ReplyKeyboard) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(markup.ReplyKeyboard))
	}

	hour := 0
	for i, row := range markup.ReplyKeyboard {
		if len(row) != 4 {
			t.Fatalf("row %d: expected 4 buttons, got %d", i, len(row))
		}
		for _, btn := range row {
			if expected := keyboard.HourLabel(hour); btn.Text != expected {
				t.Errorf("expected button %q, got %q", expected, btn.Text)
			}
			hour++
		}
	}

	if hour != 24 {
		t.Fatalf("expected 24 buttons total, got %d", hour)
	}
}

func TestHourLabel(t *testing.T) {
	testCases := []struct {
		hour     int
		expected string
	}{
		{0, "00:00"},
		{8, "08:00"},
		{23, "23:00"},
	}

	for _, tc := range testCases {
		if got := keyboard.HourLabel(tc.hour); got != tc.expected {
			t.Errorf("HourLabel(%d) = %q, expected %q", tc.hour, got, tc.expected)
		}
	}
}

func TestRemove(t *testing.T) {
	if !keyboard.Remove().RemoveKeyboard {
		t.Fatal("expected RemoveKeyboard to be true")
	}
}
