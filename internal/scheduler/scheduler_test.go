package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ivklv/birthday-bot/internal/domain"
)

type stubRepo struct {
	records []*domain.BirthdayRecord
	err     error
	gotHour int
}

func (r *stubRepo) Get(ctx context.Context, chatID int64) (*domain.BirthdayRecord, error) {
	return nil, errors.New("not implemented")
}

func (r *stubRepo) UpsertFull(ctx context.Context, record *domain.BirthdayRecord) error {
	return errors.New("not implemented")
}

func (r *stubRepo) UpdateBirthdate(ctx context.Context, chatID int64, birthdate time.Time) error {
	return errors.New("not implemented")
}

func (r *stubRepo) UpdateHour(ctx context.Context, chatID int64, hour int) error {
	return errors.New("not implemented")
}

func (r *stubRepo) SetActive(ctx context.Context, chatID int64, active bool) error {
	return errors.New("not implemented")
}

func (r *stubRepo) ListActiveByHour(ctx context.Context, hour int) ([]*domain.BirthdayRecord, error) {
	r.gotHour = hour
	return r.records, r.err
}

type recordingNotifier struct {
	mu     sync.Mutex
	sent   map[int64]string
	failOn map[int64]bool
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		sent:   make(map[int64]string),
		failOn: make(map[int64]bool),
	}
}

func (n *recordingNotifier) Send(ctx context.Context, chatID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.failOn[chatID] {
		return errors.New("send failed")
	}

	n.sent[chatID] = text
	return nil
}

type staticTranslator map[string]string

func (t staticTranslator) T(key string) string { return t[key] }
func (t staticTranslator) Lang() string        { return "ru" }

var testCatalog = staticTranslator{
	"reminder.today":     "С Днём рождения!",
	"reminder.countdown": "Осталось %d дн.",
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func record(chatID int64, birthdate time.Time, hour int) *domain.BirthdayRecord {
	return &domain.BirthdayRecord{
		ChatID:     chatID,
		Birthdate:  birthdate,
		RemindHour: hour,
		Active:     true,
	}
}

func TestScheduler_Pass_DispatchesMatchingHour(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, time.March, 10, 8, 0, 5, 0, loc)
	birthdate := time.Date(1990, time.March, 15, 0, 0, 0, 0, time.UTC)

	repo := &stubRepo{records: []*domain.BirthdayRecord{
		record(1, birthdate, 8),
		record(2, birthdate, 8),
	}}
	n := newRecordingNotifier()

	s := New(repo, n, testCatalog, testLogger(), loc, time.Second)
	s.pass(context.Background(), now)

	if repo.gotHour != 8 {
		t.Errorf("expected query for hour 8, got %d", repo.gotHour)
	}
	if len(n.sent) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(n.sent))
	}
	if n.sent[1] != "Осталось 5 дн." {
		t.Errorf("unexpected message: %q", n.sent[1])
	}
}

func TestScheduler_Pass_BirthdayToday(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, time.March, 15, 9, 0, 5, 0, loc)
	birthdate := time.Date(1990, time.March, 15, 0, 0, 0, 0, time.UTC)

	repo := &stubRepo{records: []*domain.BirthdayRecord{record(1, birthdate, 9)}}
	n := newRecordingNotifier()

	s := New(repo, n, testCatalog, testLogger(), loc, time.Second)
	s.pass(context.Background(), now)

	if n.sent[1] != "С Днём рождения!" {
		t.Errorf("unexpected message: %q", n.sent[1])
	}
}

func TestScheduler_Pass_FailureIsolation(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, time.March, 10, 8, 0, 5, 0, loc)
	birthdate := time.Date(1990, time.March, 15, 0, 0, 0, 0, time.UTC)

	repo := &stubRepo{records: []*domain.BirthdayRecord{
		record(1, birthdate, 8),
		record(2, birthdate, 8),
		record(3, birthdate, 8),
	}}
	n := newRecordingNotifier()
	n.failOn[2] = true

	s := New(repo, n, testCatalog, testLogger(), loc, time.Second)
	s.pass(context.Background(), now)

	if len(n.sent) != 2 {
		t.Fatalf("expected 2 successful deliveries, got %d", len(n.sent))
	}
	if _, ok := n.sent[2]; ok {
		t.Error("expected chat 2 delivery to fail")
	}
}

func TestScheduler_Pass_RepoFailure(t *testing.T) {
	repo := &stubRepo{err: errors.New("db down")}
	n := newRecordingNotifier()

	s := New(repo, n, testCatalog, testLogger(), time.UTC, time.Second)
	s.pass(context.Background(), time.Date(2024, time.March, 10, 8, 0, 5, 0, time.UTC))

	if len(n.sent) != 0 {
		t.Fatalf("expected no deliveries, got %d", len(n.sent))
	}
}

func TestScheduler_UntilNextPass(t *testing.T) {
	s := New(&stubRepo{}, newRecordingNotifier(), testCatalog, testLogger(), time.UTC, 5*time.Second)

	testCases := []struct {
		name     string
		now      time.Time
		expected time.Duration
	}{
		{
			name:     "top of the hour",
			now:      time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC),
			expected: time.Hour + 5*time.Second,
		},
		{
			name:     "mid hour",
			now:      time.Date(2024, time.March, 10, 8, 30, 0, 0, time.UTC),
			expected: 30*time.Minute + 5*time.Second,
		},
		{
			name:     "just before boundary",
			now:      time.Date(2024, time.March, 10, 8, 59, 59, 0, time.UTC),
			expected: time.Second + 5*time.Second,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := s.untilNextPass(tc.now); got != tc.expected {
				t.Errorf("untilNextPass(%v) = %v, expected %v", tc.now, got, tc.expected)
			}
		})
	}
}
