// Package scheduler runs the hourly reminder passes.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/ivklv/birthday-bot/internal/dates"
	"github.com/ivklv/birthday-bot/internal/i18n"
	"github.com/ivklv/birthday-bot/internal/notifier"
	"github.com/ivklv/birthday-bot/internal/repository"
	"github.com/ivklv/birthday-bot/pkg/metrics"
)

const defaultSkew = 5 * time.Second

// Scheduler wakes up once an hour, shortly past the boundary, and sends a
// countdown message to every active chat whose reminder hour matches the
// current hour in the configured time zone.
type Scheduler struct {
	repo     repository.BirthdayRepository
	notifier notifier.Notifier
	tr       i18n.Translator
	log      *slog.Logger
	loc      *time.Location
	skew     time.Duration
}

// New constructs a Scheduler. loc determines both the matching hour and the
// calendar day used for countdown arithmetic.
func New(
	repo repository.BirthdayRepository,
	n notifier.Notifier,
	tr i18n.Translator,
	log *slog.Logger,
	loc *time.Location,
	skew time.Duration,
) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	if skew <= 0 {
		skew = defaultSkew
	}

	return &Scheduler{
		repo:     repo,
		notifier: n,
		tr:       tr,
		log:      log,
		loc:      loc,
		skew:     skew,
	}
}

// Run executes passes until the context is cancelled. The first pass happens
// at the next hour boundary, not at startup, so a restart mid-hour does not
// double-send.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("scheduler started",
		slog.String("timezone", s.loc.String()),
		slog.Duration("skew", s.skew),
	)

	for {
		wait := s.untilNextPass(time.Now().In(s.loc))

		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped", slog.String("reason", ctx.Err().Error()))
			return
		case <-time.After(wait):
		}

		s.pass(ctx, time.Now().In(s.loc))
	}
}

// pass sends reminders for a single hour. Each delivery is independent: a
// failed send is logged and counted, never aborting the rest of the batch.
func (s *Scheduler) pass(ctx context.Context, now time.Time) {
	started := time.Now()
	hour := now.Hour()

	records, err := s.repo.ListActiveByHour(ctx, hour)
	if err != nil {
		s.log.Error("reminder pass failed to list recipients",
			slog.Int("hour", hour),
			slog.Any("error", err),
		)
		return
	}

	metrics.ObserveReminderMatched(len(records))

	var sent, failed int
	for _, record := range records {
		if ctx.Err() != nil {
			return
		}

		text := dates.Message(s.tr, record.Birthdate, now)
		if err := s.notifier.Send(ctx, record.ChatID, text); err != nil {
			failed++
			metrics.RecordReminderSent("failed")
			s.log.Error("failed to send reminder",
				slog.Int64("chat_id", record.ChatID),
				slog.Any("error", err),
			)
			continue
		}

		sent++
		metrics.RecordReminderSent("sent")
	}

	metrics.ObserveReminderPass(time.Since(started))
	s.log.Info("reminder pass finished",
		slog.Int("hour", hour),
		slog.Int("sent", sent),
		slog.Int("failed", failed),
	)
}

// untilNextPass returns the time left to the next hour boundary plus the
// skew. The skew keeps the pass strictly after the boundary so the matched
// hour is never the previous one.
func (s *Scheduler) untilNextPass(now time.Time) time.Duration {
	elapsed := time.Duration(now.Minute())*time.Minute +
		time.Duration(now.Second())*time.Second +
		time.Duration(now.Nanosecond())

	return time.Hour - elapsed + s.skew
}
