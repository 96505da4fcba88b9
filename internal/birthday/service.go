// Package birthday provides business operations over birthday records.
package birthday

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ivklv/birthday-bot/internal/domain"
	apperrors "github.com/ivklv/birthday-bot/internal/errors"
	"github.com/ivklv/birthday-bot/internal/recordcache"
	"github.com/ivklv/birthday-bot/internal/repository"
)

const cacheTTL = 10 * time.Minute

// ErrNoRecord is returned when an operation needs an existing record and the
// chat has none.
var ErrNoRecord = errors.New("no birthday record for chat")

// Service provides business operations over birthday records.
type Service struct {
	repo  repository.BirthdayRepository
	cache *recordcache.Cache
	log   *slog.Logger
}

// NewService constructs a new Service instance. cache may be nil.
func NewService(repo repository.BirthdayRepository, cache *recordcache.Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// Get returns the record for the chat, reading through the cache.
func (s *Service) Get(ctx context.Context, chatID int64) (*domain.BirthdayRecord, error) {
	if cached, err := s.cache.Get(ctx, chatID); err != nil {
		s.logError("get.cache", chatID, err)
	} else if cached != nil {
		return cached, nil
	}

	record, err := s.repo.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoRecord
		}

		s.logError("get", chatID, err)
		return nil, apperrors.NewStorageError(err)
	}

	if err := s.cache.Set(ctx, chatID, record, cacheTTL); err != nil {
		s.logError("get.cache_set", chatID, err)
	}

	return record, nil
}

// Complete stores the finished onboarding result: birthdate plus reminder
// hour. Re-running onboarding for an existing chat replaces the record and
// reactivates reminders.
func (s *Service) Complete(ctx context.Context, chatID int64, birthdate time.Time, hour int) (*domain.BirthdayRecord, error) {
	if err := validateRecord(birthdate, hour); err != nil {
		return nil, err
	}

	record := &domain.BirthdayRecord{
		ChatID:     chatID,
		Birthdate:  birthdate,
		RemindHour: hour,
		Active:     true,
	}

	if err := s.repo.UpsertFull(ctx, record); err != nil {
		s.logError("complete", chatID, err)
		return nil, apperrors.NewStorageError(err)
	}

	s.invalidate(ctx, chatID)

	return record, nil
}

// ChangeBirthdate updates the stored birthdate for an existing record.
func (s *Service) ChangeBirthdate(ctx context.Context, chatID int64, birthdate time.Time) error {
	if birthdate.IsZero() {
		return apperrors.NewValidationError("birthdate is zero")
	}

	if err := s.repo.UpdateBirthdate(ctx, chatID, birthdate); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoRecord
		}

		s.logError("change_birthdate", chatID, err)
		return apperrors.NewStorageError(err)
	}

	s.invalidate(ctx, chatID)

	return nil
}

// ChangeHour updates the reminder hour for an existing record.
func (s *Service) ChangeHour(ctx context.Context, chatID int64, hour int) error {
	if hour < 0 || hour > 23 {
		return apperrors.NewValidationError(fmt.Sprintf("reminder hour %d out of range", hour))
	}

	if err := s.repo.UpdateHour(ctx, chatID, hour); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoRecord
		}

		s.logError("change_hour", chatID, err)
		return apperrors.NewStorageError(err)
	}

	s.invalidate(ctx, chatID)

	return nil
}

// Deactivate stops reminder delivery, keeping the stored data intact.
func (s *Service) Deactivate(ctx context.Context, chatID int64) error {
	return s.setActive(ctx, chatID, false, "deactivate")
}

// Reactivate resumes reminder delivery with the previously stored data.
func (s *Service) Reactivate(ctx context.Context, chatID int64) error {
	return s.setActive(ctx, chatID, true, "reactivate")
}

func (s *Service) setActive(ctx context.Context, chatID int64, active bool, op string) error {
	if err := s.repo.SetActive(ctx, chatID, active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoRecord
		}

		s.logError(op, chatID, err)
		return apperrors.NewStorageError(err)
	}

	s.invalidate(ctx, chatID)

	return nil
}

// validateRecord rejects values the birthdays table would not accept.
func validateRecord(birthdate time.Time, hour int) error {
	if birthdate.IsZero() {
		return apperrors.NewValidationError("birthdate is zero")
	}
	if hour < 0 || hour > 23 {
		return apperrors.NewValidationError(fmt.Sprintf("reminder hour %d out of range", hour))
	}

	return nil
}

func (s *Service) invalidate(ctx context.Context, chatID int64) {
	if err := s.cache.Invalidate(ctx, chatID); err != nil {
		s.logError("cache_invalidate", chatID, err)
	}
}

func (s *Service) logError(operation string, chatID int64, err error) {
	if s == nil || s.log == nil || err == nil {
		return
	}

	s.log.Error("birthday service operation failed",
		slog.String("operation", operation),
		slog.Int64("chat_id", chatID),
		slog.Any("error", err),
	)
}
