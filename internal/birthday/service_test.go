package birthday

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ivklv/birthday-bot/internal/domain"
	apperrors "github.com/ivklv/birthday-bot/internal/errors"
	"github.com/ivklv/birthday-bot/internal/repository"
)

var errRepoFailure = errors.New("repository error")

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Get(ctx context.Context, chatID int64) (*domain.BirthdayRecord, error) {
	args := m.Called(ctx, chatID)
	record, _ := args.Get(0).(*domain.BirthdayRecord)
	return record, args.Error(1)
}

func (m *mockRepository) UpsertFull(ctx context.Context, record *domain.BirthdayRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockRepository) UpdateBirthdate(ctx context.Context, chatID int64, birthdate time.Time) error {
	args := m.Called(ctx, chatID, birthdate)
	return args.Error(0)
}

func (m *mockRepository) UpdateHour(ctx context.Context, chatID int64, hour int) error {
	args := m.Called(ctx, chatID, hour)
	return args.Error(0)
}

func (m *mockRepository) SetActive(ctx context.Context, chatID int64, active bool) error {
	args := m.Called(ctx, chatID, active)
	return args.Error(0)
}

func (m *mockRepository) ListActiveByHour(ctx context.Context, hour int) ([]*domain.BirthdayRecord, error) {
	args := m.Called(ctx, hour)
	records, _ := args.Get(0).([]*domain.BirthdayRecord)
	return records, args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_Complete(t *testing.T) {
	ctx := context.Background()
	chatID := int64(42)
	birthdate := time.Date(1990, time.July, 15, 0, 0, 0, 0, time.UTC)

	repo := &mockRepository{}
	repo.On("UpsertFull", mock.Anything, mock.MatchedBy(func(record *domain.BirthdayRecord) bool {
		return record.ChatID == chatID &&
			record.Birthdate.Equal(birthdate) &&
			record.RemindHour == 9 &&
			record.Active
	})).Return(nil).Once()

	svc := NewService(repo, nil, testLogger())

	record, err := svc.Complete(ctx, chatID, birthdate, 9)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !record.Active {
		t.Error("expected completed record to be active")
	}

	repo.AssertExpectations(t)
}

func TestService_Complete_RepoFailure(t *testing.T) {
	ctx := context.Background()

	repo := &mockRepository{}
	repo.On("UpsertFull", mock.Anything, mock.Anything).Return(errRepoFailure).Once()

	svc := NewService(repo, nil, testLogger())

	if _, err := svc.Complete(ctx, 1, time.Now(), 8); !errors.Is(err, errRepoFailure) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}

	repo.AssertExpectations(t)
}

func TestService_Complete_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	repo := &mockRepository{}
	svc := NewService(repo, nil, testLogger())

	var appErr *apperrors.AppError

	if _, err := svc.Complete(ctx, 1, time.Time{}, 9); !errors.As(err, &appErr) || appErr.Code != "E100" {
		t.Fatalf("expected validation error for zero birthdate, got %v", err)
	}
	if _, err := svc.Complete(ctx, 1, time.Now(), 24); !errors.As(err, &appErr) || appErr.Code != "E100" {
		t.Fatalf("expected validation error for hour 24, got %v", err)
	}

	repo.AssertNotCalled(t, "UpsertFull", mock.Anything, mock.Anything)
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	chatID := int64(7)

	testCases := []struct {
		name       string
		setupMocks func(repo *mockRepository)
		expectErr  error
	}{
		{
			name: "record found",
			setupMocks: func(repo *mockRepository) {
				repo.On("Get", mock.Anything, chatID).
					Return(&domain.BirthdayRecord{ChatID: chatID, RemindHour: 10, Active: true}, nil).Once()
			},
		},
		{
			name: "record missing",
			setupMocks: func(repo *mockRepository) {
				repo.On("Get", mock.Anything, chatID).
					Return((*domain.BirthdayRecord)(nil), repository.ErrNotFound).Once()
			},
			expectErr: ErrNoRecord,
		},
		{
			name: "repository failure",
			setupMocks: func(repo *mockRepository) {
				repo.On("Get", mock.Anything, chatID).
					Return((*domain.BirthdayRecord)(nil), errRepoFailure).Once()
			},
			expectErr: errRepoFailure,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockRepository{}
			tc.setupMocks(repo)

			svc := NewService(repo, nil, testLogger())
			record, err := svc.Get(ctx, chatID)

			if tc.expectErr != nil {
				if !errors.Is(err, tc.expectErr) {
					t.Fatalf("expected error %v, got %v", tc.expectErr, err)
				}
			} else {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if record == nil || record.ChatID != chatID {
					t.Fatalf("unexpected record: %+v", record)
				}
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestService_ChangeHour(t *testing.T) {
	ctx := context.Background()
	chatID := int64(11)

	testCases := []struct {
		name       string
		setupMocks func(repo *mockRepository)
		expectErr  error
	}{
		{
			name: "hour updated",
			setupMocks: func(repo *mockRepository) {
				repo.On("UpdateHour", mock.Anything, chatID, 18).Return(nil).Once()
			},
		},
		{
			name: "no record to update",
			setupMocks: func(repo *mockRepository) {
				repo.On("UpdateHour", mock.Anything, chatID, 18).
					Return(repository.ErrNotFound).Once()
			},
			expectErr: ErrNoRecord,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockRepository{}
			tc.setupMocks(repo)

			svc := NewService(repo, nil, testLogger())
			err := svc.ChangeHour(ctx, chatID, 18)

			if tc.expectErr != nil {
				if !errors.Is(err, tc.expectErr) {
					t.Fatalf("expected error %v, got %v", tc.expectErr, err)
				}
			} else if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestService_DeactivateReactivate(t *testing.T) {
	ctx := context.Background()
	chatID := int64(5)

	repo := &mockRepository{}
	repo.On("SetActive", mock.Anything, chatID, false).Return(nil).Once()
	repo.On("SetActive", mock.Anything, chatID, true).Return(nil).Once()

	svc := NewService(repo, nil, testLogger())

	if err := svc.Deactivate(ctx, chatID); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if err := svc.Reactivate(ctx, chatID); err != nil {
		t.Fatalf("reactivate failed: %v", err)
	}

	repo.AssertExpectations(t)
}
