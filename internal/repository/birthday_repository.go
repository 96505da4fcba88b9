// Package repository implements SQL-backed storage for birthday records.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ivklv/birthday-bot/internal/domain"
)

// ErrNotFound is returned when a chat has no birthday record.
var ErrNotFound = errors.New("birthday record not found")

// BirthdayRepository defines persistence operations for birthday records.
type BirthdayRepository interface {
	// Get returns the record for the chat or ErrNotFound.
	Get(ctx context.Context, chatID int64) (*domain.BirthdayRecord, error)
	// UpsertFull inserts a complete record or replaces an existing one.
	// The record comes back active in both cases.
	UpsertFull(ctx context.Context, record *domain.BirthdayRecord) error
	// UpdateBirthdate changes the stored birthdate, keeping the rest.
	UpdateBirthdate(ctx context.Context, chatID int64, birthdate time.Time) error
	// UpdateHour changes the reminder hour, keeping the rest.
	UpdateHour(ctx context.Context, chatID int64, hour int) error
	// SetActive toggles reminder delivery for the chat.
	SetActive(ctx context.Context, chatID int64, active bool) error
	// ListActiveByHour returns every active record with the given reminder hour.
	ListActiveByHour(ctx context.Context, hour int) ([]*domain.BirthdayRecord, error)
}

type birthdayRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewBirthdayRepository creates a new SQL-backed birthday repository.
func NewBirthdayRepository(db *sql.DB, log *slog.Logger) BirthdayRepository {
	return &birthdayRepository{
		db:  db,
		log: log,
	}
}

func (r *birthdayRepository) Get(ctx context.Context, chatID int64) (*domain.BirthdayRecord, error) {
	const query = `
		SELECT chat_id, birthdate, remind_hour, active, created_at, updated_at
		FROM birthdays
		WHERE chat_id = $1
	`

	row := r.db.QueryRowContext(ctx, query, chatID)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		if r.log != nil {
			r.log.Error("failed to fetch birthday record", slog.Int64("chat_id", chatID), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select birthday record: %w", err)
	}

	return record, nil
}

func (r *birthdayRepository) UpsertFull(ctx context.Context, record *domain.BirthdayRecord) error {
	const query = `
		INSERT INTO birthdays (chat_id, birthdate, remind_hour, active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, NOW(), NOW())
		ON CONFLICT (chat_id) DO UPDATE
		SET birthdate = EXCLUDED.birthdate,
		    remind_hour = EXCLUDED.remind_hour,
		    active = TRUE,
		    updated_at = NOW()
	`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		record.ChatID,
		record.Birthdate,
		record.RemindHour,
	); err != nil {
		if r.log != nil {
			r.log.Error("failed to upsert birthday record", slog.Int64("chat_id", record.ChatID), slog.Any("error", err))
		}
		return fmt.Errorf("upsert birthday record: %w", err)
	}

	return nil
}

func (r *birthdayRepository) UpdateBirthdate(ctx context.Context, chatID int64, birthdate time.Time) error {
	const query = `
		UPDATE birthdays
		SET birthdate = $2, updated_at = NOW()
		WHERE chat_id = $1
	`

	return r.execTargeted(ctx, query, "update birthdate", chatID, birthdate)
}

func (r *birthdayRepository) UpdateHour(ctx context.Context, chatID int64, hour int) error {
	const query = `
		UPDATE birthdays
		SET remind_hour = $2, updated_at = NOW()
		WHERE chat_id = $1
	`

	return r.execTargeted(ctx, query, "update reminder hour", chatID, hour)
}

func (r *birthdayRepository) SetActive(ctx context.Context, chatID int64, active bool) error {
	const query = `
		UPDATE birthdays
		SET active = $2, updated_at = NOW()
		WHERE chat_id = $1
	`

	return r.execTargeted(ctx, query, "set active flag", chatID, active)
}

func (r *birthdayRepository) ListActiveByHour(ctx context.Context, hour int) ([]*domain.BirthdayRecord, error) {
	const query = `
		SELECT chat_id, birthdate, remind_hour, active, created_at, updated_at
		FROM birthdays
		WHERE active = TRUE AND remind_hour = $1
		ORDER BY chat_id
	`

	rows, err := r.db.QueryContext(ctx, query, hour)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to list active records", slog.Int("hour", hour), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select active records by hour: %w", err)
	}
	defer rows.Close()

	var records []*domain.BirthdayRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan birthday record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate birthday records: %w", err)
	}

	return records, nil
}

// execTargeted runs a single-row statement and maps the zero-rows case to
// ErrNotFound.
func (r *birthdayRepository) execTargeted(ctx context.Context, query, op string, chatID int64, arg interface{}) error {
	result, err := r.db.ExecContext(ctx, query, chatID, arg)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to "+op, slog.Int64("chat_id", chatID), slog.Any("error", err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*domain.BirthdayRecord, error) {
	var record domain.BirthdayRecord
	if err := row.Scan(
		&record.ChatID,
		&record.Birthdate,
		&record.RemindHour,
		&record.Active,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &record, nil
}
