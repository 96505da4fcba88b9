// Package idempotency deduplicates Telegram update processing. Long-poll
// restarts and webhook retries can redeliver an update; the manager makes
// sure each one reaches its handler at most once.
package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrRequestInProgress signals that another worker holds the key right now.
var ErrRequestInProgress = errors.New("update with this key is already in progress")

const lockTTL = 5 * time.Minute

// Manager executes an operation at most once per key.
type Manager interface {
	// Execute runs fn unless the key was already completed. A completed key
	// returns (true, nil) without running fn; a failed fn leaves the key
	// unclaimed so a redelivery can retry.
	Execute(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (duplicate bool, err error)
}

type manager struct {
	store Store
	log   *slog.Logger
}

// NewManager builds a Manager over the given store.
func NewManager(store Store, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		store: store,
		log:   log,
	}
}

func (m *manager) Execute(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if fn == nil {
		return false, errors.New("operation fn cannot be nil")
	}

	locked, err := m.store.Lock(ctx, key, lockTTL)
	if err != nil {
		return false, err
	}

	if !locked {
		done, err := m.store.Completed(ctx, key)
		if err != nil {
			return false, err
		}
		if done {
			return true, nil
		}

		// Someone else holds the lock and has not finished yet.
		return false, ErrRequestInProgress
	}

	defer m.store.ReleaseLock(ctx, key)

	done, err := m.store.Completed(ctx, key)
	if err != nil {
		return false, err
	}
	if done {
		return true, nil
	}

	if err := fn(ctx); err != nil {
		return false, err
	}

	if err := m.store.MarkCompleted(ctx, key, ttl); err != nil {
		m.log.Error("failed to mark update completed", slog.String("key", key), slog.Any("error", err))
		return false, err
	}

	return false, nil
}
