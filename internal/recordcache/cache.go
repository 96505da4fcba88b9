// Package recordcache provides Redis-backed caching for birthday records.
package recordcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/ivklv/birthday-bot/internal/domain"
)

// Cache holds recently read birthday records so the /today command and
// repeated lookups skip the database. A nil cache is a valid no-op.
type Cache struct {
	client *redis.Client
}

// NewCache constructs a record cache backed by the provided Redis client.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get fetches a cached record if it exists.
func (c *Cache) Get(ctx context.Context, chatID int64) (*domain.BirthdayRecord, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, cacheKey(chatID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached record: %w", err)
	}

	var record domain.BirthdayRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode cached record: %w", err)
	}

	return &record, nil
}

// Set stores the record in cache for the provided TTL.
func (c *Cache) Set(ctx context.Context, chatID int64, record *domain.BirthdayRecord, ttl time.Duration) error {
	if c == nil || c.client == nil || record == nil {
		return nil
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record for cache: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(chatID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("set cached record: %w", err)
	}

	return nil
}

// Invalidate removes the cached entry if it exists.
func (c *Cache) Invalidate(ctx context.Context, chatID int64) error {
	if c == nil || c.client == nil {
		return nil
	}

	if err := c.client.Del(ctx, cacheKey(chatID)).Err(); err != nil {
		return fmt.Errorf("delete cached record: %w", err)
	}

	return nil
}

func cacheKey(chatID int64) string {
	return fmt.Sprintf("birthday:%d", chatID)
}
