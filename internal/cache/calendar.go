// Package cache keeps read-mostly calendar views of resources close to the
// API. The database stays authoritative: every calendar write invalidates the
// resource's entries and a miss always falls back to the ledger.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/logger"

	"github.com/redis/go-redis/v9"
)

// CalendarCache stores calendar reads by resource version. Get reports the
// version it looked under; Set must be given that version so blocks read
// before a concurrent invalidation land under the superseded key.
type CalendarCache interface {
	Get(ctx context.Context, resourceID string, r domain.DateRange) (blocks []domain.BlockedInterval, version int64, hit bool, err error)
	Set(ctx context.Context, resourceID string, version int64, r domain.DateRange, blocks []domain.BlockedInterval) error
	Invalidate(ctx context.Context, resourceID string) error
}

// RedisCalendar versions entries per resource. Invalidate bumps the version so
// every cached range of that resource becomes unreachable at once and expires
// on its own TTL.
type RedisCalendar struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCalendar(rdb *redis.Client, ttl time.Duration) *RedisCalendar {
	return &RedisCalendar{rdb: rdb, ttl: ttl}
}

func versionKey(resourceID string) string {
	return fmt.Sprintf("calendar:%s:v", resourceID)
}

func entryKey(resourceID string, version int64, r domain.DateRange) string {
	return fmt.Sprintf("calendar:%s:%d:%s", resourceID, version, r.String())
}

func (c *RedisCalendar) version(ctx context.Context, resourceID string) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey(resourceID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *RedisCalendar) Get(ctx context.Context, resourceID string, r domain.DateRange) ([]domain.BlockedInterval, int64, bool, error) {
	v, err := c.version(ctx, resourceID)
	if err != nil {
		return nil, 0, false, err
	}
	raw, err := c.rdb.Get(ctx, entryKey(resourceID, v, r)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, v, false, nil
	}
	if err != nil {
		return nil, v, false, err
	}
	var blocks []domain.BlockedInterval
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil, v, false, err
	}
	return blocks, v, true, nil
}

func (c *RedisCalendar) Set(ctx context.Context, resourceID string, v int64, r domain.DateRange, blocks []domain.BlockedInterval) error {
	raw, err := json.Marshal(blocks)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, entryKey(resourceID, v, r), raw, c.ttl).Err()
}

func (c *RedisCalendar) Invalidate(ctx context.Context, resourceID string) error {
	if err := c.rdb.Incr(ctx, versionKey(resourceID)).Err(); err != nil {
		logger.Warn("Failed to invalidate calendar cache", "resourceID", resourceID, "error", err)
		return err
	}
	return nil
}

// Noop never hits; used when redis is not configured.
type Noop struct{}

func (Noop) Get(context.Context, string, domain.DateRange) ([]domain.BlockedInterval, int64, bool, error) {
	return nil, 0, false, nil
}

func (Noop) Set(context.Context, string, int64, domain.DateRange, []domain.BlockedInterval) error {
	return nil
}

func (Noop) Invalidate(context.Context, string) error {
	return nil
}
