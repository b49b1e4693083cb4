// Package counter provides view counters for question pages. Increments are
// best-effort from the caller's perspective: a render never fails because a
// view could not be recorded.
package counter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis counts views with INCR so concurrent increments commute instead of
// losing updates to read-modify-write races.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisWithClient(client), nil
}

func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: "views:"}
}

func (c *Redis) key(questionID string) string {
	return c.prefix + questionID
}

// Increment records one view and returns the new total. An absent key is
// first seeded with base, the caller's stored count, so the total never
// drops below what the database already recorded.
func (c *Redis) Increment(ctx context.Context, questionID string, base int64) (int64, error) {
	key := c.key(questionID)
	if base > 0 {
		if err := c.client.SetNX(ctx, key, base, 0).Err(); err != nil {
			return 0, fmt.Errorf("seed views: %w", err)
		}
	}
	total, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("increment views: %w", err)
	}
	return total, nil
}

// Current returns the recorded view total without incrementing it.
func (c *Redis) Current(ctx context.Context, questionID string) (int64, error) {
	total, err := c.client.Get(ctx, c.key(questionID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read views: %w", err)
	}
	return total, nil
}

func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.client.Close()
}
