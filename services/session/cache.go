package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"experiencebylocals/models"

	"github.com/go-redis/redis/v8"
)

const userKeyPrefix = "session:user:"

// RedisCache stores session users as JSON in Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a cache on client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*models.User, bool, error) {
	data, err := c.client.Get(ctx, userKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("RedisCache: failed to get session user: %w", err)
	}
	var u models.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, false, fmt.Errorf("RedisCache: failed to unmarshal session user: %w", err)
	}
	return &u, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, user *models.User, ttl time.Duration) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("RedisCache: failed to marshal session user: %w", err)
	}
	if err := c.client.Set(ctx, userKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("RedisCache: failed to set session user: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, userKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("RedisCache: failed to delete session user: %w", err)
	}
	return nil
}
