// Package prefs persists the dashboard's single configuration value, the
// selected project key, under a fixed Redis key.
package prefs

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const projectKeyName = "taskboard:project_key"

// RedisStore holds dashboard preferences in Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(redisURL string) (*RedisStore, error) {
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

	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// ProjectKey returns the saved project key, or empty when none was saved.
func (s *RedisStore) ProjectKey(ctx context.Context) (string, error) {
	value, err := s.client.Get(ctx, projectKeyName).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load project key: %w", err)
	}
	return value, nil
}

// SaveProjectKey persists the project key. No expiry: the value lives until
// replaced.
func (s *RedisStore) SaveProjectKey(ctx context.Context, projectKey string) error {
	if err := s.client.Set(ctx, projectKeyName, projectKey, 0).Err(); err != nil {
		return fmt.Errorf("save project key: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
