package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/button-commands/pkg/button"
	"github.com/redis/go-redis/v9"
)

// DataKey is the Redis key holding the registry document.
const DataKey = "button-commands:data"

// RedisStorage keeps the registry document under a single Redis key.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
	key    string
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance. redisURL may be a
// redis:// URL or a bare host:port.
func NewRedisStorage(redisURL string, logger *slog.Logger) (*RedisStorage, error) {
	opt, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisStorage{
		client: redis.NewClient(opt),
		logger: logger,
		key:    DataKey,
	}, nil
}

func parseRedisURL(redisURL string) (*redis.Options, error) {
	if redisURL == "" {
		return nil, errors.New("redis URL is empty")
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		// Accept plain host:port as the other services do.
		return &redis.Options{Addr: redisURL}, nil
	}
	return opt, nil
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Registry document operations

func (r *RedisStorage) Load(ctx context.Context) (*button.StoredData, error) {
	raw, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Info("Registry document not found in redis, starting empty", "key", r.key)
			return nil, nil
		}
		r.logger.Error("Failed to load registry document", "key", r.key, "error", err)
		return nil, fmt.Errorf("failed to load registry document: %w", err)
	}

	var data button.StoredData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		r.logger.Error("Failed to unmarshal registry document", "key", r.key, "error", err)
		return nil, fmt.Errorf("failed to unmarshal registry document: %w", err)
	}
	return &data, nil
}

func (r *RedisStorage) Save(ctx context.Context, data *button.StoredData) error {
	if data == nil {
		return errors.New("stored data cannot be nil")
	}

	raw, err := json.Marshal(data)
	if err != nil {
		r.logger.Error("Failed to marshal registry document", "error", err)
		return fmt.Errorf("failed to marshal registry document: %w", err)
	}

	// No expiration: the registry lives until an operator removes it.
	if err := r.client.Set(ctx, r.key, string(raw), 0).Err(); err != nil {
		r.logger.Error("Failed to save registry document", "key", r.key, "error", err)
		return fmt.Errorf("failed to save registry document: %w", err)
	}
	return nil
}
