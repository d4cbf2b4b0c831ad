package devices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "critalert:device:"

// RedisConfig captures the connection parameters for a Redis-backed registry.
type RedisConfig struct {
	Address  string
	Username string
	Password string
	DB       int
	Timeout  time.Duration
}

// RedisRegistry stores device tokens in Redis so registrations survive process
// restarts and can be shared across replicas.
type RedisRegistry struct {
	client *redis.Client
}

// NewRedisRegistry connects to Redis and verifies the connection so that
// misconfiguration surfaces during startup.
func NewRedisRegistry(cfg RedisConfig) (*RedisRegistry, error) {
	addr := strings.TrimSpace(cfg.Address)
	if addr == "" {
		return nil, errors.New("devices: redis address is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("devices: redis ping: %w", err)
	}

	return &RedisRegistry{client: client}, nil
}

// NewRedisRegistryFromClient wraps an existing client, primarily for tests.
func NewRedisRegistryFromClient(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client}
}

// Close releases the underlying connection pool.
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}

// Register upserts the token for a user.
func (r *RedisRegistry) Register(ctx context.Context, userID, token string) error {
	userID = strings.TrimSpace(userID)
	token = strings.TrimSpace(token)
	if userID == "" {
		return errors.New("devices: user id is required")
	}
	if token == "" {
		return errors.New("devices: token is required")
	}

	if err := r.client.Set(ctx, redisKeyPrefix+userID, token, 0).Err(); err != nil {
		return fmt.Errorf("devices: redis set: %w", err)
	}
	return nil
}

// Unregister removes the token for a user. Absence is not an error.
func (r *RedisRegistry) Unregister(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+strings.TrimSpace(userID)).Err(); err != nil {
		return fmt.Errorf("devices: redis del: %w", err)
	}
	return nil
}

// Token returns the registered token for a user.
func (r *RedisRegistry) Token(ctx context.Context, userID string) (string, bool, error) {
	token, err := r.client.Get(ctx, redisKeyPrefix+strings.TrimSpace(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("devices: redis get: %w", err)
	}
	return token, true, nil
}
