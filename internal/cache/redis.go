package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bdo-market/internal/apperrors"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps records as hashes and scalars as strings.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects and pings; an unreachable server is an error rather
// than a store that silently drops writes.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client without pinging it.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) GetRecord(ctx context.Context, key string) (map[string]string, error) {
	rec, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HGETALL %s: %w", key, err)
	}
	// HGETALL on a missing key returns an empty hash
	if len(rec) == 0 {
		return nil, apperrors.NewNotFoundError("cache.GetRecord", "no record for "+key, nil)
	}
	return rec, nil
}

// SetRecord replaces the hash at key and sets its expiry atomically.
func (s *RedisStore) SetRecord(ctx context.Context, key string, record map[string]string, ttl time.Duration) error {
	values := make(map[string]any, len(record))
	for k, v := range record {
		values[k] = v
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, values)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis HSET %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) GetScalar(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", apperrors.NewNotFoundError("cache.GetScalar", "no value for "+key, nil)
	}
	if err != nil {
		return "", fmt.Errorf("redis GET %s: %w", key, err)
	}
	return val, nil
}

func (s *RedisStore) SetScalar(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
