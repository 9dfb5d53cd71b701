package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the part of redis.Cmdable the store uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis keeps values in redis so that several BFF instances share sessions.
type Redis struct {
	rdb    RedisClient
	prefix string
}

func NewRedis(rdb RedisClient, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

// NewRedisClient opens a client the same way for every caller.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (s *Redis) Get(ctx context.Context, name string) (string, error) {
	v, err := s.rdb.Get(ctx, s.prefix+name).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %q: %w", name, err)
	}
	return v, nil
}

func (s *Redis) Set(ctx context.Context, name, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.rdb.Set(ctx, s.prefix+name, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", name, err)
	}
	return nil
}

func (s *Redis) Delete(ctx context.Context, name string) error {
	if err := s.rdb.Del(ctx, s.prefix+name).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", name, err)
	}
	return nil
}
