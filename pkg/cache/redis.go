package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/config"
	appErrors "github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/errors"
)

// NewRedis returns a configured Redis client, or nil when no address is set.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// Store keeps JSON encoded values in Redis under a key prefix. A Store with a
// nil client misses on every read and drops every write.
type Store struct {
	client redis.Cmdable
	prefix string
}

// NewStore wraps a Redis client.
func NewStore(client redis.Cmdable, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

// Get decodes the cached value into dest or returns ErrCacheMiss.
func (s *Store) Get(ctx context.Context, name string, dest interface{}) error {
	if s == nil || s.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := s.client.Get(ctx, s.key(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", name, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", name, err)
	}
	return nil
}

// Set encodes and stores value with the given TTL.
func (s *Store) Set(ctx context.Context, name string, value interface{}, ttl time.Duration) error {
	if s == nil || s.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", name, err)
	}
	if err := s.client.Set(ctx, s.key(name), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", name, err)
	}
	return nil
}

// Delete removes the named keys.
func (s *Store) Delete(ctx context.Context, names ...string) error {
	if s == nil || s.client == nil || len(names) == 0 {
		return nil
	}
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = s.key(name)
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}
