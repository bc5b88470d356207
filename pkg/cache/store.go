package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache: key not found")

// Store is a thin string cache over a Redis client.
type Store struct {
	client *redis.Client
}

// NewStore wraps a Redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Get fetches a cached value, translating redis.Nil into ErrMiss.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

// Set stores a value with a TTL.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Del removes keys. Missing keys are not an error.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}
