package credstore

import (
	"context"
	"errors"

	apperrors "github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/redis/go-redis/v9"
)

var _ Storage = (*RedisStorage)(nil)

// RedisStorage keeps keys under "storefront:<installation id>:"
type RedisStorage struct {
	client *redis.Client
	prefix string
}

func NewRedisStorage(client *redis.Client, installationID string) *RedisStorage {
	return &RedisStorage{
		client: client,
		prefix: "storefront:" + installationID + ":",
	}
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.Wrapf(apperrors.ErrStorage, "redis get %s: %v", key, err)
	}
	return v, true, nil
}

func (s *RedisStorage) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "redis set %s: %v", key, err)
	}
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return apperrors.Wrapf(apperrors.ErrStorage, "redis del: %v", err)
	}
	return nil
}
