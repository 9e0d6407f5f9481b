package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"ezrelo/internal/common/logger"
)

const maxUpdateAttempts = 5

// RedisStore keeps user state in Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger logger.Logger
}

func NewRedisStore(client *redis.Client, prefix string, log logger.Logger) *RedisStore {
	if prefix == "" {
		prefix = "ezrelo"
	}
	return &RedisStore{client: client, prefix: prefix, logger: log}
}

func (s *RedisStore) key(userID, key string) string {
	return namespaced(s.prefix, userID, key)
}

func (s *RedisStore) GetString(ctx context.Context, userID, key string) (string, error) {
	val, err := s.client.Get(ctx, s.key(userID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

func (s *RedisStore) SetString(ctx context.Context, userID, key, value string) error {
	if err := s.client.Set(ctx, s.key(userID, key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) GetJSON(ctx context.Context, userID, key string, v interface{}) (bool, error) {
	raw, err := s.GetString(ctx, userID, key)
	if err != nil {
		return false, err
	}
	if raw == "" {
		return false, nil
	}
	if err := decodeJSON(raw, v); err != nil {
		s.logger.Debug("ignoring corrupt stored value", map[string]interface{}{
			"key":   key,
			"error": err,
		})
		return false, nil
	}
	return true, nil
}

func (s *RedisStore) SetJSON(ctx context.Context, userID, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.key(userID, key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(userID, k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Update runs fn inside WATCH/MULTI and retries when another writer touched
// the key first.
func (s *RedisStore) Update(ctx context.Context, userID, key string, fn func(current string) (string, error)) error {
	return s.UpdateMany(ctx, userID, []string{key}, func(current []string) ([]string, error) {
		next, err := fn(current[0])
		if err != nil {
			return nil, err
		}
		return []string{next}, nil
	})
}

// UpdateMany watches every key, so the values are read and written as one
// transaction.
func (s *RedisStore) UpdateMany(ctx context.Context, userID string, keys []string, fn func(current []string) ([]string, error)) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(userID, k)
	}
	name := strings.Join(keys, ",")

	txf := func(tx *redis.Tx) error {
		raw, err := tx.MGet(ctx, full...).Result()
		if err != nil {
			return err
		}
		current := make([]string, len(full))
		for i, v := range raw {
			if str, ok := v.(string); ok {
				current[i] = str
			}
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		if len(next) != len(full) {
			return ErrValueCount
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, k := range full {
				pipe.Set(ctx, k, next[i], 0)
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, full...)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrValueCount) {
			return err
		}
		return fmt.Errorf("redis update %s: %w", name, err)
	}
	return fmt.Errorf("redis update %s: %w", name, ErrConflict)
}

func (s *RedisStore) Incr(ctx context.Context, userID, key string) (int64, error) {
	n, err := s.client.Incr(ctx, s.key(userID, key)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return n, nil
}
