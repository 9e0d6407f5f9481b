package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"ezrelo/internal/common/logger"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is an in-process Store for tests and single-node runs.
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string]memoryEntry
	logger logger.Logger
	now    func() time.Time
}

func NewMemoryStore(log logger.Logger) *MemoryStore {
	return &MemoryStore{
		data:   make(map[string]memoryEntry),
		logger: log,
		now:    time.Now,
	}
}

func (s *MemoryStore) key(userID, key string) string {
	return namespaced("mem", userID, key)
}

// get must be called with mu held.
func (s *MemoryStore) get(full string) string {
	e, ok := s.data[full]
	if !ok {
		return ""
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		delete(s.data, full)
		return ""
	}
	return e.value
}

func (s *MemoryStore) set(full, value string, ttl time.Duration) {
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.data[full] = e
}

func (s *MemoryStore) GetString(_ context.Context, userID, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(s.key(userID, key)), nil
}

func (s *MemoryStore) SetString(_ context.Context, userID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(s.key(userID, key), value, 0)
	return nil
}

func (s *MemoryStore) GetJSON(ctx context.Context, userID, key string, v interface{}) (bool, error) {
	raw, _ := s.GetString(ctx, userID, key)
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

func (s *MemoryStore) SetJSON(_ context.Context, userID, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(s.key(userID, key), string(data), ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, s.key(userID, k))
	}
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, userID, key string, fn func(current string) (string, error)) error {
	return s.UpdateMany(ctx, userID, []string{key}, func(current []string) ([]string, error) {
		next, err := fn(current[0])
		if err != nil {
			return nil, err
		}
		return []string{next}, nil
	})
}

func (s *MemoryStore) UpdateMany(_ context.Context, userID string, keys []string, fn func(current []string) ([]string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := make([]string, len(keys))
	for i, k := range keys {
		current[i] = s.get(s.key(userID, k))
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if len(next) != len(keys) {
		return ErrValueCount
	}
	for i, k := range keys {
		s.set(s.key(userID, k), next[i], 0)
	}
	return nil
}

func (s *MemoryStore) Incr(_ context.Context, userID, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	full := s.key(userID, key)
	var n int64
	if cur := s.get(full); cur != "" {
		parsed, err := strconv.ParseInt(cur, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("incr %s: value is not an integer", key)
		}
		n = parsed
	}
	n++
	s.set(full, strconv.FormatInt(n, 10), 0)
	return n, nil
}
