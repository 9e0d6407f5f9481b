// Package store is the per-user key-value persistence layer. Every key lives
// under "{prefix}:{userId}:" so many users can share one backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Well-known keys.
const (
	KeyFromLocation     = "aiFromLocation"
	KeyToLocation       = "aiToLocation"
	KeyMoveDate         = "aiMoveDate"
	KeyCompletedTasks   = "completedTasks"
	KeyCompletedTasksAt = "completedTasksAt"
	KeyMovingResults    = "movingCompaniesResults"
	KeyQuotesRequested  = "quotesRequested"
	KeyQuestionnaire    = "ezrelo_questionnaire"
	KeySelectedMover    = "selectedMover"
)

// ErrConflict is returned by Update when concurrent writers kept winning.
var ErrConflict = errors.New("STORE_CONFLICT")

// ErrValueCount is returned when an UpdateMany callback returns the wrong
// number of values.
var ErrValueCount = errors.New("STORE_VALUE_COUNT")

// Store is implemented by RedisStore and MemoryStore.
type Store interface {
	// GetString returns "" when the key is absent.
	GetString(ctx context.Context, userID, key string) (string, error)
	SetString(ctx context.Context, userID, key, value string) error
	// GetJSON decodes the stored value into v. It reports false and leaves v
	// untouched when the key is absent or holds corrupt JSON.
	GetJSON(ctx context.Context, userID, key string, v interface{}) (bool, error)
	// SetJSON encodes v under key. A zero ttl never expires.
	SetJSON(ctx context.Context, userID, key string, v interface{}, ttl time.Duration) error
	Delete(ctx context.Context, userID string, keys ...string) error
	// Update applies fn to the current value atomically with respect to other
	// Update calls on the same key.
	Update(ctx context.Context, userID, key string, fn func(current string) (string, error)) error
	// UpdateMany is Update over several keys written together. fn receives
	// and returns one value per key, in order.
	UpdateMany(ctx context.Context, userID string, keys []string, fn func(current []string) ([]string, error)) error
	// Incr increments an integer counter and returns the new value.
	Incr(ctx context.Context, userID, key string) (int64, error)
}

// MovingCompaniesKey is the cache key for moving company results on a route.
func MovingCompaniesKey(from, to string) string {
	return fmt.Sprintf("movingCompanies_%s_%s", from, to)
}

func UtilitiesKey(to string) string {
	return "utilities_" + to
}

func HousingKey(to string) string {
	return "housing_" + to
}

func LocalServicesKey(to string) string {
	return "localServices_" + to
}

// SequenceKey holds the search sequence counter guarding cacheKey.
func SequenceKey(cacheKey string) string {
	return "seq:" + cacheKey
}

func namespaced(prefix, userID, key string) string {
	if userID == "" {
		userID = "anonymous"
	}
	return strings.Join([]string{prefix, userID, key}, ":")
}

// decodeJSON is the shared lenient decode used by both backends. It decodes
// into a fresh value and copies it into v only on success, so a failed
// decode never leaves v half filled.
func decodeJSON(raw string, v interface{}) error {
	if raw == "" {
		return errors.New("empty value")
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer, got %T", v)
	}
	fresh := reflect.New(rv.Elem().Type())
	if err := json.Unmarshal([]byte(raw), fresh.Interface()); err != nil {
		return err
	}
	rv.Elem().Set(fresh.Elem())
	return nil
}

// GetStringSlice reads a JSON array of strings, returning nil on a miss.
func GetStringSlice(ctx context.Context, s Store, userID, key string) ([]string, error) {
	var out []string
	ok, err := s.GetJSON(ctx, userID, key, &out)
	if err != nil || !ok {
		return nil, err
	}
	return out, nil
}

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
