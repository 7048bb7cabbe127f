package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Stats is a point-in-time view of the live keys in a store.
type Stats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

// Store is a key/value store with per-key expiry.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(keys ...string)
	Clear()
	Stats() Stats
}

// GetJSON reads a value stored by SetJSON and decodes it into a fresh T.
func GetJSON[T any](s Store, key string) (T, error) {
	var out T
	v, ok := s.Get(key)
	if !ok {
		return out, ErrCacheMiss
	}
	b, ok := v.([]byte)
	if !ok {
		return out, fmt.Errorf("cache: unexpected value type %T for %q", v, key)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("cache: decode %q: %w", key, err)
	}
	return out, nil
}

// SetJSON stores the JSON encoding of value so every read gets its own copy.
func SetJSON(s Store, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %q: %w", key, err)
	}
	s.Set(key, b, ttl)
	return nil
}
