package cache

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryItem stores cached value with expiration.
type MemoryItem struct {
	Value    any
	ExpireAt time.Time
}

// IsExpired checks if item has expired at now. A zero ExpireAt never expires.
func (m *MemoryItem) IsExpired(now time.Time) bool {
	return !m.ExpireAt.IsZero() && !now.Before(m.ExpireAt)
}

// MemoryCache implements Store using a single mutex-guarded map.
// Expiry is enforced on read; the optional sweeper only reclaims memory.
type MemoryCache struct {
	mutex   sync.Mutex
	data    map[string]*MemoryItem
	access  map[string]time.Time
	maxSize int
	now     func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         10000,
		CleanupInterval: time.Minute,
		Clock:           time.Now,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		data:    make(map[string]*MemoryItem),
		access:  make(map[string]time.Time),
		maxSize: cfg.MaxSize,
		now:     cfg.Clock,
		stop:    make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		go mc.cleanupExpired(cfg.CleanupInterval)
	}
	return mc
}

func (mc *MemoryCache) Set(key string, value any, ttl time.Duration) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	now := mc.now()
	if _, exists := mc.data[key]; !exists && mc.maxSize > 0 && len(mc.data) >= mc.maxSize {
		mc.evictLocked(now)
	}

	var expireAt time.Time
	if ttl > 0 {
		expireAt = now.Add(ttl)
	}

	mc.data[key] = &MemoryItem{
		Value:    value,
		ExpireAt: expireAt,
	}
	mc.access[key] = now
}

func (mc *MemoryCache) Get(key string) (any, bool) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	now := mc.now()
	item, exists := mc.data[key]
	if !exists {
		return nil, false
	}
	if item.IsExpired(now) {
		mc.removeLocked(key)
		return nil, false
	}

	mc.access[key] = now
	return item.Value, true
}

func (mc *MemoryCache) Delete(keys ...string) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	for _, key := range keys {
		mc.removeLocked(key)
	}
}

// DeleteByPrefix removes every key starting with prefix and returns how many went.
func (mc *MemoryCache) DeleteByPrefix(prefix string) int {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	n := 0
	for key := range mc.data {
		if strings.HasPrefix(key, prefix) {
			mc.removeLocked(key)
			n++
		}
	}
	return n
}

func (mc *MemoryCache) Clear() {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	mc.data = make(map[string]*MemoryItem)
	mc.access = make(map[string]time.Time)
}

// Stats lists live keys in sorted order. Expired entries are dropped on the way.
func (mc *MemoryCache) Stats() Stats {
	return mc.StatsWithPrefix("")
}

// StatsWithPrefix is Stats restricted to keys starting with prefix.
func (mc *MemoryCache) StatsWithPrefix(prefix string) Stats {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	now := mc.now()
	keys := make([]string, 0, len(mc.data))
	for key, item := range mc.data {
		if item.IsExpired(now) {
			mc.removeLocked(key)
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return Stats{Size: len(keys), Keys: keys}
}

func (mc *MemoryCache) removeLocked(key string) {
	delete(mc.data, key)
	delete(mc.access, key)
}

// evictLocked drops expired entries first, then the least recently used one.
func (mc *MemoryCache) evictLocked(now time.Time) {
	if mc.purgeLocked(now) > 0 {
		return
	}

	var oldestKey string
	var oldestTime time.Time
	for key, accessTime := range mc.access {
		if oldestKey == "" || accessTime.Before(oldestTime) {
			oldestTime = accessTime
			oldestKey = key
		}
	}

	if oldestKey != "" {
		mc.removeLocked(oldestKey)
	}
}

func (mc *MemoryCache) purgeLocked(now time.Time) int {
	n := 0
	for key, item := range mc.data {
		if item.IsExpired(now) {
			mc.removeLocked(key)
			n++
		}
	}
	return n
}

func (mc *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-mc.stop:
			return
		case <-ticker.C:
			mc.mutex.Lock()
			mc.purgeLocked(mc.now())
			mc.mutex.Unlock()
		}
	}
}

// Close stops the cleanup goroutine. The cache stays usable.
func (mc *MemoryCache) Close() error {
	mc.closeOnce.Do(func() { close(mc.stop) })
	return nil
}
