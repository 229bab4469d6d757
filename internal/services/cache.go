package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrCacheMiss is returned by Get when the key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// cacheKeyPattern matches every key written by the search facade
const cacheKeyPattern = "fssp:*"

// CacheService stores serialized search results in Redis.
// When Redis is disabled or failing, entries live in process memory.
type CacheService struct {
	redis  *redis.Client
	memory *memoryStore
	ttl    time.Duration
	logger *logrus.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCacheService creates a new cache service. client may be nil.
func NewCacheService(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *CacheService {
	return &CacheService{
		redis:  client,
		memory: newMemoryStore(),
		ttl:    ttl,
		logger: logger,
	}
}

// Get retrieves a value from cache
func (c *CacheService) Get(ctx context.Context, key string) (string, error) {
	log := c.logger.WithField("key", key)

	if c.redis != nil {
		val, err := c.redis.Get(ctx, key).Result()
		switch {
		case err == nil:
			c.hits.Add(1)
			log.Debug("Cache hit (redis)")
			return val, nil
		case !errors.Is(err, redis.Nil):
			log.WithError(err).Warn("Redis read failed, trying memory")
		}
	}

	val, ok := c.memory.get(key, time.Now())
	if !ok {
		c.misses.Add(1)
		return "", ErrCacheMiss
	}

	c.hits.Add(1)
	log.Debug("Cache hit (memory)")
	return val, nil
}

// Set stores a value in cache with TTL
func (c *CacheService) Set(ctx context.Context, key string, value string) error {
	if c.redis != nil {
		err := c.redis.Set(ctx, key, value, c.ttl).Err()
		if err == nil {
			return nil
		}
		c.logger.WithField("key", key).WithError(err).Warn("Redis write failed, storing in memory")
	}

	c.memory.set(key, value, time.Now().Add(c.ttl))
	return nil
}

// Delete removes a value from cache
func (c *CacheService) Delete(ctx context.Context, key string) error {
	if c.redis != nil {
		if err := c.redis.Del(ctx, key).Err(); err != nil {
			c.logger.WithField("key", key).WithError(err).Warn("Redis delete failed")
		}
	}
	c.memory.delete(key)
	return nil
}

// Clear removes every search result. Other keys in the Redis database are left alone.
func (c *CacheService) Clear(ctx context.Context) error {
	var removed int64
	if c.redis != nil {
		n, err := c.clearRedis(ctx)
		if err != nil {
			return err
		}
		removed = n
	}

	removed += int64(c.memory.reset())
	c.logger.WithField("removed", removed).Info("Cache cleared")
	return nil
}

func (c *CacheService) clearRedis(ctx context.Context) (int64, error) {
	var removed int64
	iter := c.redis.Scan(ctx, 0, cacheKeyPattern, 100).Iterator()

	batch := make([]string, 0, 100)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.redis.Del(ctx, batch...).Result()
		removed += n
		batch = batch[:0]
		return err
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	return removed, flush()
}

// GetStats returns cache statistics
func (c *CacheService) GetStats(ctx context.Context) (map[string]interface{}, error) {
	redisStats := map[string]interface{}{"available": false}
	if c.redis != nil {
		if size, err := c.redis.DBSize(ctx).Result(); err != nil {
			redisStats["error"] = err.Error()
		} else {
			redisStats["available"] = true
			redisStats["keys"] = size
		}
	}

	return map[string]interface{}{
		"hits":   c.hits.Load(),
		"misses": c.misses.Load(),
		"ttl":    c.ttl.String(),
		"redis":  redisStats,
		"memory": map[string]interface{}{"size": c.memory.len()},
	}, nil
}

// Health returns cache service health status
func (c *CacheService) Health() map[string]interface{} {
	if c.redis == nil {
		return map[string]interface{}{"status": "healthy", "redis": "disabled"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.redis.Ping(ctx).Err(); err != nil {
		return map[string]interface{}{
			"status": "degraded",
			"redis":  "unhealthy",
			"error":  err.Error(),
		}
	}
	return map[string]interface{}{"status": "healthy", "redis": "healthy"}
}

func (c *CacheService) cleanupExpired() {
	if n := c.memory.sweep(time.Now()); n > 0 {
		c.logger.WithField("expired", n).Debug("Dropped expired cache entries")
	}
}

// StartCleanupRoutine periodically drops expired memory entries until ctx is done
func (c *CacheService) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.cleanupExpired()
			}
		}
	}()
}

type cacheItem struct {
	value     string
	expiresAt time.Time
}

// memoryStore is a TTL map guarded by a mutex
type memoryStore struct {
	mu    sync.RWMutex
	items map[string]cacheItem
}

func newMemoryStore() *memoryStore {
	return &memoryStore{items: make(map[string]cacheItem)}
}

func (m *memoryStore) get(key string, now time.Time) (string, bool) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()

	if !ok {
		return "", false
	}
	if now.After(item.expiresAt) {
		m.delete(key)
		return "", false
	}
	return item.value, true
}

func (m *memoryStore) set(key, value string, expiresAt time.Time) {
	m.mu.Lock()
	m.items[key] = cacheItem{value: value, expiresAt: expiresAt}
	m.mu.Unlock()
}

func (m *memoryStore) delete(key string) {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
}

func (m *memoryStore) reset() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.items)
	m.items = make(map[string]cacheItem)
	return n
}

func (m *memoryStore) sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, item := range m.items {
		if now.After(item.expiresAt) {
			delete(m.items, key)
			removed++
		}
	}
	return removed
}

func (m *memoryStore) len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
