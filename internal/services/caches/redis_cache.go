package caches

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"camio-service/internal/services/cache"
	"camio-service/internal/storage"
)

const redisKeyPrefix = "camio:preview:"

// RedisCache shares previews between service instances. Expiry is left to
// Redis.
type RedisCache struct {
	client *storage.RedisClient
	ttl    time.Duration

	// Statistics
	hits   atomic.Int64
	misses atomic.Int64
}

func NewRedisCache(client *storage.RedisClient, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

func redisKey(key uuid.UUID) string {
	return redisKeyPrefix + key.String()
}

func (rc *RedisCache) Name() string {
	return "REDIS"
}

func (rc *RedisCache) Store(key uuid.UUID, data []byte) error {
	if err := rc.client.SetBytes(redisKey(key), data, rc.ttl); err != nil {
		return fmt.Errorf("failed to store in Redis: %w", err)
	}
	log.Printf("Redis cache: stored preview %s (%d bytes)", key, len(data))
	return nil
}

func (rc *RedisCache) Get(key uuid.UUID) ([]byte, error) {
	data, err := rc.client.GetBytes(redisKey(key))
	if err != nil {
		rc.misses.Add(1)
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if data == nil {
		rc.misses.Add(1)
		return nil, cache.ErrMiss
	}
	rc.hits.Add(1)
	return data, nil
}

func (rc *RedisCache) Exists(key uuid.UUID) (bool, error) {
	n, err := rc.client.Exists(redisKey(key))
	return n > 0, err
}

func (rc *RedisCache) Delete(key uuid.UUID) error {
	return rc.client.Delete(redisKey(key))
}

func (rc *RedisCache) Clear() error {
	keys, err := rc.client.Keys(redisKeyPrefix + "*")
	if err != nil {
		return err
	}
	if err := rc.client.Delete(keys...); err != nil {
		return err
	}
	rc.hits.Store(0)
	rc.misses.Store(0)
	log.Printf("Redis cache: cleared %d previews", len(keys))
	return nil
}

func (rc *RedisCache) GetStats() cache.LayerStats {
	hits, misses := rc.hits.Load(), rc.misses.Load()
	keys, _ := rc.client.Keys(redisKeyPrefix + "*")

	var size int64
	for _, k := range keys {
		if n, err := rc.client.StrLen(k); err == nil {
			size += n
		}
	}
	return cache.LayerStats{
		Name:      "Redis",
		Objects:   len(keys),
		SizeBytes: size,
		Hits:      hits,
		Misses:    misses,
		HitRate:   cache.HitRate(hits, misses),
	}
}
