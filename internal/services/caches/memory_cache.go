package caches

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"camio-service/internal/services/cache"
)

// MemoryCache keeps previews in process memory with LRU eviction and a
// TTL checked on read.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*memoryEntry
	maxSize int64
	size    int64
	ttl     time.Duration
	now     func() time.Time

	// Statistics
	hits   atomic.Int64
	misses atomic.Int64
}

type memoryEntry struct {
	data       []byte
	createdAt  time.Time
	lastAccess time.Time
}

func NewMemoryCache(maxSizeBytes int64, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[uuid.UUID]*memoryEntry),
		maxSize: maxSizeBytes,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (mc *MemoryCache) Name() string {
	return "MEMORY"
}

func (mc *MemoryCache) Store(key uuid.UUID, data []byte) error {
	size := int64(len(data))
	if size > mc.maxSize {
		return fmt.Errorf("preview of %d bytes exceeds memory cache size %d", size, mc.maxSize)
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.removeLocked(key)
	for mc.size+size > mc.maxSize {
		if !mc.evictLRULocked() {
			return fmt.Errorf("unable to free space for preview of size %d", size)
		}
	}

	now := mc.now()
	mc.entries[key] = &memoryEntry{data: data, createdAt: now, lastAccess: now}
	mc.size += size
	log.Printf("Memory cache: stored preview %s (%d bytes)", key, size)
	return nil
}

func (mc *MemoryCache) Get(key uuid.UUID) ([]byte, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	e, ok := mc.entries[key]
	if ok && mc.expired(e) {
		mc.removeLocked(key)
		ok = false
	}
	if !ok {
		mc.misses.Add(1)
		return nil, cache.ErrMiss
	}
	e.lastAccess = mc.now()
	mc.hits.Add(1)
	return e.data, nil
}

func (mc *MemoryCache) Exists(key uuid.UUID) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	e, ok := mc.entries[key]
	return ok && !mc.expired(e), nil
}

func (mc *MemoryCache) Delete(key uuid.UUID) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.removeLocked(key)
	return nil
}

func (mc *MemoryCache) Clear() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.entries = make(map[uuid.UUID]*memoryEntry)
	mc.size = 0
	mc.hits.Store(0)
	mc.misses.Store(0)
	log.Printf("Memory cache: cleared all previews")
	return nil
}

func (mc *MemoryCache) GetStats() cache.LayerStats {
	mc.mu.Lock()
	objects, size := len(mc.entries), mc.size
	mc.mu.Unlock()

	hits, misses := mc.hits.Load(), mc.misses.Load()
	return cache.LayerStats{
		Name:      "Memory",
		Objects:   objects,
		SizeBytes: size,
		Hits:      hits,
		Misses:    misses,
		HitRate:   cache.HitRate(hits, misses),
	}
}

// PurgeExpired drops every entry older than the TTL and returns how many
// were removed.
func (mc *MemoryCache) PurgeExpired() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	n := 0
	for key, e := range mc.entries {
		if mc.expired(e) {
			mc.removeLocked(key)
			n++
		}
	}
	if n > 0 {
		log.Printf("Memory cache: cleaned up %d expired previews", n)
	}
	return n
}

// expired reports whether e outlived the TTL. A zero TTL never expires.
func (mc *MemoryCache) expired(e *memoryEntry) bool {
	return mc.ttl > 0 && mc.now().Sub(e.createdAt) > mc.ttl
}

func (mc *MemoryCache) removeLocked(key uuid.UUID) {
	if e, ok := mc.entries[key]; ok {
		mc.size -= int64(len(e.data))
		delete(mc.entries, key)
	}
}

func (mc *MemoryCache) evictLRULocked() bool {
	var oldestKey uuid.UUID
	var oldest *memoryEntry
	for key, e := range mc.entries {
		if oldest == nil || e.lastAccess.Before(oldest.lastAccess) {
			oldestKey, oldest = key, e
		}
	}
	if oldest == nil {
		return false
	}
	mc.removeLocked(oldestKey)
	return true
}
