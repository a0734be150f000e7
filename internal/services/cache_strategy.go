package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"camio-service/internal/metrics"
	"camio-service/internal/services/cache"
	"camio-service/internal/utils"
)

const (
	SmallPreviewThreshold  = 4 << 20  // 4MB - In-Memory Cache
	MediumPreviewThreshold = 32 << 20 // 32MB - File System Cache
	LargePreviewThreshold  = 64 << 20 // 64MB - Redis Cache
)

// CacheTier is a cache layer together with the largest entry it accepts.
type CacheTier struct {
	Layer         cache.CacheLayer
	MaxObjectSize int64
}

// CacheStrategy looks previews up across layers, fastest first, and stores
// each preview in the fastest layer that accepts its size.
type CacheStrategy struct {
	tiers   []CacheTier
	metrics *utils.Metrics
}

// LayerStatistics is the state of one layer and its size limit.
type LayerStatistics struct {
	cache.LayerStats
	MaxObjectSize int64 `json:"maxObjectSize"`
}

// NewCacheStrategy orders the tiers as given. Tiers with a nil layer are
// skipped.
func NewCacheStrategy(m *utils.Metrics, tiers ...CacheTier) *CacheStrategy {
	cs := &CacheStrategy{metrics: m}
	for _, t := range tiers {
		if t.Layer != nil {
			cs.tiers = append(cs.tiers, t)
		}
	}
	return cs
}

// GetOptimalCache determines which cache layer to use based on size
func (cs *CacheStrategy) GetOptimalCache(size int64) cache.CacheLayer {
	for _, t := range cs.tiers {
		if size <= t.MaxObjectSize {
			return t.Layer
		}
	}
	return nil
}

// Lookup walks the layers in order and returns the first hit. A hit in a
// slower layer is copied into the layer the entry belongs to.
func (cs *CacheStrategy) Lookup(key uuid.UUID, timer *metrics.StageTimer) ([]byte, string, bool) {
	for i, t := range cs.tiers {
		attempt := timer.StartCacheLayerAttempt(t.Layer.Name())
		data, err := t.Layer.Get(key)
		hit := err == nil && data != nil
		timer.EndCacheLayerAttempt(attempt, hit, err)
		if !hit {
			continue
		}

		log.Printf("CACHE HIT: %s layer for preview %s (size: %d)", t.Layer.Name(), key, len(data))
		if cs.metrics != nil {
			cs.metrics.IncrementPreviewHits(t.Layer.Name())
		}
		cs.promote(key, data, i)
		return data, t.Layer.Name(), true
	}

	if cs.metrics != nil {
		cs.metrics.IncrementPreviewMisses()
	}
	return nil, "", false
}

func (cs *CacheStrategy) promote(key uuid.UUID, data []byte, hitIndex int) {
	for i := 0; i < hitIndex; i++ {
		t := cs.tiers[i]
		if int64(len(data)) > t.MaxObjectSize {
			continue
		}
		if err := t.Layer.Store(key, data); err != nil {
			log.Printf("Failed to promote preview %s to %s: %v", key, t.Layer.Name(), err)
		} else {
			log.Printf("Promoted preview %s to %s cache", key, t.Layer.Name())
		}
		return
	}
}

// Store caches data in the optimal layer. Oversized previews are not
// cached.
func (cs *CacheStrategy) Store(key uuid.UUID, data []byte) error {
	layer := cs.GetOptimalCache(int64(len(data)))
	if layer == nil {
		log.Printf("Cache strategy: preview %s too large to cache (%d bytes)", key, len(data))
		return nil
	}
	if err := layer.Store(key, data); err != nil {
		return fmt.Errorf("failed to store in %s cache: %w", layer.Name(), err)
	}
	cs.reportSizes()
	return nil
}

// InvalidateObject removes a key from all layers
func (cs *CacheStrategy) InvalidateObject(key uuid.UUID) error {
	var errs []error
	for _, t := range cs.tiers {
		if err := t.Layer.Delete(key); err != nil {
			errs = append(errs, fmt.Errorf("%s cache: %w", t.Layer.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalidation errors: %v", errs)
	}
	return nil
}

// GetStatistics returns the statistics of every layer in lookup order
func (cs *CacheStrategy) GetStatistics() []LayerStatistics {
	out := make([]LayerStatistics, 0, len(cs.tiers))
	for _, t := range cs.tiers {
		out = append(out, LayerStatistics{LayerStats: t.Layer.GetStats(), MaxObjectSize: t.MaxObjectSize})
	}
	return out
}

// ClearAll clears all cache layers
func (cs *CacheStrategy) ClearAll() error {
	var errs []error
	for _, t := range cs.tiers {
		if err := t.Layer.Clear(); err != nil {
			errs = append(errs, err)
		}
	}
	cs.reportSizes()
	if len(errs) > 0 {
		return fmt.Errorf("clear errors: %v", errs)
	}
	return nil
}

type expirer interface {
	PurgeExpired() int
}

// PurgeExpired drops expired entries from the layers that track expiry
// themselves.
func (cs *CacheStrategy) PurgeExpired() int {
	n := 0
	for _, t := range cs.tiers {
		if e, ok := t.Layer.(expirer); ok {
			n += e.PurgeExpired()
		}
	}
	cs.reportSizes()
	return n
}

// RunJanitor purges expired entries every interval until ctx is done.
func (cs *CacheStrategy) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cs.PurgeExpired()
		}
	}
}

// reportSizes publishes the size of local layers. Redis is left out since
// its stats require a keyspace scan.
func (cs *CacheStrategy) reportSizes() {
	if cs.metrics == nil {
		return
	}
	for _, t := range cs.tiers {
		if _, ok := t.Layer.(expirer); ok {
			cs.metrics.SetPreviewCacheSize(t.Layer.Name(), t.Layer.GetStats().SizeBytes)
		}
	}
}
