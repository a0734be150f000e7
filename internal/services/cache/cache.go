package cache

import (
	"errors"

	"github.com/google/uuid"
)

// ErrMiss is returned by Get when a layer does not hold the key.
var ErrMiss = errors.New("cache miss")

// CacheLayer is one tier of the preview cache. Keys are content
// addressed, so an entry is never updated in place.
type CacheLayer interface {
	Name() string
	Store(key uuid.UUID, data []byte) error
	Get(key uuid.UUID) ([]byte, error)
	Exists(key uuid.UUID) (bool, error)
	Delete(key uuid.UUID) error
	Clear() error
	GetStats() LayerStats
}

type LayerStats struct {
	Name      string  `json:"name"`
	Objects   int     `json:"objects"`
	SizeBytes int64   `json:"sizeBytes"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hitRate"`
}

// HitRate returns hits as a percentage of all lookups.
func HitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}
