package caches

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"camio-service/internal/services/cache"
)

const previewExt = ".png"

// FileSystemCache keeps previews as PNG files in a directory. The file
// modification time is the last access time.
type FileSystemCache struct {
	basePath    string
	maxSize     int64
	currentSize atomic.Int64
	ttl         time.Duration
	mu          sync.Mutex
	now         func() time.Time

	// Statistics
	hits   atomic.Int64
	misses atomic.Int64
}

func NewFileSystemCache(basePath string, maxSizeBytes int64, ttl time.Duration) (*FileSystemCache, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	fsc := &FileSystemCache{
		basePath: basePath,
		maxSize:  maxSizeBytes,
		ttl:      ttl,
		now:      time.Now,
	}
	fsc.calculateCurrentSize()
	return fsc, nil
}

func (fsc *FileSystemCache) Name() string {
	return "FILESYSTEM"
}

func (fsc *FileSystemCache) Store(key uuid.UUID, data []byte) error {
	size := int64(len(data))
	if size > fsc.maxSize {
		return fmt.Errorf("preview of %d bytes exceeds file cache size %d", size, fsc.maxSize)
	}

	fsc.mu.Lock()
	defer fsc.mu.Unlock()

	filePath := fsc.getFilePath(key)
	fsc.removeFile(filePath)
	for fsc.currentSize.Load()+size > fsc.maxSize {
		if !fsc.evictOldestFile() {
			return fmt.Errorf("unable to free space for file of size %d", size)
		}
	}

	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	fsc.currentSize.Add(size)
	log.Printf("File cache: stored preview %s (%d bytes) at %s", key, size, filePath)
	return nil
}

func (fsc *FileSystemCache) Get(key uuid.UUID) ([]byte, error) {
	filePath := fsc.getFilePath(key)

	stat, err := os.Stat(filePath)
	if err != nil {
		fsc.misses.Add(1)
		return nil, cache.ErrMiss
	}
	if fsc.now().Sub(stat.ModTime()) > fsc.ttl {
		fsc.Delete(key)
		fsc.misses.Add(1)
		return nil, cache.ErrMiss
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		fsc.misses.Add(1)
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	// Update access time
	now := fsc.now()
	os.Chtimes(filePath, now, now)

	fsc.hits.Add(1)
	return data, nil
}

func (fsc *FileSystemCache) Exists(key uuid.UUID) (bool, error) {
	stat, err := os.Stat(fsc.getFilePath(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return fsc.now().Sub(stat.ModTime()) <= fsc.ttl, nil
}

func (fsc *FileSystemCache) Delete(key uuid.UUID) error {
	fsc.mu.Lock()
	defer fsc.mu.Unlock()
	fsc.removeFile(fsc.getFilePath(key))
	return nil
}

func (fsc *FileSystemCache) Clear() error {
	fsc.mu.Lock()
	defer fsc.mu.Unlock()

	for _, path := range fsc.previewFiles() {
		os.Remove(path)
	}
	fsc.currentSize.Store(0)
	fsc.hits.Store(0)
	fsc.misses.Store(0)
	log.Printf("File cache: cleared all previews")
	return nil
}

func (fsc *FileSystemCache) GetStats() cache.LayerStats {
	hits, misses := fsc.hits.Load(), fsc.misses.Load()
	return cache.LayerStats{
		Name:      "FileSystem",
		Objects:   len(fsc.previewFiles()),
		SizeBytes: fsc.currentSize.Load(),
		Hits:      hits,
		Misses:    misses,
		HitRate:   cache.HitRate(hits, misses),
	}
}

// PurgeExpired removes files older than the TTL and returns how many were
// removed.
func (fsc *FileSystemCache) PurgeExpired() int {
	fsc.mu.Lock()
	defer fsc.mu.Unlock()

	now := fsc.now()
	n := 0
	for _, path := range fsc.previewFiles() {
		if stat, err := os.Stat(path); err == nil && now.Sub(stat.ModTime()) > fsc.ttl {
			if fsc.removeFile(path) {
				n++
			}
		}
	}
	if n > 0 {
		log.Printf("File cache: cleaned up %d expired files", n)
	}
	return n
}

func (fsc *FileSystemCache) getFilePath(key uuid.UUID) string {
	return filepath.Join(fsc.basePath, key.String()+previewExt)
}

func (fsc *FileSystemCache) previewFiles() []string {
	entries, err := os.ReadDir(fsc.basePath)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), previewExt) {
			continue
		}
		if _, err := uuid.Parse(strings.TrimSuffix(e.Name(), previewExt)); err != nil {
			continue
		}
		out = append(out, filepath.Join(fsc.basePath, e.Name()))
	}
	return out
}

func (fsc *FileSystemCache) calculateCurrentSize() {
	var totalSize int64
	for _, path := range fsc.previewFiles() {
		if stat, err := os.Stat(path); err == nil {
			totalSize += stat.Size()
		}
	}
	fsc.currentSize.Store(totalSize)
}

func (fsc *FileSystemCache) removeFile(path string) bool {
	stat, err := os.Stat(path)
	if err != nil {
		return false
	}
	if err := os.Remove(path); err != nil {
		return false
	}
	fsc.currentSize.Add(-stat.Size())
	return true
}

func (fsc *FileSystemCache) evictOldestFile() bool {
	var oldestPath string
	var oldestTime time.Time

	for _, path := range fsc.previewFiles() {
		stat, err := os.Stat(path)
		if err != nil {
			continue
		}
		if oldestPath == "" || stat.ModTime().Before(oldestTime) {
			oldestPath = path
			oldestTime = stat.ModTime()
		}
	}
	if oldestPath == "" {
		return false
	}
	return fsc.removeFile(oldestPath)
}
