package metrics

import (
	"fmt"
	"sync"
	"time"
)

// BatchMetrics tracks a batch of conversions run by the command line tool.
// It is safe for concurrent use.
type BatchMetrics struct {
	mu  sync.Mutex
	now func() time.Time

	StartTime        time.Time `json:"-"`
	TotalLatencyMs   float64   `json:"totalLatencyMs"`
	ScanCount        int       `json:"scanCount"`
	ErrorCount       int       `json:"errorCount"`
	TotalSize        int64     `json:"totalSize"`
	Hotspots         int       `json:"hotspots"`
	MaxScanLatencyMs float64   `json:"maxScanLatencyMs"`
}

func NewBatchMetrics() *BatchMetrics {
	return newBatchMetrics(time.Now)
}

func newBatchMetrics(now func() time.Time) *BatchMetrics {
	return &BatchMetrics{now: now, StartTime: now()}
}

// Record adds the outcome of one scan.
func (b *BatchMetrics) Record(size int64, hotspots int, latency time.Duration, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ScanCount++
	if err != nil {
		b.ErrorCount++
		return
	}
	b.TotalSize += size
	b.Hotspots += hotspots
	if l := ms(latency); l > b.MaxScanLatencyMs {
		b.MaxScanLatencyMs = l
	}
}

// Finalize stamps the wall time of the batch.
func (b *BatchMetrics) Finalize() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.TotalLatencyMs = ms(b.now().Sub(b.StartTime))
}

// GetSummary returns a human-readable summary of the batch
func (b *BatchMetrics) GetSummary() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	successRate := 0.0
	if b.ScanCount > 0 {
		successRate = float64(b.ScanCount-b.ErrorCount) / float64(b.ScanCount) * 100
	}
	return fmt.Sprintf(
		"Converted %d scans (%.2f%% success), %d hotspots, Total Size: %.2f MB, Duration: %.2f ms, Slowest: %.2f ms",
		b.ScanCount, successRate, b.Hotspots, float64(b.TotalSize)/(1024*1024), b.TotalLatencyMs, b.MaxScanLatencyMs,
	)
}
