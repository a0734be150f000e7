package metrics

import (
	"fmt"
	"sync"
	"time"
)

// Stage names used in latency headers.
const (
	StageRender  = "Render"
	StageExport  = "Export"
	StagePublish = "Publish"
	StageLedger  = "Ledger"
	StageCache   = "Cache-Store"
)

// StageTimer collects per-stage latencies of one request. A nil
// *StageTimer is valid and records nothing.
type StageTimer struct {
	mu  sync.Mutex
	now func() time.Time

	start   time.Time
	TotalMs float64

	stages []StageMetrics
	layers []LayerMetrics

	CacheHit       bool
	CacheLayerUsed string
	SizeBytes      int64
}

// StageMetrics is the duration of one named stage.
type StageMetrics struct {
	Name      string  `json:"name"`
	LatencyMs float64 `json:"latencyMs"`
}

// LayerMetrics represents metrics for a single cache layer attempt
type LayerMetrics struct {
	LayerName string    `json:"layerName"`
	StartTime time.Time `json:"-"`
	LatencyMs float64   `json:"latencyMs"`
	Hit       bool      `json:"hit"`
	Error     string    `json:"error,omitempty"`
}

// NewStageTimer starts a timer at the current time.
func NewStageTimer() *StageTimer {
	return newStageTimer(time.Now)
}

func newStageTimer(now func() time.Time) *StageTimer {
	return &StageTimer{now: now, start: now()}
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

// Track starts a stage and returns the function that ends it.
func (t *StageTimer) Track(name string) func() {
	if t == nil {
		return func() {}
	}
	begin := t.now()
	return func() {
		elapsed := ms(t.now().Sub(begin))
		t.mu.Lock()
		t.stages = append(t.stages, StageMetrics{Name: name, LatencyMs: elapsed})
		t.mu.Unlock()
	}
}

// StartCacheLayerAttempt starts timing for a cache layer lookup
func (t *StageTimer) StartCacheLayerAttempt(layerName string) *LayerMetrics {
	if t == nil {
		return nil
	}
	return &LayerMetrics{LayerName: layerName, StartTime: t.now()}
}

// EndCacheLayerAttempt ends timing for a cache layer lookup
func (t *StageTimer) EndCacheLayerAttempt(layer *LayerMetrics, hit bool, err error) {
	if t == nil || layer == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	layer.LatencyMs = ms(t.now().Sub(layer.StartTime))
	layer.Hit = hit
	if err != nil && !hit {
		layer.Error = err.Error()
	}
	t.layers = append(t.layers, *layer)
	if hit {
		t.CacheHit = true
		t.CacheLayerUsed = layer.LayerName
	}
}

// SetSize records the size of the response body
func (t *StageTimer) SetSize(size int64) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.SizeBytes = size
	t.mu.Unlock()
}

// Stages returns the completed stages in completion order.
func (t *StageTimer) Stages() []StageMetrics {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]StageMetrics(nil), t.stages...)
}

// Finalize stops the total clock
func (t *StageTimer) Finalize() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.TotalMs = ms(t.now().Sub(t.start))
	t.mu.Unlock()
}

// Headers returns HTTP headers with latency metrics
func (t *StageTimer) Headers() map[string]string {
	headers := make(map[string]string)
	if t == nil {
		return headers
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	headers["X-Latency-Total-Ms"] = formatFloat(t.TotalMs)
	for _, s := range t.stages {
		headers["X-Latency-"+s.Name+"-Ms"] = formatFloat(s.LatencyMs)
	}

	if len(t.layers) > 0 {
		headers["X-Cache-Hit"] = formatBool(t.CacheHit)
		if t.CacheHit {
			headers["X-Cache-Layer-Used"] = t.CacheLayerUsed
		}
	}
	var waterfall float64
	for _, layer := range t.layers {
		headers["X-Latency-Cache-"+layer.LayerName+"-Ms"] = formatFloat(layer.LatencyMs)
		waterfall += layer.LatencyMs
	}
	if waterfall > 0 {
		headers["X-Latency-Cache-Waterfall-Ms"] = formatFloat(waterfall)
	}

	if t.SizeBytes > 0 {
		headers["X-Object-Size-Bytes"] = fmt.Sprintf("%d", t.SizeBytes)
	}
	return headers
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
