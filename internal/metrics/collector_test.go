package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestStageTimerHeaders(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	timer := newStageTimer(clock.now)

	l := timer.StartCacheLayerAttempt("MEMORY")
	clock.advance(2 * time.Millisecond)
	timer.EndCacheLayerAttempt(l, false, errors.New("miss"))

	l = timer.StartCacheLayerAttempt("FILESYSTEM")
	clock.advance(3 * time.Millisecond)
	timer.EndCacheLayerAttempt(l, true, nil)

	stop := timer.Track(StageRender)
	clock.advance(40 * time.Millisecond)
	stop()

	timer.SetSize(1234)
	timer.Finalize()

	h := timer.Headers()
	assert.Equal(t, "45.00", h["X-Latency-Total-Ms"])
	assert.Equal(t, "40.00", h["X-Latency-Render-Ms"])
	assert.Equal(t, "true", h["X-Cache-Hit"])
	assert.Equal(t, "FILESYSTEM", h["X-Cache-Layer-Used"])
	assert.Equal(t, "2.00", h["X-Latency-Cache-MEMORY-Ms"])
	assert.Equal(t, "5.00", h["X-Latency-Cache-Waterfall-Ms"])
	assert.Equal(t, "1234", h["X-Object-Size-Bytes"])

	assert.Equal(t, []StageMetrics{{Name: StageRender, LatencyMs: 40}}, timer.Stages())
}

func TestStageTimerWithoutCache(t *testing.T) {
	timer := NewStageTimer()
	timer.Finalize()
	h := timer.Headers()
	assert.Contains(t, h, "X-Latency-Total-Ms")
	assert.NotContains(t, h, "X-Cache-Hit")
}

func TestNilStageTimer(t *testing.T) {
	var timer *StageTimer
	assert.NotPanics(t, func() {
		timer.Track(StageExport)()
		timer.EndCacheLayerAttempt(timer.StartCacheLayerAttempt("MEMORY"), true, nil)
		timer.SetSize(1)
		timer.Finalize()
	})
	assert.Empty(t, timer.Headers())
	assert.Nil(t, timer.Stages())
}

func TestBatchMetricsSummary(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	b := newBatchMetrics(clock.now)

	b.Record(1<<20, 3, 120*time.Millisecond, nil)
	b.Record(1<<20, 5, 80*time.Millisecond, nil)
	b.Record(0, 0, time.Second, errors.New("bad scan"))
	clock.advance(250 * time.Millisecond)
	b.Finalize()

	assert.Equal(t, 3, b.ScanCount)
	assert.Equal(t, 1, b.ErrorCount)
	assert.Equal(t, 8, b.Hotspots)
	assert.Equal(t, 120.0, b.MaxScanLatencyMs)
	assert.Equal(t,
		"Converted 3 scans (66.67% success), 8 hotspots, Total Size: 2.00 MB, Duration: 250.00 ms, Slowest: 120.00 ms",
		b.GetSummary())
}

func TestBatchMetricsEmpty(t *testing.T) {
	b := NewBatchMetrics()
	b.Finalize()
	assert.Contains(t, b.GetSummary(), "Converted 0 scans (0.00% success)")
}
