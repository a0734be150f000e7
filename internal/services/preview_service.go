package services

import (
	"bytes"
	"context"
	"image/png"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"

	"camio-service/internal/conversion"
	"camio-service/internal/metrics"
	"camio-service/internal/models"
	"camio-service/internal/utils"
)

// previewNamespace seeds the name-based UUIDs used as preview cache keys.
var previewNamespace = uuid.MustParse("6f1c2a0e-4d3b-5e8f-9a71-c0de5ca11ab0")

// PreviewService renders rotation previews and caches the PNG bytes.
type PreviewService struct {
	converter *conversion.Converter
	cache     *CacheStrategy
	resolver  *RenderConfigResolver
	metrics   *utils.Metrics
	group     singleflight.Group
}

// PreviewResult is an encoded preview and where it came from.
type PreviewResult struct {
	Key    uuid.UUID
	PNG    []byte
	Cached bool
	Layer  string
}

func NewPreviewService(converter *conversion.Converter, cache *CacheStrategy, resolver *RenderConfigResolver, m *utils.Metrics) *PreviewService {
	return &PreviewService{
		converter: converter,
		cache:     cache,
		resolver:  resolver,
		metrics:   m,
	}
}

// previewKey identifies everything that influences the preview pixels.
type previewKey struct {
	Scan     models.Scan         `msgpack:"scan"`
	Config   models.RenderConfig `msgpack:"config"`
	Rotation float64             `msgpack:"rotation"`
	Size     int                 `msgpack:"size"`
}

// PreviewKey derives the content-addressed cache key of a preview.
func PreviewKey(scan models.Scan, cfg models.RenderConfig, rotation float64, size int) (uuid.UUID, error) {
	data, err := msgpack.Marshal(previewKey{Scan: scan, Config: cfg, Rotation: rotation, Size: size})
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "failed to encode preview key")
	}
	return uuid.NewSHA1(previewNamespace, data), nil
}

// Render returns the preview PNG for req, from the cache when possible.
// Concurrent requests for the same preview share one rendering.
func (s *PreviewService) Render(ctx context.Context, req models.PreviewRequest, timer *metrics.StageTimer) (*PreviewResult, error) {
	if math.IsNaN(req.Rotation) || math.IsInf(req.Rotation, 0) {
		return nil, errors.Wrap(ErrInvalidRequest, "rotation must be finite")
	}
	if err := prepareScan(&req.Scan); err != nil {
		return nil, err
	}
	cfg, err := s.resolver.Resolve(req.RenderConfig, req.Profile)
	if err != nil {
		return nil, err
	}

	key, err := PreviewKey(req.Scan, cfg, req.Rotation, s.converter.CanvasSize())
	if err != nil {
		return nil, err
	}
	if data, layer, ok := s.cache.Lookup(key, timer); ok {
		timer.SetSize(int64(len(data)))
		return &PreviewResult{Key: key, PNG: data, Cached: true, Layer: layer}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// The shared render outlives any single caller; each caller stops
	// waiting when its own context ends.
	ch := s.group.DoChan(key.String(), func() (interface{}, error) {
		return s.render(key, req.Scan, cfg, req.Rotation, timer)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	data := res.Val.([]byte)
	timer.SetSize(int64(len(data)))
	return &PreviewResult{Key: key, PNG: data}, nil
}

func (s *PreviewService) render(key uuid.UUID, scan models.Scan, cfg models.RenderConfig, rotation float64, timer *metrics.StageTimer) ([]byte, error) {
	start := time.Now()
	stop := timer.Track(metrics.StageRender)
	img, err := s.converter.Preview(scan, cfg, rotation)
	var buf bytes.Buffer
	if err == nil {
		err = png.Encode(&buf, img)
	}
	stop()
	if s.metrics != nil {
		s.metrics.RecordConversion(utils.EntrypointPreview, float64(time.Since(start).Microseconds())/1000.0, err)
	}
	if err != nil {
		return nil, errors.Wrap(err, "preview rendering failed")
	}

	data := buf.Bytes()
	stopStore := timer.Track(metrics.StageCache)
	if err := s.cache.Store(key, data); err != nil {
		log.Printf("Failed to cache preview %s: %v", key, err)
	}
	stopStore()
	return data, nil
}

// CacheStatistics returns the state of every preview cache layer.
func (s *PreviewService) CacheStatistics() []LayerStatistics {
	return s.cache.GetStatistics()
}

// ClearCache empties every preview cache layer.
func (s *PreviewService) ClearCache() error {
	return s.cache.ClearAll()
}

// InvalidatePreview drops one cached preview from every layer.
func (s *PreviewService) InvalidatePreview(key uuid.UUID) error {
	return s.cache.InvalidateObject(key)
}
