package conversion

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"github.com/pkg/errors"
	"golang.org/x/image/font/gofont/gobold"

	"camio-service/internal/models"
	"camio-service/internal/packaging"
)

const (
	// DefaultCanvasSize is the side of both rasters in pixels.
	DefaultCanvasSize = 2048
	// MaxCanvasSize bounds the allocation of a single canvas.
	MaxCanvasSize = 16384
)

// Converter renders scans into CamIO rasters. It keeps no per-call state
// and may be shared between goroutines.
type Converter struct {
	size   int
	font   *text.FontSource
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Converter.
type Option func(*Converter)

// WithCanvasSize sets the canvas side in pixels.
func WithCanvasSize(size int) Option {
	return func(c *Converter) { c.size = size }
}

// WithLogger overrides the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// WithClock sets the time source used for archive names and timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// NewConverter loads the overlay font and applies opts.
func NewConverter(opts ...Option) (*Converter, error) {
	font, err := text.NewFontSource(gobold.TTF)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load overlay font")
	}
	c := &Converter{
		size: DefaultCanvasSize,
		font: font,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = Logger()
	}
	return c, nil
}

// CanvasSize returns the side of the rasters this converter produces.
func (c *Converter) CanvasSize() int {
	return c.size
}

// Result holds both rasters of a conversion and the color assignments
// that produced the color map.
type Result struct {
	Template    image.Image
	ColorMap    image.Image
	Assignments []models.ColorAssignment
	Bounds      SceneBounds
}

type canvases struct {
	template    *gg.Context
	colorMap    *gg.Context
	assignments []models.ColorAssignment
	bounds      SceneBounds
}

func (cv *canvases) close() {
	if cv.template != nil {
		cv.template.Close()
	}
	if cv.colorMap != nil {
		cv.colorMap.Close()
	}
}

func (c *Converter) newCanvas() (dc *gg.Context, err error) {
	if c.size <= 0 || c.size > MaxCanvasSize {
		return nil, canvasError("allocate", fmt.Errorf("canvas size %d outside 1..%d", c.size, MaxCanvasSize))
	}
	defer func() {
		if r := recover(); r != nil {
			dc = nil
			err = canvasError("allocate", fmt.Errorf("%v", r))
		}
	}()
	dc = gg.NewContext(c.size, c.size)
	dc.ClearWithColor(gg.White)
	return dc, nil
}

// draw runs fn and turns a panic inside the rasterizer into a canvas error.
func draw(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = canvasError(op, fmt.Errorf("%v", r))
		}
	}()
	if err := fn(); err != nil {
		return canvasError(op, err)
	}
	return nil
}

// checkInput rejects geometry and rotations that would project to NaN and
// leave hotspots without painted regions.
func checkInput(scan models.Scan, rotation float64) error {
	if math.IsNaN(rotation) || math.IsInf(rotation, 0) {
		return inputError("rotation", fmt.Errorf("rotation %v is not finite", rotation))
	}
	if err := scan.Validate(); err != nil {
		return inputError("scan", err)
	}
	return nil
}

func (c *Converter) render(scan models.Scan, cfg models.RenderConfig, rotation float64) (*canvases, error) {
	if err := checkInput(scan, rotation); err != nil {
		return nil, err
	}
	bounds := ComputeBounds(scan, MarginExport)
	state := newConversionState()
	layers := buildLayers(scan, layerPlan{
		config:   cfg,
		bounds:   bounds,
		size:     c.size,
		rotation: rotation,
	}, state)

	cv := &canvases{assignments: state.assignments, bounds: bounds}
	var err error
	if cv.colorMap, err = c.newCanvas(); err != nil {
		return nil, err
	}
	if cv.template, err = c.newCanvas(); err != nil {
		cv.close()
		return nil, err
	}

	if err := draw("color map", func() error { return DrawColorMap(cv.colorMap, layers) }); err != nil {
		cv.close()
		return nil, err
	}
	err = draw("template", func() error {
		if err := DrawTemplate(cv.template, layers); err != nil {
			return err
		}
		return drawOverlay(cv.template, c.font, c.size)
	})
	if err != nil {
		cv.close()
		return nil, err
	}

	c.logger.Debug("rendered scan",
		slog.Int("layers", len(layers)),
		slog.Int("hotspots", len(cv.assignments)),
		slog.Float64("maxDimension", bounds.MaxDimension),
		slog.Float64("rotation", rotation))
	return cv, nil
}

// Render produces the template and color map for a scan. rotation is a
// global turn in degrees added to every entity's own yaw.
func (c *Converter) Render(scan models.Scan, cfg models.RenderConfig, rotation float64) (*Result, error) {
	cv, err := c.render(scan, cfg, rotation)
	if err != nil {
		return nil, err
	}
	defer cv.close()
	return &Result{
		Template:    cv.template.Image(),
		ColorMap:    cv.colorMap.Image(),
		Assignments: cv.assignments,
		Bounds:      cv.bounds,
	}, nil
}

// Preview renders only the template, with a wider margin and without the
// calibration overlay, for adjusting the rotation before export.
func (c *Converter) Preview(scan models.Scan, cfg models.RenderConfig, rotation float64) (image.Image, error) {
	if err := checkInput(scan, rotation); err != nil {
		return nil, err
	}
	bounds := ComputeBounds(scan, MarginPreview)
	layers := buildLayers(scan, layerPlan{
		config:       cfg,
		bounds:       bounds,
		size:         c.size,
		rotation:     rotation,
		templateOnly: true,
	}, nil)

	dc, err := c.newCanvas()
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	if err := draw("preview", func() error { return DrawTemplate(dc, layers) }); err != nil {
		return nil, err
	}
	c.logger.Debug("rendered preview", slog.Int("layers", len(layers)), slog.Float64("rotation", rotation))
	return dc.Image(), nil
}

// ExportResult describes a written archive.
type ExportResult struct {
	Path        string
	Size        int64
	Metadata    models.Metadata
	Assignments []models.ColorAssignment
}

// Export renders the scan and writes a .camio archive into dir. Either a
// complete archive is written or nothing is left behind.
func (c *Converter) Export(ctx context.Context, scan models.Scan, cfg models.RenderConfig, rotation float64, dir string, meta packaging.MetadataOptions) (*ExportResult, error) {
	cv, err := c.render(scan, cfg, rotation)
	if err != nil {
		return nil, err
	}
	defer cv.close()

	var templatePNG, colorMapPNG bytes.Buffer
	if err := cv.template.EncodePNG(&templatePNG); err != nil {
		return nil, encodingError("template.png", err)
	}
	if err := cv.colorMap.EncodePNG(&colorMapPNG); err != nil {
		return nil, encodingError("colorMap.png", err)
	}

	now := c.now()
	metadata := packaging.BuildMetadata(cv.assignments, meta, now)
	metadataJSON, err := packaging.EncodeMetadata(metadata)
	if err != nil {
		return nil, encodingError("data.json", err)
	}

	w := packaging.Writer{Dir: dir, Now: c.now}
	path, size, err := w.WriteArchive(ctx, packaging.Bundle{
		Template: templatePNG.Bytes(),
		ColorMap: colorMapPNG.Bytes(),
		Metadata: metadataJSON,
	})
	if err != nil {
		return nil, encodingError("archive", err)
	}

	c.logger.Info("exported camio archive",
		slog.String("path", path),
		slog.Int64("size", size),
		slog.Int("hotspots", len(metadata.Hotspots)))
	return &ExportResult{
		Path:        path,
		Size:        size,
		Metadata:    metadata,
		Assignments: cv.assignments,
	}, nil
}
