package conversion

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camio-service/internal/models"
)

func newTestConverter(t *testing.T, size int) *Converter {
	t.Helper()
	c, err := NewConverter(WithCanvasSize(size))
	require.NoError(t, err)
	return c
}

func rgbAt(img image.Image, x, y int) models.RGB {
	r, g, b, _ := img.At(x, y).RGBA()
	return models.RGB{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
}

func assertShade(t *testing.T, want uint8, img image.Image, x, y int) {
	t.Helper()
	got := rgbAt(img, x, y)
	for _, ch := range got {
		assert.InDelta(t, want, ch, 1, "pixel (%d, %d) = %v", x, y, got)
	}
}

func pixelAt(img image.Image, b SceneBounds, x, z float64) models.RGB {
	px, pz := b.Project(x, z, img.Bounds().Dx())
	return rgbAt(img, int(px), int(pz))
}

var (
	black = models.RGB{0, 0, 0}
	white = models.RGB{255, 255, 255}
)

func wall(x, z, width, yaw float64) models.Entity {
	return models.Entity{
		Category:   models.CategoryWall,
		Transform:  models.NewTransform(x, 0, z, yaw),
		Dimensions: [3]float64{width, 2.5, 0},
	}
}

func object(c models.Category, x, z, width, depth float64) models.Entity {
	return models.Entity{
		Category:   c,
		Transform:  models.NewTransform(x, 0, z, 0),
		Dimensions: [3]float64{width, 1, depth},
	}
}

func TestColorForPosition(t *testing.T) {
	tests := []struct {
		x, y, z float64
		want    models.RGB
	}{
		{1, 0, 2, models.RGB{68, 165, 88}},
		{0.5, 1.2, -3.4, models.RGB{87, 118, 158}},
		{-2.25, 0, 1.75, models.RGB{4, 75, 18}},
		{3.1, 0.2, -1.7, models.RGB{86, 73, 20}},
		{0, 0, 0, models.RGB{25, 25, 25}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ColorForPosition(tt.x, tt.y, tt.z), "position (%v, %v, %v)", tt.x, tt.y, tt.z)
	}
}

func TestColorForPositionIsStableAndDark(t *testing.T) {
	for x := -5.0; x <= 5; x += 0.37 {
		for z := -5.0; z <= 5; z += 0.41 {
			c := ColorForPosition(x, 0.1, z)
			assert.Equal(t, c, ColorForTransform(models.NewTransform(x, 0.1, z, 1.2)))
			lum := 0.2126*float64(c[0]) + 0.7152*float64(c[1]) + 0.0722*float64(c[2])
			assert.LessOrEqual(t, lum, 151.0)
		}
	}
}

func TestComputeBounds(t *testing.T) {
	scan := models.Scan{
		Walls:   []models.Entity{wall(0, 0, 4, 0)},
		Windows: []models.Entity{{Transform: models.NewTransform(50, 0, 50, 0), Dimensions: [3]float64{1, 1, 0}}},
		Objects: []models.Entity{object(models.CategoryBed, 1, 1, 2, 2)},
	}
	b := ComputeBounds(scan, MarginExport)
	assert.InDelta(t, -2, b.MinX, 1e-9)
	assert.InDelta(t, 2, b.MaxX, 1e-9)
	assert.InDelta(t, 0, b.MinZ, 1e-9)
	assert.InDelta(t, 2, b.MaxZ, 1e-9)
	assert.InDelta(t, 0, b.CenterX, 1e-9)
	assert.InDelta(t, 1, b.CenterZ, 1e-9)
	assert.InDelta(t, 4.4, b.MaxDimension, 1e-9)

	assert.InDelta(t, 8, ComputeBounds(scan, MarginPreview).MaxDimension, 1e-9)
}

func TestComputeBoundsEmptyScan(t *testing.T) {
	b := ComputeBounds(models.Scan{Doors: []models.Entity{wall(3, 3, 1, 0)}}, MarginExport)
	assert.Equal(t, 1.0, b.MaxDimension)
	px, pz := b.Project(0, 0, 100)
	assert.Equal(t, 50.0, px)
	assert.Equal(t, 50.0, pz)
}

func TestProjectCentre(t *testing.T) {
	scan := models.Scan{Objects: []models.Entity{
		object(models.CategoryTable, -1.3, 4.2, 1, 3),
		object(models.CategoryChair, 2.9, 0.7, 0.5, 0.5),
	}}
	b := ComputeBounds(scan, MarginExport)
	px, pz := b.Project(b.CenterX, b.CenterZ, 2048)
	assert.InDelta(t, 1024, px, 1e-9)
	assert.InDelta(t, 1024, pz, 1e-9)
}

func TestSingleWallScenario(t *testing.T) {
	c := newTestConverter(t, 512)
	scan := models.Scan{Walls: []models.Entity{wall(1, 2, 4, 0)}}
	cfg := models.RenderConfig{{Category: models.CategoryWall, RenderInTemplate: true, RenderInColorMap: true}}

	res, err := c.Render(scan, cfg, 0)
	require.NoError(t, err)
	require.Len(t, res.Assignments, 1)
	assert.Equal(t, "Wall 1", res.Assignments[0].Label)
	assert.Equal(t, models.RGB{68, 165, 88}, res.Assignments[0].Color)

	// centred black stroke, 20px wide
	assert.Equal(t, black, rgbAt(res.Template, 256, 256))
	assert.Equal(t, black, rgbAt(res.Template, 300, 256))
	assert.Equal(t, white, rgbAt(res.Template, 256, 230))
	assert.Equal(t, white, rgbAt(res.Template, 256, 300))

	// thin rectangle of about 35px in the wall color
	assert.Equal(t, res.Assignments[0].Color, rgbAt(res.ColorMap, 256, 256))
	assert.Equal(t, res.Assignments[0].Color, rgbAt(res.ColorMap, 256, 245))
	assert.Equal(t, white, rgbAt(res.ColorMap, 256, 220))
}

func TestTemplateOverlay(t *testing.T) {
	c := newTestConverter(t, 512)
	res, err := c.Render(models.Scan{}, nil, 0)
	require.NoError(t, err)

	assert.Equal(t, black, rgbAt(res.Template, 70, 70))
	assertShade(t, 127, res.Template, 155, 70)
	assertShade(t, 204, res.Template, 70, 155)

	bx := 512 - 30 - 85
	assert.Equal(t, white, rgbAt(res.Template, bx+20, bx+20))
	assertShade(t, 191, res.Template, bx+65, bx+20)
	assertShade(t, 127, res.Template, bx+20, bx+65)
	assert.Equal(t, black, rgbAt(res.Template, bx+65, bx+65))

	// the color map never carries the overlay
	assert.Equal(t, white, rgbAt(res.ColorMap, 70, 70))
	assert.Equal(t, white, rgbAt(res.ColorMap, bx+65, bx+65))
	assert.Empty(t, res.Assignments)
}

func TestPriorityOrdering(t *testing.T) {
	c := newTestConverter(t, 1024)
	chair := object(models.CategoryChair, 1, 1, 1, 1)
	table := object(models.CategoryTable, 1.3, 1.1, 2, 2)
	scan := models.Scan{Objects: []models.Entity{table, chair}}

	both := func(cats ...models.Category) models.RenderConfig {
		cfg := models.RenderConfig{}
		for _, c := range cats {
			cfg = append(cfg, models.RenderConfigEntry{Category: c, RenderInTemplate: true, RenderInColorMap: true})
		}
		return cfg
	}

	chairTop, err := c.Render(scan, both(models.CategoryChair, models.CategoryTable), 0)
	require.NoError(t, err)
	tableTop, err := c.Render(scan, both(models.CategoryTable, models.CategoryChair), 0)
	require.NoError(t, err)

	chairColor := ColorForPosition(1, 0, 1)
	tableColor := ColorForPosition(1.3, 0, 1.1)
	assert.Equal(t, chairColor, pixelAt(chairTop.ColorMap, chairTop.Bounds, 1, 1))
	assert.Equal(t, tableColor, pixelAt(tableTop.ColorMap, tableTop.Bounds, 1, 1))

	// the chair outline sits inside the table and shows only when the chair is on top
	assert.Equal(t, black, pixelAt(chairTop.Template, chairTop.Bounds, 0.5, 1))
	assert.Equal(t, white, pixelAt(tableTop.Template, tableTop.Bounds, 0.5, 1))
}

func TestVisibilityGating(t *testing.T) {
	c := newTestConverter(t, 512)
	window := models.Entity{
		Category:   models.CategoryWindow,
		Transform:  models.NewTransform(1, 1, 2, 0),
		Dimensions: [3]float64{1, 1, 0},
	}
	withWindow := models.Scan{Walls: []models.Entity{wall(1, 2, 4, 0)}, Windows: []models.Entity{window}}
	withoutWindow := models.Scan{Walls: withWindow.Walls}
	cfg := models.RenderConfig{
		{Category: models.CategoryWindow, RenderInTemplate: false, RenderInColorMap: true},
		{Category: models.CategoryWall, RenderInTemplate: true, RenderInColorMap: true},
	}

	a, err := c.Render(withWindow, cfg, 0)
	require.NoError(t, err)
	b, err := c.Render(withoutWindow, cfg, 0)
	require.NoError(t, err)

	assert.Equal(t, b.Template.(*image.RGBA).Pix, a.Template.(*image.RGBA).Pix)
	assert.Equal(t, ColorForPosition(1, 1, 2), rgbAt(a.ColorMap, 256, 256))
	require.Len(t, a.Assignments, 2)
	assert.Equal(t, "Window 1", a.Assignments[1].Label)

	cfg[0].RenderInColorMap = false
	hidden, err := c.Render(withWindow, cfg, 0)
	require.NoError(t, err)
	require.Len(t, hidden.Assignments, 1)
	assert.Equal(t, "Wall 1", hidden.Assignments[0].Label)
	assert.Equal(t, b.ColorMap.(*image.RGBA).Pix, hidden.ColorMap.(*image.RGBA).Pix)
}

func TestOccurrenceCountersArePerCall(t *testing.T) {
	c := newTestConverter(t, 256)
	scan := models.Scan{
		Walls: []models.Entity{wall(0, 0, 4, 0), wall(2, 2, 4, math.Pi/2)},
		Objects: []models.Entity{
			object(models.CategoryChair, 0.5, 0.5, 0.4, 0.4),
			object(models.CategoryChair, 1.5, 0.5, 0.4, 0.4),
			object(models.CategoryRefrigerator, 1, 1.5, 0.7, 0.7),
			object(models.CategoryChair, 0.5, 1.5, 0.4, 0.4),
		},
	}
	cfg := models.RenderConfig{
		{Category: models.CategoryChair, RenderInColorMap: true},
		{Category: models.CategoryRefrigerator, RenderInColorMap: true},
		{Category: models.CategoryWall, RenderInTemplate: true, RenderInColorMap: true},
	}

	labels := func() []string {
		res, err := c.Render(scan, cfg, 0)
		require.NoError(t, err)
		var out []string
		for _, a := range res.Assignments {
			out = append(out, a.Label)
		}
		return out
	}
	want := []string{"Wall 1", "Wall 2", "Chair 1", "Chair 2", "Refrigetator 1", "Chair 3"}
	assert.Equal(t, want, labels())
	assert.Equal(t, want, labels())
}

func TestRenderIsDeterministic(t *testing.T) {
	c := newTestConverter(t, 384)
	scan := models.Scan{
		Walls:   []models.Entity{wall(0, 0, 3, 0.3), wall(1, 1.5, 3, 1.87)},
		Doors:   []models.Entity{{Transform: models.NewTransform(0.2, 0, 0, 0.3), Dimensions: [3]float64{0.9, 2, 0}}},
		Objects: []models.Entity{object(models.CategoryBed, 0.8, 0.9, 1.4, 2)},
	}
	cfg := models.DefaultRenderConfig()

	a, err := c.Render(scan, cfg, 15)
	require.NoError(t, err)
	b, err := c.Render(scan, cfg, 15)
	require.NoError(t, err)
	assert.Equal(t, a.Template.(*image.RGBA).Pix, b.Template.(*image.RGBA).Pix)
	assert.Equal(t, a.ColorMap.(*image.RGBA).Pix, b.ColorMap.(*image.RGBA).Pix)
	assert.ElementsMatch(t, a.Assignments, b.Assignments)
}

func TestGlobalRotation(t *testing.T) {
	c := newTestConverter(t, 512)
	scan := models.Scan{Walls: []models.Entity{wall(0, 0, 4, 0)}}
	cfg := models.RenderConfig{{Category: models.CategoryWall, RenderInTemplate: true, RenderInColorMap: true}}

	flat, err := c.Render(scan, cfg, 0)
	require.NoError(t, err)
	turned, err := c.Render(scan, cfg, 90)
	require.NoError(t, err)

	assert.Equal(t, white, rgbAt(flat.Template, 256, 320))
	assert.Equal(t, black, rgbAt(turned.Template, 256, 320))
	assert.Equal(t, black, rgbAt(turned.Template, 256, 256))
	assert.Equal(t, white, rgbAt(turned.Template, 320, 256))
}

func TestPreview(t *testing.T) {
	c := newTestConverter(t, 512)
	scan := models.Scan{
		Walls:   []models.Entity{wall(0, 0, 4, 0)},
		Objects: []models.Entity{object(models.CategorySofa, 0, 1, 1, 1)},
	}
	cfg := models.RenderConfig{
		{Category: models.CategorySofa, RenderInTemplate: false, RenderInColorMap: true},
		{Category: models.CategoryWall, RenderInTemplate: true, RenderInColorMap: true},
	}

	img, err := c.Preview(scan, cfg, 0)
	require.NoError(t, err)
	assert.Equal(t, 512, img.Bounds().Dx())

	// no calibration squares
	assert.Equal(t, white, rgbAt(img, 70, 70))

	b := ComputeBounds(scan, MarginPreview)
	assert.Equal(t, black, pixelAt(img, b, 0, 0))
	// the wall spans half the canvas with the doubled margin
	px, _ := b.Project(1.9, 0, 512)
	assert.InDelta(t, 256+256*1.9/4, px, 1e-9)
	assert.Equal(t, black, pixelAt(img, b, 1.8, 0))
	assert.Equal(t, white, pixelAt(img, b, 0, 1))
}

func TestCanvasErrors(t *testing.T) {
	for _, size := range []int{0, -4, MaxCanvasSize + 1} {
		c := newTestConverter(t, size)
		_, err := c.Render(models.Scan{}, nil, 0)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConversionFailed)
		assert.Equal(t, KindCanvas, KindOf(err))

		_, err = c.Preview(models.Scan{}, nil, 0)
		assert.ErrorIs(t, err, ErrConversionFailed)
	}
}

func TestNonFiniteInputRejected(t *testing.T) {
	c := newTestConverter(t, 128)
	good := models.Scan{Walls: []models.Entity{wall(0, 0, 4, 0)}}

	nanWall := wall(0, 0, 4, 0)
	nanWall.Transform[12] = math.NaN()
	farWall := wall(1e16, 0, 4, 0)

	tests := []struct {
		name     string
		scan     models.Scan
		rotation float64
	}{
		{"nan rotation", good, math.NaN()},
		{"infinite rotation", good, math.Inf(1)},
		{"nan position", models.Scan{Walls: []models.Entity{nanWall}}, 0},
		{"position out of range", models.Scan{Walls: []models.Entity{farWall}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Render(tt.scan, nil, tt.rotation)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConversionFailed)
			assert.Equal(t, KindInput, KindOf(err))

			_, err = c.Preview(tt.scan, nil, tt.rotation)
			assert.Equal(t, KindInput, KindOf(err))
		})
	}
}
