package conversion

import (
	"image/color"
	"math"

	"github.com/gogpu/gg"

	"camio-service/internal/models"
)

const (
	// StrokeWidth is the width in pixels of every template outline.
	StrokeWidth = 20.0

	wallThickness   = 0.3
	windowThickness = 0.3
	doorThickness   = 0.4
)

var (
	ink   = color.RGBA{A: 255}
	paper = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// DrawAction paints one entity onto a canvas.
type DrawAction func(dc *gg.Context) error

// placement is the pixel-space pose of an entity: its projected centre,
// the total rotation and the bounds used to scale its footprint.
type placement struct {
	x, z   float64
	angle  float64
	bounds SceneBounds
	size   int
}

func place(e models.Entity, b SceneBounds, size int, rotationDegrees float64) placement {
	wx, _, wz := e.Transform.Position()
	px, pz := b.Project(wx, wz, size)
	return placement{
		x:      px,
		z:      pz,
		angle:  e.Transform.Yaw() + rotationDegrees*math.Pi/180,
		bounds: b,
		size:   size,
	}
}

func (p placement) px(metres float64) float64 {
	return p.bounds.Scale(metres, p.size)
}

// local runs fn with the origin moved to the entity centre and the axes
// turned by its rotation.
func (p placement) local(dc *gg.Context, fn func() error) error {
	dc.Push()
	defer dc.Pop()
	dc.Translate(p.x, p.z)
	dc.Rotate(p.angle)
	return fn()
}

// centredRect adds a w×h rectangle centred on the local origin.
func centredRect(dc *gg.Context, w, h float64) {
	dc.DrawRectangle(-w/2, -h/2, w, h)
}

func fillWith(dc *gg.Context, c color.Color) error {
	dc.SetColor(c)
	return dc.Fill()
}

func rgba(c models.RGB) color.RGBA {
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: 255}
}

func wallTemplate(e models.Entity, p placement) DrawAction {
	return func(dc *gg.Context) error {
		w := p.px(e.Width())
		return p.local(dc, func() error {
			dc.SetColor(ink)
			dc.SetLineWidth(StrokeWidth)
			dc.SetLineCap(gg.LineCapButt)
			dc.MoveTo(-w/2, 0)
			dc.LineTo(w/2, 0)
			return dc.Stroke()
		})
	}
}

func wallColorMap(e models.Entity, p placement, c models.RGB) DrawAction {
	return func(dc *gg.Context) error {
		return p.local(dc, func() error {
			centredRect(dc, p.px(e.Width()), p.px(wallThickness))
			return fillWith(dc, rgba(c))
		})
	}
}

func windowTemplate(e models.Entity, p placement) DrawAction {
	return func(dc *gg.Context) error {
		return p.local(dc, func() error {
			centredRect(dc, p.px(e.Width()), p.px(windowThickness))
			dc.SetColor(ink)
			dc.SetLineWidth(StrokeWidth)
			if err := dc.StrokePreserve(); err != nil {
				return err
			}
			return fillWith(dc, paper)
		})
	}
}

func windowColorMap(e models.Entity, p placement, c models.RGB) DrawAction {
	return func(dc *gg.Context) error {
		return p.local(dc, func() error {
			centredRect(dc, p.px(e.Width()), p.px(windowThickness))
			return fillWith(dc, rgba(c))
		})
	}
}

// doorShape fills the opening. On the template the fill is white, which
// cuts the door out of the wall stroke beneath it.
func doorShape(e models.Entity, p placement, c color.Color) DrawAction {
	return func(dc *gg.Context) error {
		return p.local(dc, func() error {
			centredRect(dc, p.px(e.Width()), p.px(doorThickness))
			return fillWith(dc, c)
		})
	}
}

func objectTemplate(e models.Entity, p placement) DrawAction {
	return func(dc *gg.Context) error {
		return p.local(dc, func() error {
			centredRect(dc, p.px(e.Width()), p.px(e.Depth()))
			dc.SetColor(paper)
			if err := dc.FillPreserve(); err != nil {
				return err
			}
			dc.SetColor(ink)
			dc.SetLineWidth(StrokeWidth)
			return dc.Stroke()
		})
	}
}

func objectColorMap(e models.Entity, p placement, c models.RGB) DrawAction {
	return func(dc *gg.Context) error {
		return p.local(dc, func() error {
			centredRect(dc, p.px(e.Width()), p.px(e.Depth()))
			return fillWith(dc, rgba(c))
		})
	}
}
