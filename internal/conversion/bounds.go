package conversion

import (
	"math"

	"camio-service/internal/models"
)

const (
	// MarginExport pads the scene by 10% for exported maps.
	MarginExport = 1.1
	// MarginPreview leaves a quarter of the canvas free on each side so the
	// scene can be rotated without clipping.
	MarginPreview = 2.0
)

// SceneBounds is the horizontal extent of a scan and the divisor used to
// map metres onto the canvas.
type SceneBounds struct {
	MinX, MinZ   float64
	MaxX, MaxZ   float64
	CenterX      float64
	CenterZ      float64
	MaxDimension float64
}

// ComputeBounds measures walls and objects. Windows and doors sit inside
// walls and do not take part.
func ComputeBounds(scan models.Scan, margin float64) SceneBounds {
	b := SceneBounds{
		MinX: math.Inf(1), MinZ: math.Inf(1),
		MaxX: math.Inf(-1), MaxZ: math.Inf(-1),
	}
	extend := func(entities []models.Entity) {
		for _, e := range entities {
			x, _, z := e.Transform.Position()
			hw, hd := e.Dimensions[0]/2, e.Dimensions[2]/2
			b.MinX = math.Min(b.MinX, x-hw)
			b.MaxX = math.Max(b.MaxX, x+hw)
			b.MinZ = math.Min(b.MinZ, z-hd)
			b.MaxZ = math.Max(b.MaxZ, z+hd)
		}
	}
	extend(scan.Walls)
	extend(scan.Objects)

	if math.IsInf(b.MinX, 1) {
		return SceneBounds{MaxDimension: 1}
	}
	b.CenterX = (b.MinX + b.MaxX) / 2
	b.CenterZ = (b.MinZ + b.MaxZ) / 2
	b.MaxDimension = math.Max(b.MaxX-b.MinX, b.MaxZ-b.MinZ) * margin
	if !(b.MaxDimension > 0) {
		b.MaxDimension = 1
	}
	return b
}

// Project maps a horizontal world position to pixel coordinates on a
// size×size canvas.
func (b SceneBounds) Project(x, z float64, size int) (px, pz float64) {
	s := float64(size)
	px = ((x-b.CenterX)/b.MaxDimension + 0.5) * s
	pz = ((z-b.CenterZ)/b.MaxDimension + 0.5) * s
	return px, pz
}

// Scale converts a length in metres to pixels.
func (b SceneBounds) Scale(metres float64, size int) float64 {
	return metres / b.MaxDimension * float64(size)
}
