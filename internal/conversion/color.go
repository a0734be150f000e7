package conversion

import (
	"math"

	"camio-service/internal/models"
)

// ColorForPosition derives the color-map key of an entity from its world
// position. The luminance remap keeps colors between 25 and 150 so they
// stand apart from the white background and the black template ink.
// Positions are expected within models.MaxCoordinate; beyond about 7e16 m
// the seed no longer fits an int64.
func ColorForPosition(x, y, z float64) models.RGB {
	seed := math.Abs(math.Round(x*1000) + math.Round(y*1000)*31 + math.Round(z*1000)*97)
	s := int64(seed)

	r := float64((s * 17) % 256)
	g := float64((s * 23) % 256)
	b := float64((s * 31) % 256)

	lum := 0.2126*r + 0.7152*g + 0.0722*b
	target := float64(int64(math.Floor(lum))%126 + 25)
	if lum == 0 {
		// black has no hue to preserve; use the gray at the target level
		v := uint8(target)
		return models.RGB{v, v, v}
	}
	scale := target / lum
	return models.RGB{channel(r * scale), channel(g * scale), channel(b * scale)}
}

// ColorForTransform is ColorForPosition applied to the translation of t.
func ColorForTransform(t models.Transform) models.RGB {
	return ColorForPosition(t.Position())
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(255, v))))
}
