package models

import (
	"fmt"
	"math"
)

// Transform is a 4x4 affine matrix in column-major order, the layout
// RoomPlan exports for simd_float4x4.
type Transform [16]float64

// IdentityTransform returns a transform with no rotation or translation.
func IdentityTransform() Transform {
	return Transform{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// NewTransform builds a transform from a position and a yaw about the
// vertical axis, in radians.
func NewTransform(x, y, z, yaw float64) Transform {
	c, s := math.Cos(yaw), math.Sin(yaw)
	return Transform{
		c, 0, s, 0,
		0, 1, 0, 0,
		-s, 0, c, 0,
		x, y, z, 1,
	}
}

// Position returns the translation column.
func (t Transform) Position() (x, y, z float64) {
	return t[12], t[13], t[14]
}

// Yaw returns the rotation about the vertical axis, taken from the
// first column.
func (t Transform) Yaw() float64 {
	return math.Atan2(t[2], t[0])
}

// Entity is one surveyed element of a room.
type Entity struct {
	Identifier string    `json:"identifier,omitempty" msgpack:"identifier,omitempty"`
	Category   Category  `json:"category" msgpack:"category"`
	Transform  Transform `json:"transform" msgpack:"transform"`
	// Dimensions are width (x), height (y) and depth (z) in metres.
	Dimensions [3]float64 `json:"dimensions" msgpack:"dimensions"`
}

func (e Entity) Width() float64 { return e.Dimensions[0] }
func (e Entity) Depth() float64 { return e.Dimensions[2] }

// Scan is the captured geometry of one room.
type Scan struct {
	Walls    []Entity `json:"walls" msgpack:"walls"`
	Windows  []Entity `json:"windows" msgpack:"windows"`
	Doors    []Entity `json:"doors" msgpack:"doors"`
	Openings []Entity `json:"openings,omitempty" msgpack:"openings,omitempty"`
	Objects  []Entity `json:"objects" msgpack:"objects"`
}

// Normalize fixes the category of surfaces to the list they came from and
// defaults uncategorised objects to CategoryObject.
func (s *Scan) Normalize() {
	setCategory(s.Walls, CategoryWall)
	setCategory(s.Windows, CategoryWindow)
	setCategory(s.Doors, CategoryDoor)
	setCategory(s.Openings, CategoryOpening)
	for i := range s.Objects {
		c := s.Objects[i].Category
		if c == "" || !c.Renderable() || c == CategoryWall || c == CategoryWindow || c == CategoryDoor {
			s.Objects[i].Category = CategoryObject
		}
	}
}

func setCategory(entities []Entity, c Category) {
	for i := range entities {
		entities[i].Category = c
	}
}

// MaxCoordinate bounds every transform and dimension value, in metres.
// Larger values overflow the integer seed of the color derivation.
const MaxCoordinate = 1e6

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && math.Abs(v) <= MaxCoordinate
}

// Validate rejects geometry that cannot be projected.
func (s Scan) Validate() error {
	check := func(kind string, entities []Entity) error {
		for i, e := range entities {
			for _, v := range e.Transform {
				if !finite(v) {
					return fmt.Errorf("%s[%d]: transform value %v is not finite or exceeds %g m", kind, i, v, MaxCoordinate)
				}
			}
			for _, v := range e.Dimensions {
				if !finite(v) || v < 0 {
					return fmt.Errorf("%s[%d]: dimensions must be finite, non-negative and at most %g m", kind, i, MaxCoordinate)
				}
			}
		}
		return nil
	}
	for _, group := range []struct {
		kind     string
		entities []Entity
	}{
		{"walls", s.Walls},
		{"windows", s.Windows},
		{"doors", s.Doors},
		{"openings", s.Openings},
		{"objects", s.Objects},
	} {
		if err := check(group.kind, group.entities); err != nil {
			return err
		}
	}
	return nil
}

// Categories returns the set of categories present in the scan.
func (s Scan) Categories() map[Category]bool {
	present := make(map[Category]bool)
	if len(s.Walls) > 0 {
		present[CategoryWall] = true
	}
	if len(s.Windows) > 0 {
		present[CategoryWindow] = true
	}
	if len(s.Doors) > 0 {
		present[CategoryDoor] = true
	}
	for _, o := range s.Objects {
		present[o.Category] = true
	}
	return present
}

// EntityCount is the number of renderable entities.
func (s Scan) EntityCount() int {
	return len(s.Walls) + len(s.Windows) + len(s.Doors) + len(s.Objects)
}
