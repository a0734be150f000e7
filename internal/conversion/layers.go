package conversion

import (
	"fmt"
	"sort"

	"github.com/gogpu/gg"

	"camio-service/internal/models"
)

// RenderLayer is one visible entity with an independent action per pass.
// A nil action means the entity is hidden in that pass.
type RenderLayer struct {
	Priority int
	Category models.Category
	Label    string
	Color    models.RGB
	ColorMap DrawAction
	Template DrawAction
}

// conversionState holds the occurrence counters and color assignments of a
// single conversion call.
type conversionState struct {
	occurrences map[models.Category]int
	assignments []models.ColorAssignment
}

func newConversionState() *conversionState {
	return &conversionState{occurrences: make(map[models.Category]int)}
}

func (s *conversionState) assign(c models.Category, rgb models.RGB) string {
	s.occurrences[c]++
	label := fmt.Sprintf("%s %d", c.Label(), s.occurrences[c])
	s.assignments = append(s.assignments, models.ColorAssignment{Label: label, Category: c, Color: rgb})
	return label
}

// layerPlan carries everything BuildLayers needs besides the scan.
type layerPlan struct {
	config   models.RenderConfig
	bounds   SceneBounds
	size     int
	rotation float64
	// templateOnly skips color assignment and color-map actions.
	templateOnly bool
}

type shapeSet struct {
	template func(models.Entity, placement) DrawAction
	colorMap func(models.Entity, placement, models.RGB) DrawAction
}

var (
	wallShapes   = shapeSet{wallTemplate, wallColorMap}
	windowShapes = shapeSet{windowTemplate, windowColorMap}
	doorShapes   = shapeSet{
		template: func(e models.Entity, p placement) DrawAction { return doorShape(e, p, paper) },
		colorMap: func(e models.Entity, p placement, c models.RGB) DrawAction { return doorShape(e, p, rgba(c)) },
	}
	objectShapes = shapeSet{objectTemplate, objectColorMap}
)

// buildLayers turns the scan into draw layers sorted by ascending
// priority. Walls come first, then windows, doors and objects; the stable
// sort keeps that order between equal priorities.
func buildLayers(scan models.Scan, plan layerPlan, state *conversionState) []RenderLayer {
	layers := make([]RenderLayer, 0, scan.EntityCount())
	add := func(e models.Entity, c models.Category, shapes shapeSet) {
		inTemplate, inColorMap := plan.config.Visibility(c)
		if plan.templateOnly {
			inColorMap = false
		}
		if !inTemplate && !inColorMap {
			return
		}
		p := place(e, plan.bounds, plan.size, plan.rotation)
		layer := RenderLayer{Priority: plan.config.Priority(c), Category: c}
		if !plan.templateOnly {
			layer.Color = ColorForTransform(e.Transform)
			layer.Label = state.assign(c, layer.Color)
		}
		if inColorMap {
			layer.ColorMap = shapes.colorMap(e, p, layer.Color)
		}
		if inTemplate {
			layer.Template = shapes.template(e, p)
		}
		layers = append(layers, layer)
	}

	for _, e := range scan.Walls {
		add(e, models.CategoryWall, wallShapes)
	}
	for _, e := range scan.Windows {
		add(e, models.CategoryWindow, windowShapes)
	}
	for _, e := range scan.Doors {
		add(e, models.CategoryDoor, doorShapes)
	}
	for _, e := range scan.Objects {
		c := e.Category
		if c == "" {
			c = models.CategoryObject
		}
		add(e, c, objectShapes)
	}

	sort.SliceStable(layers, func(i, j int) bool {
		return layers[i].Priority < layers[j].Priority
	})
	return layers
}

// DrawColorMap runs the color-map action of every layer in order.
func DrawColorMap(dc *gg.Context, layers []RenderLayer) error {
	for _, l := range layers {
		if l.ColorMap == nil {
			continue
		}
		if err := l.ColorMap(dc); err != nil {
			return fmt.Errorf("color map %s: %w", l.Label, err)
		}
	}
	return nil
}

// DrawTemplate runs the template action of every layer in order.
func DrawTemplate(dc *gg.Context, layers []RenderLayer) error {
	for _, l := range layers {
		if l.Template == nil {
			continue
		}
		if err := l.Template(dc); err != nil {
			return fmt.Errorf("template %s: %w", l.Category, err)
		}
	}
	return nil
}
