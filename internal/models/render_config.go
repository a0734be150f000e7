package models

// RenderConfigEntry controls the visibility of one category. The position
// of the entry in a RenderConfig sets its draw priority.
type RenderConfigEntry struct {
	Category         Category `json:"category" yaml:"category" msgpack:"category"`
	Label            string   `json:"label" yaml:"label,omitempty" msgpack:"label"`
	RenderInTemplate bool     `json:"renderInTemplate" yaml:"template" msgpack:"renderInTemplate"`
	RenderInColorMap bool     `json:"renderInColorMap" yaml:"colorMap" msgpack:"renderInColorMap"`
}

// RenderConfig is an ordered list of entries. Earlier entries are drawn on
// top of later ones.
type RenderConfig []RenderConfigEntry

// DefaultRenderConfig lists every renderable category with its default
// visibility.
func DefaultRenderConfig() RenderConfig {
	cats := RenderableCategories()
	cfg := make(RenderConfig, 0, len(cats))
	for _, c := range cats {
		template, colorMap := c.DefaultVisibility()
		cfg = append(cfg, RenderConfigEntry{
			Category:         c,
			Label:            c.Label(),
			RenderInTemplate: template,
			RenderInColorMap: colorMap,
		})
	}
	return cfg
}

func (rc RenderConfig) index(c Category) int {
	for i, e := range rc {
		if e.Category == c {
			return i
		}
	}
	return -1
}

// Priority returns len(rc) minus the index of the first entry for c, or 0
// when the category is not configured.
func (rc RenderConfig) Priority(c Category) int {
	i := rc.index(c)
	if i < 0 {
		return 0
	}
	return len(rc) - i
}

// Visibility reports which passes draw c. Categories missing from the
// configuration are drawn in both.
func (rc RenderConfig) Visibility(c Category) (template, colorMap bool) {
	i := rc.index(c)
	if i < 0 {
		return true, true
	}
	return rc[i].RenderInTemplate, rc[i].RenderInColorMap
}

// Normalize returns a copy with missing labels filled in and blank or
// repeated categories dropped. The first entry for a category wins.
func (rc RenderConfig) Normalize() RenderConfig {
	out := make(RenderConfig, 0, len(rc))
	seen := make(map[Category]bool, len(rc))
	for _, e := range rc {
		if e.Category == "" || seen[e.Category] {
			continue
		}
		seen[e.Category] = true
		if e.Label == "" {
			e.Label = e.Category.Label()
		}
		out = append(out, e)
	}
	return out
}

// Detected keeps only the entries whose category occurs in the scan. Walls
// are always kept so an empty scan still yields a usable configuration.
func (rc RenderConfig) Detected(scan Scan) RenderConfig {
	present := scan.Categories()
	present[CategoryWall] = true
	out := make(RenderConfig, 0, len(rc))
	for _, e := range rc {
		if present[e.Category] {
			out = append(out, e)
		}
	}
	return out
}
