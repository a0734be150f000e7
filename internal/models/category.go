package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Category identifies the kind of a surveyed element. Values use the
// RoomPlan capture names.
type Category string

const (
	CategoryWall         Category = "wall"
	CategoryWindow       Category = "window"
	CategoryDoor         Category = "door"
	CategoryOpening      Category = "opening"
	CategoryStorage      Category = "storage"
	CategoryRefrigerator Category = "refrigerator"
	CategoryStove        Category = "stove"
	CategoryBed          Category = "bed"
	CategorySink         Category = "sink"
	CategoryWasherDryer  Category = "washerDryer"
	CategoryToilet       Category = "toilet"
	CategoryBathtub      Category = "bathtub"
	CategoryOven         Category = "oven"
	CategoryDishwasher   Category = "dishwasher"
	CategoryTable        Category = "table"
	CategorySofa         Category = "sofa"
	CategoryChair        Category = "chair"
	CategoryFireplace    Category = "fireplace"
	CategoryTelevision   Category = "television"
	CategoryStairs       Category = "stairs"
	CategoryObject       Category = "object"
)

type categoryInfo struct {
	label       string
	template    bool
	colorMap    bool
	renderOrder int
}

// Labels are the hotspot titles CamIO players already ship with,
// misspellings included.
var categories = map[Category]categoryInfo{
	CategoryWindow:       {"Window", false, true, 0},
	CategoryDoor:         {"Door", true, true, 1},
	CategoryStairs:       {"Stairs", true, true, 2},
	CategoryTable:        {"Table", false, false, 3},
	CategoryChair:        {"Chair", false, false, 4},
	CategoryStorage:      {"Storage", false, false, 5},
	CategoryToilet:       {"Toilet", false, false, 6},
	CategoryRefrigerator: {"Refrigetator", false, false, 7},
	CategoryStove:        {"Stove", false, false, 8},
	CategoryBed:          {"Bed", false, false, 9},
	CategorySink:         {"Sink", false, false, 10},
	CategoryWasherDryer:  {"Washmachine", false, false, 11},
	CategoryBathtub:      {"Bathtub", false, false, 12},
	CategoryOven:         {"Oven", false, false, 13},
	CategoryDishwasher:   {"Dishwasher", false, false, 14},
	CategorySofa:         {"Sofa", false, false, 15},
	CategoryFireplace:    {"Fireplace", false, false, 16},
	CategoryTelevision:   {"TV", false, false, 17},
	CategoryObject:       {"Object", false, false, 18},
	CategoryWall:         {"Wall", true, true, 19},
	CategoryOpening:      {"Opening", false, false, -1},
}

var categoryAliases = map[string]Category{
	"fridge": CategoryRefrigerator,
	"washer": CategoryWasherDryer,
	"dryer":  CategoryWasherDryer,
}

// ParseCategory resolves a capture name, hotspot label or alias. Matching
// is case-insensitive. Unrecognised names fall back to CategoryObject.
func ParseCategory(name string) Category {
	c, ok := lookupCategory(name)
	if !ok {
		return CategoryObject
	}
	return c
}

func lookupCategory(name string) (Category, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", false
	}
	for c, info := range categories {
		if strings.ToLower(string(c)) == key || strings.ToLower(info.label) == key {
			return c, true
		}
	}
	c, ok := categoryAliases[key]
	return c, ok
}

// Label is the title used for hotspots of this category.
func (c Category) Label() string {
	if info, ok := categories[c]; ok {
		return info.label
	}
	return categories[CategoryObject].label
}

// DefaultVisibility reports whether the category is drawn in the template
// and color map passes when the caller supplies no configuration.
func (c Category) DefaultVisibility() (template, colorMap bool) {
	info, ok := categories[c]
	if !ok {
		return false, false
	}
	return info.template, info.colorMap
}

// Renderable reports whether the category can produce a layer.
func (c Category) Renderable() bool {
	info, ok := categories[c]
	return ok && info.renderOrder >= 0
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

func (c Category) String() string {
	return string(c)
}

// RenderableCategories returns every renderable category in default
// priority order, highest priority first.
func RenderableCategories() []Category {
	out := make([]Category, 0, len(categories))
	for c, info := range categories {
		if info.renderOrder >= 0 {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return categories[out[i]].renderOrder < categories[out[j]].renderOrder
	})
	return out
}

// categoryFromAny accepts either a plain name or the RoomPlan tagged form
// {"door": {"isOpen": false}}, where the single key names the category.
func categoryFromAny(v interface{}) (Category, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return ParseCategory(t), nil
	case map[string]interface{}:
		for k := range t {
			return ParseCategory(k), nil
		}
		return "", fmt.Errorf("empty category object")
	case map[interface{}]interface{}:
		for k := range t {
			return ParseCategory(fmt.Sprint(k)), nil
		}
		return "", fmt.Errorf("empty category object")
	default:
		return "", fmt.Errorf("unsupported category value of type %T", v)
	}
}

func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(c))
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := categoryFromAny(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c *Category) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*c = ParseCategory(value.Value)
		return nil
	case yaml.MappingNode:
		if len(value.Content) == 0 {
			return fmt.Errorf("line %d: empty category mapping", value.Line)
		}
		*c = ParseCategory(value.Content[0].Value)
		return nil
	default:
		return fmt.Errorf("line %d: unsupported category node", value.Line)
	}
}

func (c Category) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(string(c))
}

func (c *Category) DecodeMsgpack(dec *msgpack.Decoder) error {
	raw, err := dec.DecodeInterface()
	if err != nil {
		return err
	}
	parsed, err := categoryFromAny(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
