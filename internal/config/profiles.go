package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"camio-service/internal/models"
)

// Profiles maps a profile name to an ordered render configuration.
type Profiles map[string]models.RenderConfig

type profilesFile struct {
	Profiles map[string]models.RenderConfig `yaml:"profiles"`
}

// LoadRenderProfiles reads named render configurations from a YAML file:
//
//	profiles:
//	  kitchen:
//	    - {category: refrigerator, template: true, colorMap: true}
//	    - {category: wall, template: true, colorMap: true}
//
// An empty path yields an empty set.
func LoadRenderProfiles(path string) (Profiles, error) {
	if path == "" {
		return Profiles{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read render profiles: %w", err)
	}
	return ParseRenderProfiles(data)
}

// ParseRenderProfiles decodes the YAML document described in
// LoadRenderProfiles.
func ParseRenderProfiles(data []byte) (Profiles, error) {
	var f profilesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid render profiles: %w", err)
	}
	out := make(Profiles, len(f.Profiles))
	for name, cfg := range f.Profiles {
		if name == "" {
			return nil, fmt.Errorf("render profile with empty name")
		}
		cfg = cfg.Normalize()
		if len(cfg) == 0 {
			return nil, fmt.Errorf("render profile %q has no entries", name)
		}
		out[name] = cfg
	}
	return out, nil
}

// Get returns a copy of the named profile.
func (p Profiles) Get(name string) (models.RenderConfig, bool) {
	cfg, ok := p[name]
	if !ok {
		return nil, false
	}
	return append(models.RenderConfig(nil), cfg...), true
}

// Names lists the profile names in sorted order.
func (p Profiles) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
