package cli

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile is a saved export: which screen, which filters, where to write.
type Profile struct {
	Screen  string            `yaml:"screen"`
	Format  string            `yaml:"format"`
	Search  string            `yaml:"search"`
	Filters map[string]string `yaml:"filters"`
	Output  string            `yaml:"output"`
}

// LoadProfile reads a YAML export profile.
func LoadProfile(path string) (Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("profile: read %s: %w", path, err)
	}
	return ParseProfile(raw)
}

// ParseProfile decodes a YAML export profile. Unknown keys are rejected so
// typos in filter blocks surface early.
func ParseProfile(raw []byte) (Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(strings.NewReader(string(raw)))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("profile: decode: %w", err)
	}
	p.Screen = strings.ToLower(strings.TrimSpace(p.Screen))
	p.Format = strings.ToLower(strings.TrimSpace(p.Format))
	return p, nil
}

// merge overlays non-empty fields from o onto p.
func (p Profile) merge(o Profile) Profile {
	if o.Screen != "" {
		p.Screen = o.Screen
	}
	if o.Format != "" {
		p.Format = o.Format
	}
	if o.Search != "" {
		p.Search = o.Search
	}
	if o.Output != "" {
		p.Output = o.Output
	}
	if len(o.Filters) > 0 {
		merged := make(map[string]string, len(p.Filters)+len(o.Filters))
		for k, v := range p.Filters {
			merged[k] = v
		}
		for k, v := range o.Filters {
			merged[k] = v
		}
		p.Filters = merged
	}
	return p
}
