package data

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spawncore/engine/internal/pool"
)

// Preset is one entry of the YAML pool table. Presets describe pool
// configuration only; the entity factory is bound at registration time,
// either a scripted entity (script set) or a plain one.
type Preset struct {
	ID          string `yaml:"id"`
	Category    string `yaml:"category"`
	InitialSize int    `yaml:"initial_size"`
	MaxSize     int    `yaml:"max_size"`
	Prepopulate bool   `yaml:"prepopulate"`
	Timing      string `yaml:"timing"`
	Event       string `yaml:"event"`
	Expand      bool   `yaml:"allow_expansion"`
	CullExcess  bool   `yaml:"cull_excess"`
	Script      string `yaml:"script"`
}

type presetTable struct {
	Presets []Preset `yaml:"presets"`
}

// LoadPresets reads the YAML pool table at path. IDs must be present and
// unique; size clamping is left to the pool layer.
func LoadPresets(path string) ([]Preset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset table: %w", err)
	}
	var t presetTable
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse preset table %s: %w", path, err)
	}
	seen := make(map[string]bool, len(t.Presets))
	for i, p := range t.Presets {
		if p.ID == "" {
			return nil, fmt.Errorf("preset table %s: entry %d has no id", path, i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("preset table %s: duplicate id %q", path, p.ID)
		}
		seen[p.ID] = true
		if _, err := TimingFromString(p.Timing); err != nil {
			return nil, fmt.Errorf("preset table %s: %q: %w", path, p.ID, err)
		}
	}
	return t.Presets, nil
}

// ToRequest converts the preset into a pool request.
func (p Preset) ToRequest() pool.Request {
	timing, _ := TimingFromString(p.Timing) // validated at load
	return pool.Request{
		InitialSize:    p.InitialSize,
		MaxSize:        p.MaxSize,
		Prepopulate:    p.Prepopulate,
		Timing:         timing,
		EventName:      p.Event,
		AllowExpansion: p.Expand,
		CullExcess:     p.CullExcess,
		Category:       p.Category,
	}
}

// TimingFromString maps the YAML timing names onto pool timings. An empty
// string means lazy.
func TimingFromString(s string) (pool.Timing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lazy":
		return pool.TimingLazy, nil
	case "immediate":
		return pool.TimingImmediate, nil
	case "next-tick", "next_tick":
		return pool.TimingNextTick, nil
	case "boot":
		return pool.TimingBoot, nil
	case "post-boot", "post_boot":
		return pool.TimingPostBoot, nil
	case "event":
		return pool.TimingEvent, nil
	}
	return pool.TimingLazy, fmt.Errorf("unknown timing %q", s)
}
