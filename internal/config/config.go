package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Engine    EngineConfig    `toml:"engine"`
	Pools     PoolsConfig     `toml:"pools"`
	Logging   LoggingConfig   `toml:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

type EngineConfig struct {
	Name          string        `toml:"name"`
	TickRate      time.Duration `toml:"tick_rate"`
	PresetFile    string        `toml:"preset_file"`
	ScriptFile    string        `toml:"script_file"`
	LoadGenerator bool          `toml:"load_generator"` // demo churn against the command buffers
}

type PoolsConfig struct {
	ContainerBound int           `toml:"container_bound"` // per-bucket cap of the container store
	CullAfter      time.Duration `toml:"cull_after"`      // idle time before a pool is culled
	CullInterval   time.Duration `toml:"cull_interval"`   // 0 disables automatic culling
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type TelemetryConfig struct {
	ListenAddr    string        `toml:"listen_addr"` // prometheus endpoint, "" disables
	StatsInterval time.Duration `toml:"stats_interval"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			Name:       "spawncore",
			TickRate:   50 * time.Millisecond,
			PresetFile: "data/presets.yaml",
			ScriptFile: "scripts/hooks.lua",
		},
		Pools: PoolsConfig{
			ContainerBound: 16,
			CullAfter:      5 * time.Minute,
			CullInterval:   30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Telemetry: TelemetryConfig{
			StatsInterval: 10 * time.Second,
		},
	}
}
