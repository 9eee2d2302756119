package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[logging]
level = "debug"
`))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 50*time.Millisecond, cfg.Engine.TickRate)
	assert.Equal(t, "data/presets.yaml", cfg.Engine.PresetFile)
	assert.Equal(t, 16, cfg.Pools.ContainerBound)
	assert.Equal(t, 5*time.Minute, cfg.Pools.CullAfter)
}

func TestLoadParsesDurations(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[engine]
tick_rate = "25ms"

[pools]
cull_after = "90s"
cull_interval = "1m"

[telemetry]
listen_addr = ":9120"
stats_interval = "5s"
`))
	require.NoError(t, err)
	assert.Equal(t, 25*time.Millisecond, cfg.Engine.TickRate)
	assert.Equal(t, 90*time.Second, cfg.Pools.CullAfter)
	assert.Equal(t, time.Minute, cfg.Pools.CullInterval)
	assert.Equal(t, ":9120", cfg.Telemetry.ListenAddr)
	assert.Equal(t, 5*time.Second, cfg.Telemetry.StatsInterval)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoadBadToml(t *testing.T) {
	_, err := Load(writeConfig(t, "not toml ]["))
	assert.Error(t, err)
}
