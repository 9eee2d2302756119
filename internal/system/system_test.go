package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coresys "github.com/spawncore/engine/internal/core/system"
	"github.com/spawncore/engine/internal/entity"
	"github.com/spawncore/engine/internal/pool"
)

type crate struct {
	entity.Base
}

func crateTemplate(id string) pool.Template[*crate] {
	return pool.Template[*crate]{
		ID:  id,
		New: func() (*crate, error) { return &crate{}, nil },
	}
}

func TestFlushSystemDrainsBuffers(t *testing.T) {
	mgr := pool.NewManager(nil, nil)
	p, err := pool.GetOrCreate(mgr, crateTemplate("crate"), pool.Request{AllowExpansion: true})
	require.NoError(t, err)

	mgr.Buffer("crate").EnqueueSpawn(entity.Vec3{}, entity.Vec3{}, nil)

	sys := NewFlushSystem(mgr)
	assert.Equal(t, coresys.PhaseFlush, sys.Phase())
	sys.Update(50 * time.Millisecond)
	assert.Equal(t, 1, p.Active())
}

func TestCullSystemHonorsInterval(t *testing.T) {
	mgr := pool.NewManager(nil, nil)
	_, err := pool.GetOrCreate(mgr, crateTemplate("idle"), pool.Request{})
	require.NoError(t, err)

	sys := NewCullSystem(mgr, 0, 100*time.Millisecond, nil)
	assert.Equal(t, coresys.PhaseMaintain, sys.Phase())

	sys.Update(40 * time.Millisecond)
	assert.Equal(t, 1, mgr.Len(), "interval not yet elapsed")

	sys.Update(70 * time.Millisecond)
	assert.Equal(t, 0, mgr.Len(), "idle pool culled once the interval elapses")
}

func TestCullSystemDisabled(t *testing.T) {
	mgr := pool.NewManager(nil, nil)
	_, err := pool.GetOrCreate(mgr, crateTemplate("idle"), pool.Request{})
	require.NoError(t, err)

	sys := NewCullSystem(mgr, 0, 0, nil)
	sys.Update(time.Hour)
	assert.Equal(t, 1, mgr.Len())
}

func TestStatsSystemPublishesToSink(t *testing.T) {
	mgr := pool.NewManager(nil, nil)
	p, err := pool.GetOrCreate(mgr, crateTemplate("crate"), pool.Request{AllowExpansion: true})
	require.NoError(t, err)
	_, err = p.Spawn(entity.Vec3{}, entity.Vec3{}, nil)
	require.NoError(t, err)

	var got *pool.GlobalSnapshot
	sys := NewStatsSystem(mgr, 100*time.Millisecond, func(g pool.GlobalSnapshot) { got = &g }, nil)
	assert.Equal(t, coresys.PhaseTelemetry, sys.Phase())

	sys.Update(40 * time.Millisecond)
	assert.Nil(t, got)

	sys.Update(70 * time.Millisecond)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.PoolCount)
	assert.Equal(t, 1, got.Active)
}
