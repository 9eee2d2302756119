package system

import (
	"time"

	coresys "github.com/spawncore/engine/internal/core/system"
	"github.com/spawncore/engine/internal/pool"
)

// FlushSystem drives the manager's per-tick hook: pending bootstraps, then
// command-buffer drains. Runs after simulation so work queued this tick is
// applied this tick.
type FlushSystem struct {
	mgr *pool.Manager
}

func NewFlushSystem(mgr *pool.Manager) *FlushSystem {
	return &FlushSystem{mgr: mgr}
}

func (s *FlushSystem) Phase() coresys.Phase { return coresys.PhaseFlush }

func (s *FlushSystem) Update(dt time.Duration) {
	s.mgr.Tick()
}
