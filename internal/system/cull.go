package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/spawncore/engine/internal/core/system"
	"github.com/spawncore/engine/internal/pool"
)

// CullSystem periodically destroys pools that have sat idle with no active
// instances. Interval 0 disables it without unregistering.
type CullSystem struct {
	mgr      *pool.Manager
	log      *zap.Logger
	after    time.Duration
	interval time.Duration
	elapsed  time.Duration
}

func NewCullSystem(mgr *pool.Manager, after, interval time.Duration, log *zap.Logger) *CullSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &CullSystem{mgr: mgr, log: log, after: after, interval: interval}
}

func (s *CullSystem) Phase() coresys.Phase { return coresys.PhaseMaintain }

func (s *CullSystem) Update(dt time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	if n := s.mgr.CullUnusedPools(s.after); n > 0 {
		s.log.Info("idle pools culled", zap.Int("count", n))
	}
}
