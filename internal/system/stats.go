package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/spawncore/engine/internal/core/system"
	"github.com/spawncore/engine/internal/pool"
)

// StatsSystem periodically snapshots the manager, logs the aggregate, and
// hands the snapshot to an optional sink (the prometheus collector).
type StatsSystem struct {
	mgr      *pool.Manager
	log      *zap.Logger
	interval time.Duration
	elapsed  time.Duration
	sink     func(pool.GlobalSnapshot)
}

func NewStatsSystem(mgr *pool.Manager, interval time.Duration, sink func(pool.GlobalSnapshot), log *zap.Logger) *StatsSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &StatsSystem{mgr: mgr, log: log, interval: interval, sink: sink}
}

func (s *StatsSystem) Phase() coresys.Phase { return coresys.PhaseTelemetry }

func (s *StatsSystem) Update(dt time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0

	snap := s.mgr.Snapshot()
	agg := snap.Aggregate()
	s.log.Info("pool stats",
		zap.Int("pools", snap.PoolCount),
		zap.Int("active", snap.Active),
		zap.Int("inactive", snap.Inactive),
		zap.Uint64("spawned", agg.Spawned),
		zap.Uint64("created", agg.Created),
		zap.Float64("reuse", agg.ReuseEfficiency()))
	if s.sink != nil {
		s.sink(snap)
	}
}
