package pool

import "time"

// GlobalSnapshot is a point-in-time view across every registered pool.
// Built on demand, never mutated afterwards.
type GlobalSnapshot struct {
	TakenAt   time.Time
	PoolCount int
	Active    int
	Inactive  int
	Pools     map[string]Snapshot
}

// Aggregate folds all per-pool snapshots into one via Merge.
func (g GlobalSnapshot) Aggregate() Snapshot {
	var out Snapshot
	first := true
	for _, s := range g.Pools {
		if first {
			out = s
			first = false
			continue
		}
		out = out.Merge(s)
	}
	out.PoolID = ""
	return out
}

// Snapshot captures the state of every registered pool.
func (m *Manager) Snapshot() GlobalSnapshot {
	g := GlobalSnapshot{
		TakenAt:   time.Now(),
		PoolCount: len(m.pools),
		Pools:     make(map[string]Snapshot, len(m.pools)),
	}
	for id, p := range m.pools {
		g.Active += p.Active()
		g.Inactive += p.Inactive()
		g.Pools[id] = p.Metrics()
	}
	return g
}

// TakeSnapshot captures one pool's metrics by identity.
func (m *Manager) TakeSnapshot(id string) (Snapshot, bool) {
	p, ok := m.pools[id]
	if !ok {
		return Snapshot{}, false
	}
	return p.Metrics(), true
}
