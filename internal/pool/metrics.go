package pool

import "time"

// Tracker accumulates one pool's lifetime counters and activity timestamps.
// Owning goroutine only, like the pool it belongs to.
type Tracker struct {
	spawned    uint64
	despawned  uint64
	created    uint64
	destroyed  uint64
	expansions uint64
	culls      uint64

	createdAt    time.Time
	lastExpand   time.Time
	lastCull     time.Time
	lastActivity time.Time
}

func NewTracker() *Tracker {
	now := time.Now()
	return &Tracker{createdAt: now, lastActivity: now}
}

func (t *Tracker) RecordSpawn() {
	t.spawned++
	t.lastActivity = time.Now()
}

func (t *Tracker) RecordDespawn() {
	t.despawned++
	t.lastActivity = time.Now()
}

func (t *Tracker) RecordCreate() {
	t.created++
	t.lastActivity = time.Now()
}

func (t *Tracker) RecordDestroy() {
	t.destroyed++
}

func (t *Tracker) RecordExpansion() {
	now := time.Now()
	t.expansions++
	t.lastExpand = now
	t.lastActivity = now
}

func (t *Tracker) RecordCull() {
	now := time.Now()
	t.culls++
	t.lastCull = now
}

// LastActivity is the time of the most recent spawn, despawn, create or
// expansion. Used by idle-pool culling.
func (t *Tracker) LastActivity() time.Time { return t.lastActivity }

// Snapshot copies the tracker's current state into an immutable value.
func (t *Tracker) Snapshot(poolID string) Snapshot {
	return Snapshot{
		PoolID:       poolID,
		Spawned:      t.spawned,
		Despawned:    t.despawned,
		Created:      t.created,
		Destroyed:    t.destroyed,
		Expansions:   t.expansions,
		Culls:        t.culls,
		CreatedAt:    t.createdAt,
		LastExpand:   t.lastExpand,
		LastCull:     t.lastCull,
		LastActivity: t.lastActivity,
	}
}

// Snapshot is a point-in-time copy of a Tracker. Never mutated after
// construction; derived values are computed on read.
type Snapshot struct {
	PoolID string

	Spawned    uint64
	Despawned  uint64
	Created    uint64
	Destroyed  uint64
	Expansions uint64
	Culls      uint64

	CreatedAt    time.Time
	LastExpand   time.Time
	LastCull     time.Time
	LastActivity time.Time
}

// CurrentActive is spawned minus despawned. Deliberately signed and never
// clamped: a negative value means mismatched bookkeeping somewhere upstream,
// and clamping would hide that signal.
func (s Snapshot) CurrentActive() int64 {
	return int64(s.Spawned) - int64(s.Despawned)
}

// ReuseEfficiency is the fraction of spawns served without a fresh
// allocation, clamped to [0,1]. Zero spawns reads as zero efficiency.
func (s Snapshot) ReuseEfficiency() float64 {
	if s.Spawned == 0 {
		return 0
	}
	eff := (float64(s.Spawned) - float64(s.Created)) / float64(s.Spawned)
	if eff < 0 {
		return 0
	}
	if eff > 1 {
		return 1
	}
	return eff
}

// CreatesPerSpawn is the average number of fresh allocations per spawn.
func (s Snapshot) CreatesPerSpawn() float64 {
	if s.Spawned == 0 {
		return 0
	}
	return float64(s.Created) / float64(s.Spawned)
}

// Merge combines two snapshots: counters are summed, creation time is the
// earliest non-zero, last-X timestamps are the latest. Commutative and
// associative, so aggregates can be folded in any order.
func (s Snapshot) Merge(o Snapshot) Snapshot {
	out := Snapshot{
		Spawned:      s.Spawned + o.Spawned,
		Despawned:    s.Despawned + o.Despawned,
		Created:      s.Created + o.Created,
		Destroyed:    s.Destroyed + o.Destroyed,
		Expansions:   s.Expansions + o.Expansions,
		Culls:        s.Culls + o.Culls,
		CreatedAt:    minNonZero(s.CreatedAt, o.CreatedAt),
		LastExpand:   maxTime(s.LastExpand, o.LastExpand),
		LastCull:     maxTime(s.LastCull, o.LastCull),
		LastActivity: maxTime(s.LastActivity, o.LastActivity),
	}
	if s.PoolID == o.PoolID {
		out.PoolID = s.PoolID
	}
	return out
}

func minNonZero(a, b time.Time) time.Time {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	if b.Before(a) {
		return b
	}
	return a
}

func maxTime(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
