package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerSnapshot(t *testing.T) {
	tr := NewTracker()
	tr.RecordCreate()
	tr.RecordSpawn()
	tr.RecordSpawn()
	tr.RecordDespawn()
	tr.RecordExpansion()
	tr.RecordCull()
	tr.RecordDestroy()

	s := tr.Snapshot("bullet")
	assert.Equal(t, "bullet", s.PoolID)
	assert.Equal(t, uint64(2), s.Spawned)
	assert.Equal(t, uint64(1), s.Despawned)
	assert.Equal(t, uint64(1), s.Created)
	assert.Equal(t, uint64(1), s.Destroyed)
	assert.Equal(t, uint64(1), s.Expansions)
	assert.Equal(t, uint64(1), s.Culls)
	assert.False(t, s.CreatedAt.IsZero())
	assert.False(t, s.LastActivity.IsZero())
}

func TestSnapshotDerivedValues(t *testing.T) {
	s := Snapshot{Spawned: 10, Despawned: 4, Created: 3}
	assert.Equal(t, int64(6), s.CurrentActive())
	assert.InDelta(t, 0.7, s.ReuseEfficiency(), 1e-9)
	assert.InDelta(t, 0.3, s.CreatesPerSpawn(), 1e-9)

	// More despawns than spawns stays signed, never clamped.
	neg := Snapshot{Spawned: 2, Despawned: 5}
	assert.Equal(t, int64(-3), neg.CurrentActive())

	// Bad data clamp: created above spawned floors efficiency at zero.
	bad := Snapshot{Spawned: 3, Created: 9}
	assert.Equal(t, 0.0, bad.ReuseEfficiency())

	// No spawns at all.
	empty := Snapshot{}
	assert.Equal(t, 0.0, empty.ReuseEfficiency())
	assert.Equal(t, 0.0, empty.CreatesPerSpawn())
}

func TestSnapshotMergeSumsAndTimestamps(t *testing.T) {
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	a := Snapshot{
		PoolID: "a", Spawned: 5, Despawned: 3, Created: 2, Destroyed: 1,
		Expansions: 1, Culls: 0,
		CreatedAt: early, LastExpand: late, LastActivity: early,
	}
	b := Snapshot{
		PoolID: "b", Spawned: 7, Despawned: 2, Created: 4, Destroyed: 0,
		Expansions: 0, Culls: 2,
		CreatedAt: late, LastCull: late, LastActivity: late,
	}

	m := a.Merge(b)
	assert.Equal(t, uint64(12), m.Spawned)
	assert.Equal(t, uint64(5), m.Despawned)
	assert.Equal(t, uint64(6), m.Created)
	assert.Equal(t, uint64(1), m.Destroyed)
	assert.Equal(t, uint64(1), m.Expansions)
	assert.Equal(t, uint64(2), m.Culls)
	assert.Equal(t, early, m.CreatedAt)
	assert.Equal(t, late, m.LastExpand)
	assert.Equal(t, late, m.LastCull)
	assert.Equal(t, late, m.LastActivity)
	assert.Empty(t, m.PoolID, "differing identities merge to anonymous")

	// Zero creation time on one side never wins the minimum.
	z := Snapshot{}
	assert.Equal(t, early, a.Merge(z).CreatedAt)
	assert.Equal(t, early, z.Merge(a).CreatedAt)
}

func TestSnapshotMergeCommutativeAssociative(t *testing.T) {
	t1 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	t3 := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	a := Snapshot{Spawned: 1, Created: 1, CreatedAt: t2, LastActivity: t1}
	b := Snapshot{Spawned: 2, Despawned: 1, CreatedAt: t1, LastActivity: t3}
	c := Snapshot{Spawned: 4, Culls: 1, CreatedAt: t3, LastCull: t2}

	require.Equal(t, a.Merge(b), b.Merge(a))
	require.Equal(t, a.Merge(b).Merge(c), a.Merge(b.Merge(c)))
}

func TestSnapshotMergeSameIDKeepsID(t *testing.T) {
	a := Snapshot{PoolID: "bullet", Spawned: 1}
	b := Snapshot{PoolID: "bullet", Spawned: 2}
	assert.Equal(t, "bullet", a.Merge(b).PoolID)
}
