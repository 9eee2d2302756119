package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spawncore/engine/internal/entity"
)

func TestQueueDrainIsFIFO(t *testing.T) {
	var q mpscQueue[int]
	for i := 0; i < 5; i++ {
		q.push(i)
	}
	assert.Equal(t, 5, q.pending())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, q.drain())
	assert.Equal(t, 0, q.pending())
	assert.Nil(t, q.drain())
}

func TestQueueClear(t *testing.T) {
	var q mpscQueue[int]
	q.push(1)
	q.push(2)
	assert.Equal(t, 2, q.clear())
	assert.Equal(t, 0, q.pending())
}

// Two returns and three spawns against a full pool of three with two out:
// all five only succeed if the returns free capacity before the spawns run.
func TestFlushOrderReturnsFirst(t *testing.T) {
	p := mustPool(t, Request{InitialSize: 3, MaxSize: 3, Prepopulate: true}, nil)
	a, err := p.Spawn(entity.Vec3{}, entity.Vec3{}, nil)
	require.NoError(t, err)
	b, err := p.Spawn(entity.Vec3{}, entity.Vec3{}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, p.Active())
	require.Equal(t, 1, p.Inactive())

	buf := NewCommandBuffer(nil)
	buf.EnqueueSpawn(entity.Vec3{X: 1}, entity.Vec3{}, nil)
	buf.EnqueueSpawn(entity.Vec3{X: 2}, entity.Vec3{}, nil)
	buf.EnqueueSpawn(entity.Vec3{X: 3}, entity.Vec3{}, nil)
	buf.EnqueueReturn(a)
	buf.EnqueueReturn(b)
	assert.Equal(t, 5, buf.Pending())

	processed := buf.FlushTo(p)
	assert.Equal(t, 5, processed)
	assert.Equal(t, 3, p.Active())
	assert.Equal(t, 0, p.Inactive())
	assert.Equal(t, 0, buf.Pending())
	checkInvariant(t, p)
}

func TestFlushBatchCountsPerItem(t *testing.T) {
	p := mustPool(t, Request{MaxSize: 2}, nil)
	buf := NewCommandBuffer(nil)
	buf.EnqueueBatch([]entity.Vec3{{X: 1}, {X: 2}, {X: 3}}, nil, nil)

	// Capacity 2: only two of the three batch items can spawn.
	processed := buf.FlushTo(p)
	assert.Equal(t, 2, processed)
	assert.Equal(t, 2, p.Active())
}

func TestFlushIsolatesFailures(t *testing.T) {
	next := 0
	tmpl := Template[*testEnt]{
		ID: "flaky",
		New: func() (*testEnt, error) {
			next++
			return &testEnt{failSpawn: next == 3}, nil
		},
	}
	p, err := NewPool(tmpl, Request{AllowExpansion: true}, nil, nil)
	require.NoError(t, err)

	buf := NewCommandBuffer(nil)
	for i := 0; i < 4; i++ {
		buf.EnqueueSpawn(entity.Vec3{}, entity.Vec3{}, nil)
	}
	processed := buf.FlushTo(p)
	assert.Equal(t, 3, processed, "one activation failure skipped, rest proceed")
	assert.Equal(t, 3, p.Active())
}

func TestBatchReferencesCallerSlices(t *testing.T) {
	var made []*testEnt
	tmpl := Template[*testEnt]{
		ID: "observer",
		New: func() (*testEnt, error) {
			e := &testEnt{}
			made = append(made, e)
			return e, nil
		},
	}
	p, err := NewPool(tmpl, Request{AllowExpansion: true}, nil, nil)
	require.NoError(t, err)

	positions := []entity.Vec3{{X: 1}, {X: 2}}

	refBuf := NewCommandBuffer(nil)
	refBuf.EnqueueBatch(positions, nil, nil)
	copyBuf := NewCommandBuffer(nil)
	copyBuf.EnqueueBatchCopy(positions, nil, nil)

	// Mutation after enqueue: visible through the referencing buffer only.
	positions[0] = entity.Vec3{X: 99}

	require.Equal(t, 2, refBuf.FlushTo(p))
	require.Equal(t, 2, copyBuf.FlushTo(p))

	var xs []float64
	for _, inst := range made {
		xs = append(xs, inst.Transform().Pos.X)
	}
	assert.ElementsMatch(t, []float64{99, 2, 1, 2}, xs)
}

func TestConcurrentEnqueue(t *testing.T) {
	p := mustPool(t, Request{AllowExpansion: true}, nil)
	buf := NewCommandBuffer(nil)

	const workers = 8
	const perWorker = 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				buf.EnqueueSpawn(entity.Vec3{}, entity.Vec3{}, nil)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker, buf.Pending())
	assert.Equal(t, workers*perWorker, buf.FlushTo(p))
	assert.Equal(t, workers*perWorker, p.Active())
	checkInvariant(t, p)
}

func TestBufferClear(t *testing.T) {
	buf := NewCommandBuffer(nil)
	buf.EnqueueSpawn(entity.Vec3{}, entity.Vec3{}, nil)
	buf.EnqueueBatch([]entity.Vec3{{X: 1}}, nil, nil)
	buf.EnqueueReturn(&testEnt{})
	assert.Equal(t, 3, buf.Clear())
	assert.Equal(t, 0, buf.Pending())

	p := mustPool(t, Request{AllowExpansion: true}, nil)
	assert.Equal(t, 0, buf.FlushTo(p))
}

func TestEnqueueIgnoresEmpty(t *testing.T) {
	buf := NewCommandBuffer(nil)
	buf.EnqueueReturn(nil)
	buf.EnqueueBatch(nil, nil, nil)
	buf.EnqueueBatchCopy(nil, nil, nil)
	assert.Equal(t, 0, buf.Pending())
}
