package pool

import (
	"go.uber.org/zap"

	"github.com/spawncore/engine/internal/entity"
)

type spawnCmd struct {
	pos    entity.Vec3
	rot    entity.Vec3
	parent *entity.Node
}

type batchCmd struct {
	positions []entity.Vec3
	rotations []entity.Vec3
	parent    *entity.Node
}

type returnCmd struct {
	inst entity.Recyclable
}

// CommandBuffer is the sole bridge between worker goroutines and a pool.
// Enqueue methods are lock-free and safe from any goroutine; FlushTo drains
// everything on the pool's owning goroutine. Three independent queues keep
// the flush order fixed: returns run first so the capacity they free is
// reusable by the batch and single spawns in the same flush.
type CommandBuffer struct {
	returns mpscQueue[returnCmd]
	batches mpscQueue[batchCmd]
	singles mpscQueue[spawnCmd]
	log     *zap.Logger
}

func NewCommandBuffer(log *zap.Logger) *CommandBuffer {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommandBuffer{log: log}
}

// EnqueueSpawn defers one spawn until the next flush.
func (b *CommandBuffer) EnqueueSpawn(pos, rot entity.Vec3, parent *entity.Node) {
	b.singles.push(spawnCmd{pos: pos, rot: rot, parent: parent})
}

// EnqueueBatch defers a batch spawn. The position and rotation slices are
// referenced, not copied; mutating them before the flush leaves the
// resulting transforms undefined. Use EnqueueBatchCopy when the caller
// cannot guarantee slice stability.
func (b *CommandBuffer) EnqueueBatch(positions, rotations []entity.Vec3, parent *entity.Node) {
	if len(positions) == 0 {
		return
	}
	b.batches.push(batchCmd{positions: positions, rotations: rotations, parent: parent})
}

// EnqueueBatchCopy is EnqueueBatch with the slices deep-copied at enqueue
// time.
func (b *CommandBuffer) EnqueueBatchCopy(positions, rotations []entity.Vec3, parent *entity.Node) {
	if len(positions) == 0 {
		return
	}
	ps := make([]entity.Vec3, len(positions))
	copy(ps, positions)
	var rs []entity.Vec3
	if len(rotations) > 0 {
		rs = make([]entity.Vec3, len(rotations))
		copy(rs, rotations)
	}
	b.batches.push(batchCmd{positions: ps, rotations: rs, parent: parent})
}

// EnqueueReturn defers returning an instance to its pool.
func (b *CommandBuffer) EnqueueReturn(r entity.Recyclable) {
	if r == nil {
		return
	}
	b.returns.push(returnCmd{inst: r})
}

// Pending is an approximate count of queued commands (batches count as one).
func (b *CommandBuffer) Pending() int {
	return b.returns.pending() + b.batches.pending() + b.singles.pending()
}

// Clear drops every queued command unconditionally. Teardown only.
func (b *CommandBuffer) Clear() int {
	return b.returns.clear() + b.batches.clear() + b.singles.clear()
}

// FlushTo drains all queued commands into target: returns, then batches,
// then singles. Each command runs behind its own recover, so one failure is
// logged and skipped without aborting the rest. Returns the number of
// operations that succeeded, counting batch spawns per item. Owning
// goroutine only.
func (b *CommandBuffer) FlushTo(target Managed) int {
	processed := 0

	for _, cmd := range b.returns.drain() {
		if b.runReturn(target, cmd) {
			processed++
		}
	}
	for _, cmd := range b.batches.drain() {
		processed += b.runBatch(target, cmd)
	}
	for _, cmd := range b.singles.drain() {
		if b.runSpawn(target, cmd) {
			processed++
		}
	}
	return processed
}

func (b *CommandBuffer) runReturn(target Managed, cmd returnCmd) (ok bool) {
	defer b.recoverCmd("return")
	return target.ReturnToPool(cmd.inst)
}

func (b *CommandBuffer) runBatch(target Managed, cmd batchCmd) (count int) {
	defer b.recoverCmd("batch-spawn")
	for i := range cmd.positions {
		var rot entity.Vec3
		if i < len(cmd.rotations) {
			rot = cmd.rotations[i]
		}
		if _, err := target.spawnAny(cmd.positions[i], rot, cmd.parent); err == nil {
			count++
		}
	}
	return count
}

func (b *CommandBuffer) runSpawn(target Managed, cmd spawnCmd) (ok bool) {
	defer b.recoverCmd("spawn")
	_, err := target.spawnAny(cmd.pos, cmd.rot, cmd.parent)
	return err == nil
}

func (b *CommandBuffer) recoverCmd(kind string) {
	if r := recover(); r != nil {
		b.log.Error("command failed during flush",
			zap.String("kind", kind),
			zap.Any("panic", r))
	}
}
