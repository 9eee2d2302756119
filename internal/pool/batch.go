package pool

import (
	"errors"

	"github.com/spawncore/engine/internal/entity"
)

// SpawnBatch spawns one instance per position. Rotations pair up by index;
// a short rotations slice falls back to the zero orientation. Returns the
// number spawned. Stops early once the pool reports exhaustion, since every
// remaining item would fail the same way.
func (p *Pool[T]) SpawnBatch(positions, rotations []entity.Vec3, parent *entity.Node) int {
	count := 0
	for i := range positions {
		var rot entity.Vec3
		if i < len(rotations) {
			rot = rotations[i]
		}
		if _, err := p.Spawn(positions[i], rot, parent); err != nil {
			if errors.Is(err, ErrExhausted) || errors.Is(err, ErrDestroyed) {
				break
			}
			continue
		}
		count++
	}
	return count
}

// SpawnBatchInto is the non-allocating variant: spawned instances are
// written into dst, and spawning stops when dst is full.
func (p *Pool[T]) SpawnBatchInto(dst []T, positions, rotations []entity.Vec3, parent *entity.Node) int {
	count := 0
	for i := range positions {
		if count >= len(dst) {
			break
		}
		var rot entity.Vec3
		if i < len(rotations) {
			rot = rotations[i]
		}
		inst, err := p.Spawn(positions[i], rot, parent)
		if err != nil {
			if errors.Is(err, ErrExhausted) || errors.Is(err, ErrDestroyed) {
				break
			}
			continue
		}
		dst[count] = inst
		count++
	}
	return count
}

// SpawnGrid spawns cols x rows instances on the XZ plane starting at origin,
// spaced evenly. Convenience over SpawnBatch for formation layouts.
func (p *Pool[T]) SpawnGrid(origin entity.Vec3, cols, rows int, spacing float64, parent *entity.Node) int {
	count := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			pos := entity.Vec3{
				X: origin.X + float64(c)*spacing,
				Y: origin.Y,
				Z: origin.Z + float64(r)*spacing,
			}
			if _, err := p.Spawn(pos, entity.Vec3{}, parent); err != nil {
				if errors.Is(err, ErrExhausted) || errors.Is(err, ErrDestroyed) {
					return count
				}
				continue
			}
			count++
		}
	}
	return count
}
