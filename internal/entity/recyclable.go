package entity

// Recyclable is the capability every pooled instance must expose. The pool
// engine calls the three lifecycle hooks at defined points, always on the
// owning goroutine:
//
//   - OnSpawned: after the transform is applied, instance is live
//   - OnDespawned: while the instance is still active (stop effects here)
//   - PoolReset: after deactivation, normalize state for the next reuse
//
// Embed Base to get no-op hooks plus handle and transform storage.
type Recyclable interface {
	OnSpawned()
	OnDespawned()
	PoolReset()
	Handle() *Handle
	Transform() *Transform
}

// Owner is the non-owning back-reference a handle keeps to its pool. It is
// used for fast dispatch and the orphan-notification path, never for
// lifetime control.
type Owner interface {
	ID() string
	// NotifyDestroyed tells the pool an instance it tracks was destroyed
	// outside the normal despawn flow. Owning goroutine only.
	NotifyDestroyed(r Recyclable)
}

// Base is the default Recyclable implementation for embedding. All hooks are
// no-ops; override the ones you need.
type Base struct {
	handle Handle
	tf     Transform
}

func (b *Base) OnSpawned()            {}
func (b *Base) OnDespawned()          {}
func (b *Base) PoolReset()            {}
func (b *Base) Handle() *Handle       { return &b.handle }
func (b *Base) Transform() *Transform { return &b.tf }
