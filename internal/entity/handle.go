package entity

// Handle is the per-instance marker the pool engine attaches to every
// recyclable instance. Exactly one handle exists per instance; it is bound
// once at creation time and never rebound. The owner reference is non-owning:
// it identifies the pool for O(1) dispatch but plays no part in lifetime.
type Handle struct {
	owner     Owner
	self      Recyclable
	spawned   bool
	destroyed bool
}

// Bind attaches the handle to its owning pool and caches the instance's
// Recyclable implementation so hook dispatch never repeats type lookups.
// Called once by the pool at instance creation.
func (h *Handle) Bind(owner Owner, self Recyclable) {
	h.owner = owner
	h.self = self
}

// Owner returns the pool this instance belongs to, or nil if unpooled.
func (h *Handle) Owner() Owner { return h.owner }

// Self returns the cached Recyclable implementation.
func (h *Handle) Self() Recyclable { return h.self }

// Pooled reports whether the instance was produced by a pool.
func (h *Handle) Pooled() bool { return h.owner != nil }

// Active reports whether the instance is currently spawned.
func (h *Handle) Active() bool { return h.spawned }

// SetActive flips the spawned flag. Pool use only.
func (h *Handle) SetActive(v bool) { h.spawned = v }

// Destroyed reports whether the underlying instance is gone. Destroyed
// entries still sitting in an inactive stack are skipped at spawn time.
func (h *Handle) Destroyed() bool { return h.destroyed }

// MarkDestroyed flags the instance as gone. Pool use only; external
// destroyers go through NotifyDestroyed instead.
func (h *Handle) MarkDestroyed() { h.destroyed = true }

// NotifyDestroyed reports an out-of-band destruction to the owning pool so
// its active count stays consistent. Safe to call on unpooled handles.
// Owning goroutine only.
func (h *Handle) NotifyDestroyed() {
	if h.owner == nil || h.self == nil {
		h.destroyed = true
		return
	}
	h.owner.NotifyDestroyed(h.self)
}
