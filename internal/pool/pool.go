package pool

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spawncore/engine/internal/core/event"
	"github.com/spawncore/engine/internal/entity"
)

// Timing controls when a registered preset's pool is actually constructed.
type Timing int

const (
	TimingLazy      Timing = iota // on first spawn through the manager
	TimingImmediate               // at registration
	TimingNextTick                // on the manager's next Tick
	TimingBoot                    // on Bootstrap(TimingBoot)
	TimingPostBoot                // on Bootstrap(TimingPostBoot)
	TimingEvent                   // on BootstrapEvent(EventName)
)

func (t Timing) String() string {
	switch t {
	case TimingLazy:
		return "lazy"
	case TimingImmediate:
		return "immediate"
	case TimingNextTick:
		return "next-tick"
	case TimingBoot:
		return "boot"
	case TimingPostBoot:
		return "post-boot"
	case TimingEvent:
		return "event"
	}
	return fmt.Sprintf("timing(%d)", int(t))
}

// Request configures one pool. Consumed once at construction and cached on
// the pool; later requests for the same template are ignored.
type Request struct {
	InitialSize    int
	MaxSize        int // 0 = unlimited
	Prepopulate    bool
	Timing         Timing
	EventName      string // for TimingEvent
	AllowExpansion bool
	CullExcess     bool
	Category       string
}

// normalize clamps malformed values instead of failing: pools must stay
// constructible from slightly bad presets.
func (r Request) normalize(log *zap.Logger) Request {
	if r.InitialSize < 0 {
		log.Warn("negative initial size clamped to 0", zap.Int("initial", r.InitialSize))
		r.InitialSize = 0
	}
	if r.MaxSize < 0 {
		log.Warn("negative max size clamped to 0 (unlimited)", zap.Int("max", r.MaxSize))
		r.MaxSize = 0
	}
	if r.MaxSize > 0 && r.InitialSize > r.MaxSize {
		log.Warn("initial size above max, clamped",
			zap.Int("initial", r.InitialSize), zap.Int("max", r.MaxSize))
		r.InitialSize = r.MaxSize
	}
	return r
}

// Template describes how one kind of recyclable instance is produced. New is
// required; Free runs when the pool destroys an instance and may be nil.
type Template[T entity.Recyclable] struct {
	ID       string
	Category string
	New      func() (T, error)
	Free     func(T)
}

// Managed is the erased control surface the manager and command buffers use
// for pools of any entity kind. Every *Pool[T] implements it.
type Managed interface {
	entity.Owner
	Category() string
	Active() int
	Inactive() int
	Capacity() int
	Metrics() Snapshot
	Contains(r entity.Recyclable) bool
	Despawn(r entity.Recyclable) bool
	ReturnToPool(r entity.Recyclable) bool
	Prewarm(n int) int
	ShrinkInactive(target int) int
	Clear() int
	Destroy()

	spawnAny(pos, rot entity.Vec3, parent *entity.Node) (entity.Recyclable, error)
	lastActivity() time.Time
}

// Pool is a recycling pool for one entity template. It owns a stack of
// inactive instances and an active count; capacity is always the sum of the
// two. Not safe for concurrent use: all mutation happens on the owning
// goroutine, with cross-goroutine work entering via a CommandBuffer.
type Pool[T entity.Recyclable] struct {
	id       string
	category string
	tmpl     Template[T]
	req      Request

	inactive []T
	active   int

	tracker *Tracker
	holding *entity.Node
	bus     *event.Bus
	log     *zap.Logger
	dead    bool
}

// NewPool validates the template, applies the request, and optionally
// prewarms. A nil factory or a factory that produces unhandled instances is
// a setup bug and fails construction; everything after that is soft.
func NewPool[T entity.Recyclable](tmpl Template[T], req Request, bus *event.Bus, log *zap.Logger) (*Pool[T], error) {
	if log == nil {
		log = zap.NewNop()
	}
	if tmpl.ID == "" {
		return nil, fmt.Errorf("pool: template has no id")
	}
	if tmpl.New == nil {
		return nil, fmt.Errorf("pool %s: %w", tmpl.ID, ErrMissingFactory)
	}
	req = req.normalize(log.With(zap.String("pool", tmpl.ID)))

	category := req.Category
	if category == "" {
		category = tmpl.Category
	}
	p := &Pool[T]{
		id:       tmpl.ID,
		category: category,
		tmpl:     tmpl,
		req:      req,
		tracker:  NewTracker(),
		holding:  entity.NewNode("pool:" + tmpl.ID),
		bus:      bus,
		log:      log.With(zap.String("pool", tmpl.ID)),
	}

	// Probe the factory once so a broken template fails loud here instead of
	// on the first spawn. The probe instance joins the inactive stack.
	probe, err := p.createInstance()
	if err != nil {
		return nil, err
	}
	p.reset(probe)
	p.inactive = append(p.inactive, probe)

	if req.Prepopulate && req.InitialSize > 1 {
		p.Prewarm(req.InitialSize - 1)
	}

	event.Publish(bus, PoolCreated{
		Pool:     p.id,
		Category: p.category,
		Initial:  req.InitialSize,
		Max:      req.MaxSize,
	})
	p.log.Info("pool created",
		zap.String("category", p.category),
		zap.Int("initial", req.InitialSize),
		zap.Int("max", req.MaxSize),
		zap.Bool("prepopulate", req.Prepopulate))
	return p, nil
}

func (p *Pool[T]) ID() string       { return p.id }
func (p *Pool[T]) Category() string { return p.category }
func (p *Pool[T]) Active() int      { return p.active }
func (p *Pool[T]) Inactive() int    { return len(p.inactive) }

// Capacity is the total population: active plus inactive.
func (p *Pool[T]) Capacity() int { return p.active + len(p.inactive) }

// Holding is the node despawned instances are parented under.
func (p *Pool[T]) Holding() *entity.Node { return p.holding }

// Metrics returns a point-in-time copy of the pool's counters.
func (p *Pool[T]) Metrics() Snapshot { return p.tracker.Snapshot(p.id) }

// Request returns the normalized configuration the pool was built with.
func (p *Pool[T]) Request() Request { return p.req }

// Contains reports whether the pool produced this instance. O(1) via the
// handle back-reference, never a scan.
func (p *Pool[T]) Contains(r entity.Recyclable) bool {
	if r == nil {
		return false
	}
	h := r.Handle()
	return h != nil && h.Owner() == entity.Owner(p)
}

// Spawn pops a reusable instance (or creates one), places it, and activates
// it. Exhaustion and activation failures come back as errors, never panics.
func (p *Pool[T]) Spawn(pos, rot entity.Vec3, parent *entity.Node) (T, error) {
	var zero T
	if p.dead {
		return zero, fmt.Errorf("pool %s: %w", p.id, ErrDestroyed)
	}

	inst, ok := p.popLive()
	created := false
	if !ok {
		if p.req.MaxSize > 0 && p.Capacity() >= p.req.MaxSize && !p.req.AllowExpansion {
			event.Publish(p.bus, PoolExhausted{Pool: p.id, Capacity: p.Capacity(), Max: p.req.MaxSize})
			p.log.Debug("spawn refused, pool exhausted", zap.Int("capacity", p.Capacity()))
			return zero, fmt.Errorf("pool %s: %w", p.id, ErrExhausted)
		}
		var err error
		inst, err = p.createInstance()
		if err != nil {
			p.log.Error("spawn: instance creation failed", zap.Error(err))
			return zero, fmt.Errorf("pool %s: %w: %v", p.id, ErrSpawnFailed, err)
		}
		created = true
	}

	// Count first, then activate: re-entrant calls from inside OnSpawned see
	// a consistent active count.
	p.active++
	if err := p.activate(inst, pos, rot, parent); err != nil {
		p.active--
		// State after a failed activation is unknown, so the instance is
		// discarded rather than returned to the stack.
		p.destroyInstance(inst)
		p.log.Error("spawn: activation failed, instance discarded", zap.Error(err))
		return zero, fmt.Errorf("pool %s: %w: %v", p.id, ErrSpawnFailed, err)
	}
	p.tracker.RecordSpawn()

	if created {
		capNow := p.Capacity()
		if capNow > p.req.InitialSize {
			p.tracker.RecordExpansion()
			event.Publish(p.bus, PoolExpanded{Pool: p.id, OldCapacity: capNow - 1, NewCapacity: capNow})
			p.log.Debug("pool expanded", zap.Int("capacity", capNow))
		}
	}
	return inst, nil
}

// SpawnAt spawns at pos with default orientation and no parent.
func (p *Pool[T]) SpawnAt(pos entity.Vec3) (T, error) {
	return p.Spawn(pos, entity.Vec3{}, nil)
}

// TrySpawn is the non-error variant for callers who treat exhaustion as a
// routine miss.
func (p *Pool[T]) TrySpawn(pos, rot entity.Vec3, parent *entity.Node) (T, bool) {
	inst, err := p.Spawn(pos, rot, parent)
	return inst, err == nil
}

// Despawn returns an active instance to the pool. Foreign or already
// inactive instances are rejected with no state change. Always true once the
// instance has left the active population, even if it had to be destroyed
// instead of recycled.
func (p *Pool[T]) Despawn(r entity.Recyclable) bool {
	if p.dead {
		p.log.Warn("despawn on destroyed pool")
		return false
	}
	if !p.Contains(r) {
		p.log.Warn("despawn rejected: instance not owned by this pool")
		return false
	}
	h := r.Handle()
	if h.Destroyed() || !h.Active() {
		p.log.Warn("despawn rejected: instance not active")
		return false
	}
	inst := r.(T)

	// Over capacity with culling on: destroy instead of recycling. Capacity
	// stays advisory when culling is off.
	if p.req.CullExcess && p.req.MaxSize > 0 && p.Capacity() > p.req.MaxSize {
		if err := p.runHook("on-despawned", inst.OnDespawned); err != nil {
			p.log.Error("despawn hook failed during cull", zap.Error(err))
		}
		h.SetActive(false)
		p.active--
		p.tracker.RecordDespawn()
		p.tracker.RecordCull()
		p.destroyInstance(inst)
		event.Publish(p.bus, PoolCulled{Pool: p.id, Destroyed: 1})
		return true
	}

	// Despawn hook runs while the instance is still active, so effects that
	// inspect live state behave.
	if err := p.runHook("on-despawned", inst.OnDespawned); err != nil {
		h.SetActive(false)
		p.active--
		p.tracker.RecordDespawn()
		p.destroyInstance(inst)
		p.log.Error("despawn hook failed, instance destroyed", zap.Error(err))
		return true
	}

	inst.Transform().SetParent(p.holding)
	h.SetActive(false)
	p.active--

	if err := p.runHook("pool-reset", inst.PoolReset); err != nil {
		// A half-reset instance must not be recycled.
		p.tracker.RecordDespawn()
		p.destroyInstance(inst)
		p.log.Error("reset hook failed, instance destroyed", zap.Error(err))
		return true
	}

	p.inactive = append(p.inactive, inst)
	p.tracker.RecordDespawn()
	return true
}

// ReturnToPool is an alias for Despawn.
func (p *Pool[T]) ReturnToPool(r entity.Recyclable) bool { return p.Despawn(r) }

// Prewarm creates up to n fresh instances, resets them, and stacks them
// inactive. Stops at MaxSize. Active count is untouched. Returns the number
// actually added.
func (p *Pool[T]) Prewarm(n int) int {
	if p.dead || n <= 0 {
		return 0
	}
	added := 0
	for i := 0; i < n; i++ {
		if p.req.MaxSize > 0 && p.Capacity() >= p.req.MaxSize {
			p.log.Debug("prewarm stopped at max size", zap.Int("added", added))
			break
		}
		inst, err := p.createInstance()
		if err != nil {
			p.log.Error("prewarm: instance creation failed", zap.Error(err))
			break
		}
		if err := p.reset(inst); err != nil {
			p.log.Error("prewarm: reset failed, instance discarded", zap.Error(err))
			p.destroyInstance(inst)
			continue
		}
		p.inactive = append(p.inactive, inst)
		added++
	}
	if added > 0 {
		event.Publish(p.bus, PoolPrewarmed{Pool: p.id, Count: added})
	}
	return added
}

// ShrinkInactive destroys inactive instances down to target. Memory-pressure
// relief; active instances are never touched.
func (p *Pool[T]) ShrinkInactive(target int) int {
	if target < 0 {
		target = 0
	}
	destroyed := 0
	var zero T
	for len(p.inactive) > target {
		n := len(p.inactive) - 1
		inst := p.inactive[n]
		p.inactive[n] = zero
		p.inactive = p.inactive[:n]
		if inst.Handle().Destroyed() {
			continue // stale entry, already gone
		}
		p.destroyInstance(inst)
		destroyed++
	}
	if destroyed > 0 {
		p.tracker.RecordCull()
		event.Publish(p.bus, PoolCulled{Pool: p.id, Destroyed: destroyed})
		p.log.Debug("inactive stack shrunk", zap.Int("destroyed", destroyed), zap.Int("target", target))
	}
	return destroyed
}

// Clear destroys every inactive instance.
func (p *Pool[T]) Clear() int { return p.ShrinkInactive(0) }

// Destroy clears the inactive stack and retires the pool. Active instances
// are not force-destroyed; they stay live but can no longer be returned
// here. Idempotent.
func (p *Pool[T]) Destroy() {
	if p.dead {
		return
	}
	p.Clear()
	p.active = 0
	p.dead = true
	event.Publish(p.bus, PoolDestroyed{Pool: p.id})
	p.log.Info("pool destroyed")
}

// NotifyDestroyed repairs the pool's bookkeeping when an instance it tracks
// was destroyed outside the normal despawn flow. Owning goroutine only.
func (p *Pool[T]) NotifyDestroyed(r entity.Recyclable) {
	if !p.Contains(r) {
		return
	}
	h := r.Handle()
	if h.Destroyed() {
		return
	}
	h.MarkDestroyed()
	r.Transform().SetParent(nil)
	if p.dead {
		return
	}
	if h.Active() {
		h.SetActive(false)
		p.active--
		p.tracker.RecordDespawn()
		p.log.Warn("active instance destroyed externally, count repaired")
	}
	// An inactive orphan stays in the stack; spawn skips destroyed entries.
	p.tracker.RecordDestroy()
}

func (p *Pool[T]) spawnAny(pos, rot entity.Vec3, parent *entity.Node) (entity.Recyclable, error) {
	inst, err := p.Spawn(pos, rot, parent)
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// popLive pops the newest inactive instance, dropping any that were
// destroyed while stacked.
func (p *Pool[T]) popLive() (T, bool) {
	var zero T
	for len(p.inactive) > 0 {
		n := len(p.inactive) - 1
		inst := p.inactive[n]
		p.inactive[n] = zero
		p.inactive = p.inactive[:n]
		if inst.Handle().Destroyed() {
			continue
		}
		return inst, true
	}
	return zero, false
}

func (p *Pool[T]) createInstance() (T, error) {
	var zero T
	inst, err := p.callFactory()
	if err != nil {
		return zero, fmt.Errorf("pool %s: factory: %w", p.id, err)
	}
	h := inst.Handle()
	if h == nil {
		return zero, fmt.Errorf("pool %s: %w", p.id, ErrNoHandle)
	}
	h.Bind(p, inst)
	p.tracker.RecordCreate()
	event.Publish(p.bus, InstanceCreated{Pool: p.id, Created: p.tracker.created})
	return inst, nil
}

func (p *Pool[T]) callFactory() (inst T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.tmpl.New()
}

func (p *Pool[T]) activate(inst T, pos, rot entity.Vec3, parent *entity.Node) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("on-spawned hook panic: %v", r)
		}
	}()
	tf := inst.Transform()
	tf.Pos = pos
	tf.Rot = rot
	tf.SetParent(parent)
	inst.Handle().SetActive(true)
	inst.OnSpawned()
	return nil
}

// reset normalizes a fresh instance without the activeness bookkeeping, so
// prewarmed instances are indistinguishable from despawned ones.
func (p *Pool[T]) reset(inst T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pool-reset hook panic: %v", r)
		}
	}()
	inst.Transform().SetParent(p.holding)
	inst.PoolReset()
	return nil
}

func (p *Pool[T]) runHook(name string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s hook panic: %v", name, r)
		}
	}()
	fn()
	return nil
}

func (p *Pool[T]) destroyInstance(inst T) {
	h := inst.Handle()
	h.SetActive(false)
	h.MarkDestroyed()
	inst.Transform().SetParent(nil)
	if p.tmpl.Free != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.log.Error("destructor panicked", zap.Any("panic", r))
				}
			}()
			p.tmpl.Free(inst)
		}()
	}
	p.tracker.RecordDestroy()
}

// lastActivity is used by idle-pool culling.
func (p *Pool[T]) lastActivity() time.Time { return p.tracker.LastActivity() }
