package pool

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spawncore/engine/internal/core/event"
	"github.com/spawncore/engine/internal/entity"
)

type bootEntry struct {
	id        string
	timing    Timing
	eventName string
	create    func(m *Manager) (Managed, error)
}

// Manager is the registry tying templates to pools. One instance lives for
// the whole run; all methods are owning-goroutine only. Worker goroutines
// interact exclusively through the per-pool command buffers.
type Manager struct {
	log *zap.Logger
	bus *event.Bus

	pools   map[string]Managed
	order   []string // registration order, for deterministic flushes
	buffers map[string]*CommandBuffer
	entries map[string]*bootEntry
	booted  map[string]bool
	closed  bool
}

func NewManager(bus *event.Bus, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		log:     log,
		bus:     bus,
		pools:   make(map[string]Managed),
		buffers: make(map[string]*CommandBuffer),
		entries: make(map[string]*bootEntry),
		booted:  make(map[string]bool),
	}
}

// Register records a preset for deferred construction per its timing.
// Idempotent by template ID: a second registration is ignored. Presets with
// TimingImmediate construct their pool before Register returns.
func Register[T entity.Recyclable](m *Manager, tmpl Template[T], req Request) error {
	if m.closed {
		return ErrClosed
	}
	if _, ok := m.entries[tmpl.ID]; ok {
		return nil
	}
	m.entries[tmpl.ID] = &bootEntry{
		id:        tmpl.ID,
		timing:    req.Timing,
		eventName: req.EventName,
		create: func(m *Manager) (Managed, error) {
			return GetOrCreate(m, tmpl, req)
		},
	}
	if req.Timing == TimingImmediate {
		_, err := m.entries[tmpl.ID].create(m)
		return err
	}
	return nil
}

// GetOrCreate returns the pool for tmpl, constructing it on first call.
// Later calls ignore req entirely. Re-requesting an ID with a different
// entity kind is a setup bug and fails.
func GetOrCreate[T entity.Recyclable](m *Manager, tmpl Template[T], req Request) (*Pool[T], error) {
	if m.closed {
		return nil, ErrClosed
	}
	if existing, ok := m.pools[tmpl.ID]; ok {
		p, ok := existing.(*Pool[T])
		if !ok {
			return nil, fmt.Errorf("pool %s: %w", tmpl.ID, ErrKindMismatch)
		}
		return p, nil
	}
	p, err := NewPool(tmpl, req, m.bus, m.log)
	if err != nil {
		return nil, err
	}
	m.adopt(p)
	return p, nil
}

func (m *Manager) adopt(p Managed) {
	id := p.ID()
	m.pools[id] = p
	m.order = append(m.order, id)
	m.buffers[id] = NewCommandBuffer(m.log.With(zap.String("pool", id)))
	m.booted[id] = true
}

// Get looks up a pool by identity.
func (m *Manager) Get(id string) (Managed, bool) {
	p, ok := m.pools[id]
	return p, ok
}

// Buffer returns the command buffer for a pool, or nil if the pool does not
// exist yet. Safe to hand to worker goroutines.
func (m *Manager) Buffer(id string) *CommandBuffer {
	return m.buffers[id]
}

// Len is the number of live pools.
func (m *Manager) Len() int { return len(m.pools) }

// Tick is the once-per-frame driver hook: constructs any next-tick presets
// still pending, then flushes every buffer with queued work. Returns the
// number of commands processed.
func (m *Manager) Tick() int {
	if m.closed {
		return 0
	}
	m.Bootstrap(TimingNextTick)
	total := 0
	for _, id := range m.order {
		buf := m.buffers[id]
		if buf == nil || buf.Pending() == 0 {
			continue
		}
		total += buf.FlushTo(m.pools[id])
	}
	return total
}

// Bootstrap constructs every registered preset whose timing matches.
// Idempotent: presets already constructed are skipped.
func (m *Manager) Bootstrap(timing Timing) int {
	if m.closed {
		return 0
	}
	created := 0
	for _, e := range m.entries {
		if e.timing != timing || m.booted[e.id] {
			continue
		}
		if _, err := e.create(m); err != nil {
			m.log.Error("bootstrap failed", zap.String("pool", e.id), zap.Error(err))
			continue
		}
		created++
	}
	return created
}

// BootstrapEvent constructs presets bound to the named external event.
func (m *Manager) BootstrapEvent(name string) int {
	if m.closed {
		return 0
	}
	created := 0
	for _, e := range m.entries {
		if e.timing != TimingEvent || e.eventName != name || m.booted[e.id] {
			continue
		}
		if _, err := e.create(m); err != nil {
			m.log.Error("event bootstrap failed",
				zap.String("pool", e.id), zap.String("event", name), zap.Error(err))
			continue
		}
		created++
	}
	return created
}

// Spawn is the convenience path: look up the template's pool, lazily
// constructing it from a registered preset if needed, and spawn through it.
func (m *Manager) Spawn(templateID string, pos, rot entity.Vec3, parent *entity.Node) (entity.Recyclable, error) {
	if m.closed {
		return nil, ErrClosed
	}
	p, ok := m.pools[templateID]
	if !ok {
		e, ok := m.entries[templateID]
		if !ok {
			return nil, fmt.Errorf("spawn %s: %w", templateID, ErrUnknownTemplate)
		}
		var err error
		p, err = e.create(m)
		if err != nil {
			return nil, err
		}
	}
	return p.spawnAny(pos, rot, parent)
}

// Despawn routes an instance back to its pool: O(1) via the handle's owner
// back-reference, with a full scan as fallback for stale handles.
func (m *Manager) Despawn(r entity.Recyclable) bool {
	if m.closed || r == nil {
		return false
	}
	if h := r.Handle(); h != nil {
		if owner, ok := h.Owner().(Managed); ok {
			return owner.Despawn(r)
		}
	}
	for _, id := range m.order {
		if p := m.pools[id]; p.Contains(r) {
			return p.Despawn(r)
		}
	}
	m.log.Warn("despawn: instance not owned by any registered pool")
	return false
}

// DestroyPool tears down one pool and deregisters it. Its preset stays
// registered, so a later lazy spawn can rebuild it.
func (m *Manager) DestroyPool(id string) bool {
	p, ok := m.pools[id]
	if !ok {
		return false
	}
	if buf := m.buffers[id]; buf != nil {
		if dropped := buf.Clear(); dropped > 0 {
			m.log.Warn("dropped pending commands on pool teardown",
				zap.String("pool", id), zap.Int("dropped", dropped))
		}
	}
	p.Destroy()
	delete(m.pools, id)
	delete(m.buffers, id)
	delete(m.booted, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// CullUnusedPools destroys and deregisters every pool with zero active
// instances whose last activity is older than maxIdle. Maintenance for long
// sessions; never invoked automatically by the manager itself.
func (m *Manager) CullUnusedPools(maxIdle time.Duration) int {
	if m.closed {
		return 0
	}
	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for _, id := range append([]string(nil), m.order...) {
		p := m.pools[id]
		if p.Active() != 0 || p.lastActivity().After(cutoff) {
			continue
		}
		m.log.Info("culling idle pool", zap.String("pool", id))
		m.DestroyPool(id)
		removed++
	}
	return removed
}

// Close destroys every pool and clears all registries. Idempotent.
func (m *Manager) Close() {
	if m.closed {
		return
	}
	for _, id := range append([]string(nil), m.order...) {
		m.DestroyPool(id)
	}
	m.entries = make(map[string]*bootEntry)
	m.order = nil
	m.closed = true
	m.log.Info("pool manager closed")
}
