package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/spawncore/engine/internal/entity"
	"github.com/spawncore/engine/internal/pool"
)

// Engine wraps a single gopher-lua VM holding the lifecycle-hook scripts.
// Single-goroutine access only: hooks run on the pool's owning goroutine.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates the VM and loads the hook script at path.
func NewEngine(path string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := vm.DoFile(path); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load script %s: %w", path, err)
	}
	log.Debug("loaded lua script", zap.String("file", path))
	return e, nil
}

func (e *Engine) Close() {
	e.vm.Close()
}

// Hooks binds the lifecycle functions of a named Lua table. Any of the three
// may be absent; absent hooks are no-ops.
type Hooks struct {
	eng         *Engine
	table       string
	onSpawned   lua.LValue
	onDespawned lua.LValue
	poolReset   lua.LValue
}

// Hooks looks up a global Lua table by name and extracts its on_spawned,
// on_despawned and pool_reset functions.
func (e *Engine) Hooks(table string) (*Hooks, error) {
	tv := e.vm.GetGlobal(table)
	t, ok := tv.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("lua hook table %q not found", table)
	}
	h := &Hooks{eng: e, table: table}
	h.onSpawned = t.RawGetString("on_spawned")
	h.onDespawned = t.RawGetString("on_despawned")
	h.poolReset = t.RawGetString("pool_reset")
	return h, nil
}

func (h *Hooks) invoke(fn lua.LValue, name string, ent *Entity) {
	if fn == nil || fn == lua.LNil {
		return
	}
	vm := h.eng.vm

	tf := ent.Transform()
	arg := vm.NewTable()
	arg.RawSetString("x", lua.LNumber(tf.Pos.X))
	arg.RawSetString("y", lua.LNumber(tf.Pos.Y))
	arg.RawSetString("z", lua.LNumber(tf.Pos.Z))
	arg.RawSetString("active", lua.LBool(ent.Handle().Active()))

	if err := vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, arg); err != nil {
		h.eng.log.Error("lua hook error",
			zap.String("table", h.table),
			zap.String("hook", name),
			zap.Error(err))
	}
}

// Entity is a recyclable instance whose lifecycle hooks execute in Lua.
// Script errors are logged and swallowed: a broken hook never breaks the
// pool's state machine.
type Entity struct {
	entity.Base
	hooks *Hooks
}

func (s *Entity) OnSpawned()   { s.hooks.invoke(s.hooks.onSpawned, "on_spawned", s) }
func (s *Entity) OnDespawned() { s.hooks.invoke(s.hooks.onDespawned, "on_despawned", s) }
func (s *Entity) PoolReset()   { s.hooks.invoke(s.hooks.poolReset, "pool_reset", s) }

// Template builds a pool template producing scripted entities bound to the
// named Lua hook table. Fails if the table does not exist, which keeps
// broken presets loud at registration time.
func (e *Engine) Template(id, category, table string) (pool.Template[*Entity], error) {
	hooks, err := e.Hooks(table)
	if err != nil {
		return pool.Template[*Entity]{}, err
	}
	return pool.Template[*Entity]{
		ID:       id,
		Category: category,
		New: func() (*Entity, error) {
			return &Entity{hooks: hooks}, nil
		},
	}, nil
}
