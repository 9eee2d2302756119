package main

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spawncore/engine/internal/config"
	"github.com/spawncore/engine/internal/containers"
	"github.com/spawncore/engine/internal/core/event"
	coresys "github.com/spawncore/engine/internal/core/system"
	"github.com/spawncore/engine/internal/data"
	"github.com/spawncore/engine/internal/entity"
	"github.com/spawncore/engine/internal/pool"
	"github.com/spawncore/engine/internal/scripting"
	"github.com/spawncore/engine/internal/system"
	"github.com/spawncore/engine/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// prop is the plain recyclable used by presets without a script binding.
type prop struct {
	entity.Base
}

func run() error {
	// 1. Load config
	cfgPath := "config/engine.toml"
	if p := os.Getenv("SPAWNCORE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	log.Info("spawncore starting",
		zap.String("name", cfg.Engine.Name),
		zap.Duration("tick", cfg.Engine.TickRate))

	// 3. Load pool presets
	presets, err := data.LoadPresets(cfg.Engine.PresetFile)
	if err != nil {
		return fmt.Errorf("load presets: %w", err)
	}
	log.Info("presets loaded", zap.Int("count", len(presets)))

	// 4. Lua hook scripts, only when a preset actually needs them
	var luaEngine *scripting.Engine
	for _, p := range presets {
		if p.Script == "" {
			continue
		}
		luaEngine, err = scripting.NewEngine(cfg.Engine.ScriptFile, log)
		if err != nil {
			return fmt.Errorf("lua engine: %w", err)
		}
		defer luaEngine.Close()
		break
	}

	// 5. Event bus with diagnostic subscribers
	bus := event.NewBus(log)
	event.Subscribe(bus, func(ev pool.PoolExhausted) {
		log.Warn("pool exhausted",
			zap.String("pool", ev.Pool),
			zap.Int("capacity", ev.Capacity),
			zap.Int("max", ev.Max))
	})
	event.Subscribe(bus, func(ev pool.PoolExpanded) {
		log.Debug("pool expanded",
			zap.String("pool", ev.Pool),
			zap.Int("capacity", ev.NewCapacity))
	})

	// 6. Manager, preset registration, boot-phase pools
	mgr := pool.NewManager(bus, log)
	defer mgr.Close()
	for _, p := range presets {
		if err := registerPreset(mgr, luaEngine, p); err != nil {
			return fmt.Errorf("register preset %s: %w", p.ID, err)
		}
	}
	mgr.Bootstrap(pool.TimingBoot)

	// 7. Telemetry
	collector := telemetry.NewCollector()
	if addr := cfg.Telemetry.ListenAddr; addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collector)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer srv.Close()
		log.Info("metrics endpoint up", zap.String("addr", addr))
	}

	// 8. Systems
	done := make(chan struct{})
	runner := coresys.NewRunner()
	if cfg.Engine.LoadGenerator {
		store := containers.NewStore(cfg.Pools.ContainerBound)
		startLoadGenerator(runner, mgr, store, presets, done, log)
	}
	runner.Register(system.NewFlushSystem(mgr))
	runner.Register(system.NewCullSystem(mgr, cfg.Pools.CullAfter, cfg.Pools.CullInterval, log))
	runner.Register(system.NewStatsSystem(mgr, cfg.Telemetry.StatsInterval, collector.Publish, log))

	mgr.Bootstrap(pool.TimingPostBoot)

	// 9. Tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Engine.TickRate)
	defer ticker.Stop()

	log.Info("engine loop running", zap.Int("pools", mgr.Len()))
	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Engine.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			close(done)
			return nil
		}
	}
}

func registerPreset(mgr *pool.Manager, eng *scripting.Engine, p data.Preset) error {
	req := p.ToRequest()
	if p.Script != "" {
		tmpl, err := eng.Template(p.ID, p.Category, p.Script)
		if err != nil {
			return err
		}
		return pool.Register(mgr, tmpl, req)
	}
	tmpl := pool.Template[*prop]{
		ID:       p.ID,
		Category: p.Category,
		New:      func() (*prop, error) { return &prop{}, nil },
	}
	return pool.Register(mgr, tmpl, req)
}

// ── Demo load generator ────────────────────────────────────────────
//
// Exercises both entry paths: a simulate-phase system spawns and despawns on
// the owning goroutine, and worker goroutines push spawn/return commands
// through the buffers. Workers only see buffers captured before they start,
// so they never touch manager state.

type churnSystem struct {
	mgr   *pool.Manager
	store *containers.Store
	ids   []string
	live  []entity.Recyclable
	out   chan<- entity.Recyclable
	rng   *rand.Rand
}

func (s *churnSystem) Phase() coresys.Phase { return coresys.PhaseSimulate }

func (s *churnSystem) Update(dt time.Duration) {
	scratch := containers.Slice[entity.Recyclable](s.store)
	for i := 0; i < 2; i++ {
		id := s.ids[s.rng.Intn(len(s.ids))]
		pos := entity.Vec3{X: s.rng.Float64() * 100, Z: s.rng.Float64() * 100}
		inst, err := s.mgr.Spawn(id, pos, entity.Vec3{}, nil)
		if err != nil {
			continue
		}
		scratch = append(scratch, inst)
	}
	// Hand some instances to the workers, keep the rest local.
	for _, inst := range scratch {
		select {
		case s.out <- inst:
		default:
			s.live = append(s.live, inst)
		}
	}
	containers.PutSlice(s.store, scratch)
	for len(s.live) > 64 {
		s.mgr.Despawn(s.live[0])
		s.live = s.live[1:]
	}
}

func startLoadGenerator(runner *coresys.Runner, mgr *pool.Manager, store *containers.Store, presets []data.Preset, done <-chan struct{}, log *zap.Logger) {
	ids := make([]string, 0, len(presets))
	buffers := make(map[string]*pool.CommandBuffer, len(presets))
	for _, p := range presets {
		ids = append(ids, p.ID)
		if buf := mgr.Buffer(p.ID); buf != nil {
			buffers[p.ID] = buf
		}
	}
	if len(ids) == 0 {
		return
	}

	handoff := make(chan entity.Recyclable, 256)
	runner.Register(&churnSystem{
		mgr:   mgr,
		store: store,
		ids:   ids,
		out:   handoff,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	})

	bufIDs := make([]string, 0, len(buffers))
	for id := range buffers {
		bufIDs = append(bufIDs, id)
	}
	for w := 0; w < 2; w++ {
		go func(seed int64) {
			rng := rand.New(rand.NewSource(seed))
			ticker := time.NewTicker(75 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case inst := <-handoff:
					id := inst.Handle().Owner().ID()
					if buf := buffers[id]; buf != nil {
						buf.EnqueueReturn(inst)
					}
				case <-ticker.C:
					if len(bufIDs) == 0 {
						continue
					}
					buf := buffers[bufIDs[rng.Intn(len(bufIDs))]]
					pos := entity.Vec3{X: rng.Float64() * 100, Z: rng.Float64() * 100}
					if rng.Intn(4) == 0 {
						positions := []entity.Vec3{pos, pos.Add(entity.Vec3{X: 1}), pos.Add(entity.Vec3{Z: 1})}
						buf.EnqueueBatchCopy(positions, nil, nil)
					} else {
						buf.EnqueueSpawn(pos, entity.Vec3{}, nil)
					}
				}
			}
		}(time.Now().UnixNano() + int64(w))
	}
	log.Info("load generator running", zap.Int("workers", 2), zap.Int("pools", len(bufIDs)))
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
