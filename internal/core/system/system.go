package system

import "time"

// Phase defines execution ordering within a single engine tick.
type Phase int

const (
	PhaseSimulate  Phase = iota // 0: host/game logic that spawns and returns
	PhaseFlush                  // 1: drain command buffers into their pools
	PhaseMaintain               // 2: deferred bootstrap, idle-pool culling
	PhaseTelemetry              // 3: snapshot logging and metric export
)

// System is the interface every engine system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
