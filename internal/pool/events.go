package pool

// Notification payloads published on the engine bus. All are fire-and-forget
// diagnostics: subscribers may observe them, but nothing in the engine reads
// them back.

// PoolCreated fires once when a pool is constructed.
type PoolCreated struct {
	Pool     string
	Category string
	Initial  int
	Max      int
}

// PoolDestroyed fires once when a pool is torn down.
type PoolDestroyed struct {
	Pool string
}

// PoolPrewarmed fires after a prewarm pass, with the number of instances
// actually added.
type PoolPrewarmed struct {
	Pool  string
	Count int
}

// InstanceCreated fires for every fresh allocation, eager or lazy.
type InstanceCreated struct {
	Pool    string
	Created uint64 // lifetime creation count including this one
}

// PoolExpanded fires when a lazy creation pushes capacity past the
// originally configured initial size.
type PoolExpanded struct {
	Pool        string
	OldCapacity int
	NewCapacity int
}

// PoolCulled fires when inactive instances are destroyed to bound memory,
// either on over-capacity despawn or an explicit shrink.
type PoolCulled struct {
	Pool      string
	Destroyed int
}

// PoolExhausted fires when a spawn fails because capacity is at the maximum
// and expansion is disabled. Exactly one per failed spawn call.
type PoolExhausted struct {
	Pool     string
	Capacity int
	Max      int
}
