package pool

import "errors"

var (
	// ErrExhausted is returned by Spawn when capacity has reached the
	// configured maximum and dynamic expansion is disabled. A recoverable
	// runtime condition, not a bug.
	ErrExhausted = errors.New("pool exhausted")

	// ErrSpawnFailed is returned when instance creation or activation fails;
	// the instance involved has been discarded, never recycled.
	ErrSpawnFailed = errors.New("spawn failed")

	// ErrDestroyed is returned by operations on a pool after Destroy.
	ErrDestroyed = errors.New("pool destroyed")

	// ErrMissingFactory means the template carries no constructor. Fatal at
	// pool construction, since the pool can never produce an instance.
	ErrMissingFactory = errors.New("template has no factory")

	// ErrNoHandle means the factory produced an instance whose Handle()
	// returned nil, so the pool cannot track it. Fatal at construction.
	ErrNoHandle = errors.New("factory produced instance without handle")

	// ErrKindMismatch means a template ID was registered twice with
	// different entity kinds.
	ErrKindMismatch = errors.New("pool registered with a different entity kind")

	// ErrClosed is returned by manager operations after Close.
	ErrClosed = errors.New("manager closed")

	// ErrUnknownTemplate means no pool or preset exists for a template ID.
	ErrUnknownTemplate = errors.New("unknown template")
)
