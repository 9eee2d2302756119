package event

import (
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// Bus is a typed publish/subscribe bus for engine notifications. Dispatch is
// synchronous on the publisher's goroutine; a panicking handler is recovered
// and logged, never propagated to the publisher. All pool events are
// published from the owning goroutine, so the mutex only guards handler
// registration against early-startup races.
type Bus struct {
	mu       sync.Mutex
	handlers map[reflect.Type][]any
	log      *zap.Logger
}

func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[reflect.Type][]any),
		log:      log,
	}
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// Publish delivers ev to every subscribed handler. Fire-and-forget: handler
// failures are logged and skipped. A nil bus drops the event.
func Publish[T any](b *Bus, ev T) {
	if b == nil {
		return
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.mu.Lock()
	handlers := b.handlers[t]
	b.mu.Unlock()
	for _, h := range handlers {
		call(b, h.(func(T)), ev)
	}
}

func call[T any](b *Bus, fn func(T), ev T) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				zap.String("event", reflect.TypeOf(ev).String()),
				zap.Any("panic", r))
		}
	}()
	fn(ev)
}
