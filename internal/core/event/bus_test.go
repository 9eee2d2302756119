package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingEvent struct{ n int }
type otherEvent struct{}

func TestPublishReachesTypedSubscribers(t *testing.T) {
	b := NewBus(nil)
	got := 0
	Subscribe(b, func(ev pingEvent) { got += ev.n })
	Subscribe(b, func(ev pingEvent) { got += ev.n * 10 })
	Subscribe(b, func(ev otherEvent) { got += 1000 })

	Publish(b, pingEvent{n: 2})
	assert.Equal(t, 22, got, "both ping handlers fire, the other type does not")
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	b := NewBus(nil)
	Publish(b, pingEvent{n: 1})
}

func TestNilBusIsSafe(t *testing.T) {
	var b *Bus
	Subscribe(b, func(ev pingEvent) {})
	Publish(b, pingEvent{})
}

func TestHandlerPanicIsContained(t *testing.T) {
	b := NewBus(nil)
	ran := false
	Subscribe(b, func(ev pingEvent) { panic("bad handler") })
	Subscribe(b, func(ev pingEvent) { ran = true })

	assert.NotPanics(t, func() { Publish(b, pingEvent{}) })
	assert.True(t, ran, "later handlers still run after a panic")
}
