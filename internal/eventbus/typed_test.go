package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type lineEvent struct {
	ID     int64
	Action string
}

func TestTypedBusFanOut(t *testing.T) {
	bus := NewTyped[lineEvent]()
	a := bus.Subscribe()
	b := bus.Subscribe()
	bus.Publish(lineEvent{ID: 1, Action: "confirmed"})
	assert.Equal(t, int64(1), (<-a).ID)
	assert.Equal(t, "confirmed", (<-b).Action)
	bus.Unsubscribe(a)
	_, ok := <-a
	assert.False(t, ok)
}

func TestTypedBusDropsWhenFull(t *testing.T) {
	bus := NewTyped[int]()
	ch := bus.SubscribeBuffered(1)
	bus.Publish(1)
	bus.Publish(2)
	assert.Equal(t, 1, <-ch)
	assert.EqualValues(t, 1, bus.Dropped())
}

func TestTypedBusClose(t *testing.T) {
	bus := NewTyped[int]()
	ch := bus.Subscribe()
	bus.Close()
	_, ok := <-ch
	assert.False(t, ok)
	bus.Publish(3)
	bus.Unsubscribe(ch)
	late := bus.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}
