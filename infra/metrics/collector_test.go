package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetops/core/events"
	coremetrics "github.com/kilianp07/fleetops/core/metrics"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/internal/eventbus"
)

type captureSink struct {
	mu     sync.Mutex
	lines  []coremetrics.LineEvent
	plans  []coremetrics.PlanEvent
	delays []coremetrics.DelayEvent
}

func (c *captureSink) RecordLine(ev coremetrics.LineEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, ev)
	return nil
}

func (c *captureSink) RecordPlan(ev coremetrics.PlanEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans = append(c.plans, ev)
	return nil
}

func (c *captureSink) RecordDelay(ev coremetrics.DelayEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delays = append(c.delays, ev)
	return nil
}

func (c *captureSink) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) + len(c.plans) + len(c.delays)
}

func TestStartEventCollector(t *testing.T) {
	bus := eventbus.NewTyped[events.Event]()
	defer bus.Close()
	sink := &captureSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartEventCollector(ctx, bus, sink)

	bus.Publish(events.LineChanged{Action: events.LineConfirmed, Line: model.Line{ID: 1, Origin: model.OriginPlan}})
	bus.Publish(events.LinesFrozen{Confirmed: 3})
	bus.Publish(events.TripEventRecorded{Event: model.TripEvent{TripID: 2, Kind: model.DriverDelay}, DurationMinutes: 9})
	// No TripRecorder on the sink: ignored.
	bus.Publish(events.TripChanged{Action: events.TripCreated})

	require.Eventually(t, func() bool { return sink.total() == 3 }, time.Second, 10*time.Millisecond)
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, events.LineConfirmed, sink.lines[0].Action)
	assert.Equal(t, 3, sink.plans[0].Frozen)
	assert.Equal(t, 9, sink.delays[0].Minutes)
}
