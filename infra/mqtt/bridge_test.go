package mqtt

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetops/core/events"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/internal/eventbus"
)

func TestBridgeForwardsEvents(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", ClientID: "id", TopicPrefix: "fleet/"})
	require.NoError(t, err)
	mc.reset(nil)

	bus := eventbus.NewTyped[events.Event]()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	NewBridge(cli, "fleet/").Start(ctx, bus)

	bus.Publish(events.LineChanged{Action: events.LineCancelled, Line: model.Line{ID: 42, Status: model.LineCancelled}, Actor: "ops"})

	require.Eventually(t, func() bool { return len(mc.messages()) == 1 }, time.Second, 10*time.Millisecond)
	msg := mc.messages()[0]
	assert.Equal(t, "fleet/lines/42/cancelled", msg.topic)

	var env struct {
		Topic string `json:"topic"`
		Event struct {
			Action string `json:"action"`
			Actor  string `json:"actor"`
		} `json:"event"`
	}
	require.NoError(t, json.Unmarshal(msg.payload, &env))
	assert.Equal(t, "lines/42/cancelled", env.Topic)
	assert.Equal(t, "cancelled", env.Event.Action)
	assert.Equal(t, "ops", env.Event.Actor)
}

func TestBridgeTopicWithoutPrefix(t *testing.T) {
	b := NewBridge(nil, "")
	assert.Equal(t, "plan/frozen", b.TopicFor(events.LinesFrozen{}))
}
