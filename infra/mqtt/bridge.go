package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/kilianp07/fleetops/core/events"
	coremqtt "github.com/kilianp07/fleetops/core/mqtt"
	"github.com/kilianp07/fleetops/infra/logger"
	"github.com/kilianp07/fleetops/internal/eventbus"
)

// Envelope is the JSON document published for every lifecycle event.
type Envelope struct {
	Topic       string       `json:"topic"`
	PublishedAt time.Time    `json:"published_at"`
	Event       events.Event `json:"event"`
}

// Bridge forwards lifecycle events from the bus to an MQTT publisher.
type Bridge struct {
	pub    coremqtt.Publisher
	prefix string
	log    logger.Logger
	now    func() time.Time
}

// NewBridge returns a Bridge publishing under prefix.
func NewBridge(pub coremqtt.Publisher, prefix string) *Bridge {
	return &Bridge{
		pub:    pub,
		prefix: strings.TrimSuffix(prefix, "/"),
		log:    logger.New("mqtt_bridge"),
		now:    time.Now,
	}
}

// TopicFor maps an event to its broker topic.
func (b *Bridge) TopicFor(ev events.Event) string {
	if b.prefix == "" {
		return ev.Topic()
	}
	return b.prefix + "/" + ev.Topic()
}

// Forward publishes a single event.
func (b *Bridge) Forward(ctx context.Context, ev events.Event) error {
	topic := b.TopicFor(ev)
	payload, err := json.Marshal(Envelope{Topic: ev.Topic(), PublishedAt: b.now().UTC(), Event: ev})
	if err != nil {
		return err
	}
	return b.pub.Publish(ctx, topic, payload)
}

// Start subscribes to bus and forwards events until ctx is canceled or the
// bus is closed. Failed publishes are logged and dropped.
func (b *Bridge) Start(ctx context.Context, bus *eventbus.TypedBus[events.Event]) {
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := b.Forward(ctx, ev); err != nil {
					b.log.Errorf("forward %s: %v", ev.Topic(), err)
				}
			}
		}
	}()
}
