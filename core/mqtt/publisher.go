// Package mqtt defines the contract used to forward lifecycle events to an
// MQTT broker.
package mqtt

import "context"

// Publisher sends one payload to a broker topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}
