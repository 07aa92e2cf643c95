// Package bus is the notification channel between the order flow and
// connected clients. Delivery is at-most-once to current subscribers; there
// is no persistence or replay.
package bus

import (
	"context"
	"time"
)

type Event struct {
	Topic   string         `json:"topic"`
	Name    string         `json:"event"`
	Payload map[string]any `json:"payload"`
	At      time.Time      `json:"at"`
}

type Bus interface {
	// Publish is fire-and-forget: a slow or absent subscriber never blocks
	// or fails the publisher.
	Publish(ctx context.Context, topic, name string, payload map[string]any) error
	// Subscribe returns a stream of events for one topic. The returned
	// cancel func releases the subscription.
	Subscribe(ctx context.Context, topic string) (<-chan Event, func(), error)
}
