package events

import "context"

// HandlerFunc processes one raw message from a topic. The payload is the
// JSON-encoded event; handlers are responsible for decoding and for
// tolerating duplicates and out-of-order delivery. Handlers must not
// panic; a handler error is the handler's own to log, the bus does not
// retry on its behalf (redelivery comes from the broker).
type HandlerFunc func(ctx context.Context, payload []byte)

// Publisher publishes events to a named topic. The event value is
// JSON-encoded by the implementation.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
}

// Subscriber registers a handler for a topic. Consumption starts
// immediately and continues until the provided context is cancelled.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler HandlerFunc) error
}

// Bus combines publishing and subscribing.
type Bus interface {
	Publisher
	Subscriber
}
