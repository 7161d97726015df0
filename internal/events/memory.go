package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// InMemoryBus is a simple Bus implementation that dispatches published
// events synchronously to all handlers registered for the topic. It is
// used in tests and for single-process development runs.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]HandlerFunc
	logger   *slog.Logger
}

// NewInMemoryBus creates a new instance of InMemoryBus.
func NewInMemoryBus(logger *slog.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]HandlerFunc),
		logger:   logger.With("component", "in_memory_bus"),
	}
}

// Subscribe registers a handler for the topic. The context is honored at
// delivery time: handlers are not invoked after it is cancelled.
func (b *InMemoryBus) Subscribe(ctx context.Context, topic string, handler HandlerFunc) error {
	wrapped := func(hctx context.Context, payload []byte) {
		if ctx.Err() != nil {
			return
		}
		handler(hctx, payload)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], wrapped)
	b.logger.Debug("registered handler", "topic", topic, "handler_count", len(b.handlers[topic]))
	return nil
}

// Publish JSON-encodes the event and delivers it synchronously to every
// handler registered for the topic. Delivery to one handler is not
// affected by other handlers.
func (b *InMemoryBus) Publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event for topic %s: %w", topic, err)
	}

	b.mu.RLock()
	handlers := make([]HandlerFunc, len(b.handlers[topic]))
	copy(handlers, b.handlers[topic])
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("no handlers registered for topic", "topic", topic)
		return nil
	}

	for _, handler := range handlers {
		handler(ctx, payload)
	}
	return nil
}
