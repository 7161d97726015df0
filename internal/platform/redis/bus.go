package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"

	"github.com/phrazzld/taskflow/internal/events"
)

// Bus implements events.Bus on top of Redis pub/sub. Delivery is
// at-least-once from the consumer's point of view (reconnects can
// replay) and unordered across topics; handlers are expected to be
// idempotent.
type Bus struct {
	client *redis.Client
	logger *slog.Logger
}

// NewBus creates a Bus backed by the given client.
func NewBus(client *redis.Client, logger *slog.Logger) *Bus {
	return &Bus{
		client: client,
		logger: logger.With("component", "redis_bus"),
	}
}

// Publish JSON-encodes the event and publishes it on the topic channel.
func (b *Bus) Publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event for topic %s: %w", topic, err)
	}

	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	}
	return nil
}

// Subscribe starts a background consumer for the topic. Each message is
// handed to the handler on the subscription goroutine; consumption stops
// when the context is cancelled.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	sub := b.client.Subscribe(ctx, topic)

	// Confirm the subscription before returning so callers know the
	// consumer is attached.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}

	ch := sub.Channel()
	go func() {
		defer func() {
			if err := sub.Close(); err != nil {
				b.logger.Error("failed to close subscription", "topic", topic, "error", err)
			}
		}()

		b.logger.Info("subscribed to topic", "topic", topic)
		for {
			select {
			case <-ctx.Done():
				b.logger.Info("subscription stopped", "topic", topic)
				return
			case msg, ok := <-ch:
				if !ok {
					b.logger.Warn("subscription channel closed", "topic", topic)
					return
				}
				handler(ctx, []byte(msg.Payload))
			}
		}
	}()

	return nil
}
