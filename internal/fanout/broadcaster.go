package fanout

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Broadcaster consumes task lifecycle events from the bus and fans them
// out to the owning user's live observers.
type Broadcaster struct {
	registry *Registry
	logger   *slog.Logger
}

// NewBroadcaster creates a Broadcaster over the given registry.
func NewBroadcaster(registry *Registry, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		logger:   logger.With("component", "fanout_broadcaster"),
	}
}

// HandleEvent decodes one task event and broadcasts it to the user's
// observers. Events for users with no live observers are dropped.
func (b *Broadcaster) HandleEvent(ctx context.Context, payload []byte) {
	var ev struct {
		EventType string          `json:"event_type"`
		UserID    string          `json:"user_id"`
		TaskData  json.RawMessage `json:"task_data"`
	}
	if err := json.Unmarshal(payload, &ev); err != nil {
		b.logger.Error("failed to decode task event", "error", err)
		return
	}
	if ev.UserID == "" {
		b.logger.Error("task event missing user identity")
		return
	}

	delivered := b.Send(ctx, ev.UserID, ev.EventType, ev.TaskData)
	b.logger.Debug("broadcast task update",
		"user_id", ev.UserID,
		"event_type", ev.EventType,
		"delivered", delivered)
}

// Send wraps the task data in the update envelope and broadcasts it,
// returning the number of observers reached.
func (b *Broadcaster) Send(ctx context.Context, userID, eventType string, taskData any) int {
	message, err := json.Marshal(UpdateMessage{
		Type:      "task_update",
		EventType: eventType,
		TaskData:  taskData,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		b.logger.Error("failed to encode update message", "user_id", userID, "error", err)
		return 0
	}
	return b.registry.Broadcast(ctx, userID, message)
}
