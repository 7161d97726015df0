// Package audit emits audit trail entries over the event bus. Entries
// are fire-and-forget: a failed publish is logged and dropped, and no
// business operation ever fails because the trail is unavailable.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskflow/internal/events"
)

// Trail publishes audit entries to the audit topic.
type Trail struct {
	publisher events.Publisher
	topic     string
	logger    *slog.Logger
}

// NewTrail creates a Trail publishing to the given topic.
func NewTrail(publisher events.Publisher, topic string, logger *slog.Logger) *Trail {
	return &Trail{
		publisher: publisher,
		topic:     topic,
		logger:    logger.With("component", "audit_trail"),
	}
}

// Record publishes one audit entry. It never returns an error: the
// trail is advisory and must not affect the outcome of the operation
// being audited.
func (t *Trail) Record(ctx context.Context, entry events.AuditEvent) {
	if t == nil {
		return
	}
	if entry.EventID == uuid.Nil {
		entry.EventID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	if err := t.publisher.Publish(ctx, t.topic, entry); err != nil {
		t.logger.Error("failed to publish audit entry",
			"event_type", entry.EventType,
			"entity_id", entry.EntityID,
			"error", err)
		return
	}
	t.logger.Debug("published audit entry",
		"event_type", entry.EventType,
		"entity_id", entry.EntityID)
}
