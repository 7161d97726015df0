package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/events"
	"github.com/phrazzld/taskflow/internal/notify"
)

// Notifier is the slice of the dispatcher the due handler depends on.
type Notifier interface {
	Send(ctx context.Context, userID, taskTitle string, dueDate time.Time, channels []notify.ChannelName) map[notify.ChannelName]notify.Outcome
}

// DueHandler consumes reminder-due events from the bus: it creates the
// reminder on first observation, suppresses duplicates via the
// notified/cancelled state, dispatches the notification, and records the
// notified transition. Redelivered copies of the same event derive the
// same reminder identity and are absorbed by the state check.
type DueHandler struct {
	reminders *Service
	notifier  Notifier
	channels  []notify.ChannelName
	logger    *slog.Logger
}

// NewDueHandler creates a DueHandler. A nil channel list keeps the
// dispatcher's safe default (log only).
func NewDueHandler(reminders *Service, notifier Notifier, channels []notify.ChannelName, logger *slog.Logger) *DueHandler {
	return &DueHandler{
		reminders: reminders,
		notifier:  notifier,
		channels:  channels,
		logger:    logger.With("component", "reminder_due_handler"),
	}
}

// HandleEvent processes one raw reminder event. Failures are logged and
// swallowed; redelivery from the bus is the retry mechanism and every
// step here is idempotent.
func (h *DueHandler) HandleEvent(ctx context.Context, payload []byte) {
	var ev events.ReminderEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		h.logger.Error("failed to decode reminder event", "error", err)
		return
	}

	if ev.UserID == "" || ev.TaskID == 0 || ev.TaskTitle == "" || ev.DueDate.IsZero() {
		h.logger.Error("missing required fields in reminder event",
			"user_id", ev.UserID,
			"task_id", ev.TaskID)
		return
	}

	createdAt := ev.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	reminderID := domain.ReminderID(ev.UserID, ev.TaskID, createdAt)
	logger := h.logger.With("reminder_id", reminderID, "user_id", ev.UserID, "task_id", ev.TaskID)

	r, err := h.reminders.Get(ctx, reminderID)
	switch {
	case errors.Is(err, ErrReminderNotFound):
		r, err = domain.NewReminder(ev.UserID, ev.TaskID, ev.TaskTitle, ev.DueDate, createdAt)
		if err != nil {
			logger.Error("invalid reminder event", "error", err)
			return
		}
		if err := h.reminders.Store(ctx, r); err != nil {
			// The entity write failed; leave the event to redelivery.
			logger.Error("failed to store reminder", "error", err)
			return
		}
	case err != nil:
		// Read failure is not "absent"; do nothing rather than risk a
		// duplicate notification.
		logger.Error("failed to read reminder state", "error", err)
		return
	}

	if r.Notified {
		logger.Info("reminder already notified, skipping")
		return
	}
	if r.Cancelled {
		logger.Info("reminder cancelled, skipping notification")
		return
	}

	results := h.notifier.Send(ctx, ev.UserID, ev.TaskTitle, ev.DueDate, h.channels)
	logger.Info("dispatched reminder notification", "results", results)

	if err := h.reminders.MarkNotified(ctx, reminderID); err != nil {
		logger.Error("failed to mark reminder notified", "error", err)
	}
}
