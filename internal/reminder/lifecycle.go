package reminder

import (
	"context"
	"encoding/json"
	"log/slog"
)

// LifecycleHandler reacts to task update and delete events by cancelling
// reminders that no longer reflect reality.
type LifecycleHandler struct {
	reminders *Service
	logger    *slog.Logger
}

// NewLifecycleHandler creates a LifecycleHandler.
func NewLifecycleHandler(reminders *Service, logger *slog.Logger) *LifecycleHandler {
	return &LifecycleHandler{
		reminders: reminders,
		logger:    logger.With("component", "reminder_lifecycle"),
	}
}

// taskUpdatePayload is the subset of a task update event this handler
// inspects.
type taskUpdatePayload struct {
	UserID     string  `json:"user_id"`
	TaskID     int64   `json:"task_id"`
	OldDueDate *string `json:"old_due_date"`
	NewDueDate *string `json:"new_due_date"`
}

// HandleTaskUpdated cancels a task's reminders when its due date moved.
// Updates that leave the due date untouched are ignored. Cancelled
// reminders are not replaced here; the periodic scan will raise a fresh
// reminder event when the new due date approaches.
func (h *LifecycleHandler) HandleTaskUpdated(ctx context.Context, payload []byte) {
	var ev taskUpdatePayload
	if err := json.Unmarshal(payload, &ev); err != nil {
		h.logger.Error("failed to decode task update event", "error", err)
		return
	}
	if ev.UserID == "" || ev.TaskID == 0 {
		h.logger.Error("missing required fields in task update event",
			"user_id", ev.UserID, "task_id", ev.TaskID)
		return
	}

	logger := h.logger.With("user_id", ev.UserID, "task_id", ev.TaskID)

	if !dueDateChanged(ev.OldDueDate, ev.NewDueDate) {
		logger.Debug("due date unchanged, keeping existing reminders")
		return
	}

	result, err := h.reminders.CancelAllForTask(ctx, ev.UserID, ev.TaskID)
	if err != nil {
		logger.Error("failed to cancel reminders after due date change", "error", err)
		return
	}
	logger.Info("cancelled stale reminders after due date change",
		"cancelled", result.Cancelled,
		"failed", result.Failed)
}

// HandleTaskDeleted cancels every reminder belonging to the deleted task.
func (h *LifecycleHandler) HandleTaskDeleted(ctx context.Context, payload []byte) {
	var ev struct {
		UserID string `json:"user_id"`
		TaskID int64  `json:"task_id"`
	}
	if err := json.Unmarshal(payload, &ev); err != nil {
		h.logger.Error("failed to decode task deleted event", "error", err)
		return
	}
	if ev.UserID == "" || ev.TaskID == 0 {
		h.logger.Error("missing required fields in task deleted event",
			"user_id", ev.UserID, "task_id", ev.TaskID)
		return
	}

	logger := h.logger.With("user_id", ev.UserID, "task_id", ev.TaskID)

	result, err := h.reminders.CancelAllForTask(ctx, ev.UserID, ev.TaskID)
	if err != nil {
		logger.Error("failed to cancel reminders for deleted task", "error", err)
		return
	}
	logger.Info("cancelled reminders for deleted task",
		"cancelled", result.Cancelled,
		"failed", result.Failed)
}

// dueDateChanged reports whether the due date actually moved. The dates
// are compared as the raw strings from the event so that producers with
// differing sub-second formatting still compare equal when identical.
func dueDateChanged(oldDate, newDate *string) bool {
	switch {
	case oldDate == nil && newDate == nil:
		return false
	case oldDate == nil || newDate == nil:
		return true
	default:
		return *oldDate != *newDate
	}
}
