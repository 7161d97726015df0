package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskflow/internal/api/shared"
	"github.com/phrazzld/taskflow/internal/events"
	"github.com/phrazzld/taskflow/internal/fanout"
	"github.com/phrazzld/taskflow/internal/recurrence"
	"github.com/phrazzld/taskflow/internal/reminder"
	"github.com/phrazzld/taskflow/internal/ws"
)

// Handlers holds the dependencies behind the HTTP endpoints.
type Handlers struct {
	generator   *recurrence.Generator
	reminders   *reminder.Service
	broadcaster *fanout.Broadcaster
	ws          *ws.Handler
	logger      *slog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(
	generator *recurrence.Generator,
	reminders *reminder.Service,
	broadcaster *fanout.Broadcaster,
	wsHandler *ws.Handler,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		generator:   generator,
		reminders:   reminders,
		broadcaster: broadcaster,
		ws:          wsHandler,
		logger:      logger.With("component", "api"),
	}
}

// Health reports service liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "taskflow-coordinator",
	})
}

// ProcessRecurrence runs recurrence generation for a completion event
// supplied in the request body. It exists for manual reprocessing and
// testing; the normal path is the bus consumer.
func (h *Handlers) ProcessRecurrence(w http.ResponseWriter, r *http.Request) {
	var ev events.TaskCompletedEvent
	if err := shared.DecodeJSON(r, &ev); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if ev.UserID == "" || ev.TaskID == 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "user_id and task_id are required")
		return
	}

	result, err := h.generator.Process(r.Context(), ev)
	if err != nil {
		h.logger.Error("manual recurrence processing failed",
			"user_id", ev.UserID,
			"task_id", ev.TaskID,
			"error", err)
		shared.RespondWithJSON(w, r, http.StatusUnprocessableEntity, map[string]any{
			"outcome":       result.Outcome,
			"processing_id": result.ProcessingID,
			"error":         "recurrence processing failed",
		})
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]any{
		"outcome":       result.Outcome,
		"processing_id": result.ProcessingID,
		"new_task_id":   result.NewTaskID,
	})
}

// cancelRemindersRequest is the body for POST /internal/reminders/cancel.
type cancelRemindersRequest struct {
	UserID string `json:"user_id" validate:"required"`
	TaskID int64  `json:"task_id" validate:"required"`
}

// CancelReminders cancels every reminder for the given user and task.
func (h *Handlers) CancelReminders(w http.ResponseWriter, r *http.Request) {
	var req cancelRemindersRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "user_id and task_id are required")
		return
	}

	result, err := h.reminders.CancelAllForTask(r.Context(), req.UserID, req.TaskID)
	if err != nil {
		h.logger.Error("manual reminder cancellation failed",
			"user_id", req.UserID,
			"task_id", req.TaskID,
			"error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "failed to cancel reminders")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]int{
		"cancelled": result.Cancelled,
		"failed":    result.Failed,
	})
}

// broadcastRequest is the body for POST /internal/broadcast.
type broadcastRequest struct {
	UserID    string          `json:"user_id" validate:"required"`
	EventType string          `json:"event_type" validate:"required"`
	TaskData  json.RawMessage `json:"task_data"`
}

// Broadcast sends a test update to a user's live observers.
func (h *Handlers) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "user_id and event_type are required")
		return
	}

	delivered := h.broadcaster.Send(r.Context(), req.UserID, req.EventType, req.TaskData)
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]int{
		"delivered": delivered,
	})
}
