// Package recurrence generates the next occurrence of a recurring task
// when a completion event arrives. Generation is idempotent: each
// completion derives a processing identity from the completion instant,
// and a completed marker under that identity is the sole authority for
// "already handled". Every processing attempt ends by writing a
// completed marker, including validation and downstream failures, so a
// permanently broken event never causes a retry storm.
package recurrence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskflow/internal/audit"
	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/events"
	"github.com/phrazzld/taskflow/internal/store"
	"github.com/phrazzld/taskflow/internal/taskservice"
)

// Outcome describes how one completion event was handled.
type Outcome string

const (
	// OutcomeAlreadyProcessed means a completed marker already existed.
	OutcomeAlreadyProcessed Outcome = "already_processed"
	// OutcomeNoRecurrence means the task carries no recurrence pattern.
	OutcomeNoRecurrence Outcome = "no_recurrence"
	// OutcomeEnded means the termination condition was reached.
	OutcomeEnded Outcome = "recurrence_ended"
	// OutcomeCreated means a new task occurrence was created.
	OutcomeCreated Outcome = "created"
	// OutcomeFailed means the event was terminal-failed and marked
	// complete so it will not be retried.
	OutcomeFailed Outcome = "failed"
)

// Result is the outcome of processing one completion event.
type Result struct {
	Outcome      Outcome
	ProcessingID string
	NewTaskID    int64
}

// Generator is the recurrence processor.
type Generator struct {
	store     store.EntityStore
	tasks     taskservice.Client
	publisher events.Publisher
	trail     *audit.Trail
	topic     string
	precision domain.KeyPrecision
	logger    *slog.Logger
	now       func() time.Time
}

// NewGenerator creates a Generator. The topic is where recurrence
// events are published; trail may be nil to disable the audit trail.
func NewGenerator(
	entityStore store.EntityStore,
	tasks taskservice.Client,
	publisher events.Publisher,
	trail *audit.Trail,
	topic string,
	precision domain.KeyPrecision,
	logger *slog.Logger,
) *Generator {
	return &Generator{
		store:     entityStore,
		tasks:     tasks,
		publisher: publisher,
		trail:     trail,
		topic:     topic,
		precision: precision,
		logger:    logger.With("component", "recurrence_generator"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Process handles one completion event end to end. It returns an error
// only for terminal failures that were already marked complete; the
// caller should log it and move on, never retry.
func (g *Generator) Process(ctx context.Context, ev events.TaskCompletedEvent) (Result, error) {
	if ev.UserID == "" || ev.TaskID == 0 {
		return Result{Outcome: OutcomeFailed}, fmt.Errorf("completion event missing user or task identity")
	}
	completedAt := ev.CompletedAt
	if completedAt.IsZero() {
		completedAt = ev.Timestamp
	}
	if completedAt.IsZero() {
		return Result{Outcome: OutcomeFailed}, fmt.Errorf("completion event for task %d has no completion instant", ev.TaskID)
	}

	processingID := domain.ProcessingID(ev.UserID, ev.TaskID, completedAt, g.precision)
	logger := g.logger.With("processing_id", processingID, "user_id", ev.UserID, "task_id", ev.TaskID)
	result := Result{ProcessingID: processingID}

	done, err := g.isProcessed(ctx, processingID)
	if err != nil {
		// A failed read is not "absent"; bail out and let redelivery
		// retry once the store recovers.
		return result, fmt.Errorf("failed to check processing marker: %w", err)
	}
	if done {
		logger.Info("completion already processed, skipping")
		result.Outcome = OutcomeAlreadyProcessed
		return result, nil
	}

	// Best-effort: the started marker is informational only.
	if err := g.writeMarker(ctx, domain.MarkerStartedKey(processingID), domain.MarkerStarted); err != nil {
		logger.Warn("failed to write started marker", "error", err)
	}

	if ev.RecurrencePattern == "" {
		logger.Debug("task has no recurrence pattern")
		g.complete(ctx, processingID, logger)
		result.Outcome = OutcomeNoRecurrence
		return result, nil
	}

	pattern, err := domain.ParseRecurrencePattern(ev.RecurrencePattern)
	if err != nil {
		logger.Error("unrecognized recurrence pattern", "pattern", ev.RecurrencePattern)
		g.complete(ctx, processingID, logger)
		result.Outcome = OutcomeFailed
		return result, err
	}

	if g.recurrenceEnded(ev) {
		logger.Info("recurrence ended", "pattern", pattern)
		g.complete(ctx, processingID, logger)
		result.Outcome = OutcomeEnded
		return result, nil
	}

	next, err := NextOccurrence(completedAt, pattern)
	if err != nil {
		g.complete(ctx, processingID, logger)
		result.Outcome = OutcomeFailed
		return result, err
	}

	created, err := g.tasks.CreateTask(ctx, buildNextTask(ev, next))
	if err != nil {
		logger.Error("failed to create next occurrence", "error", err)
		g.complete(ctx, processingID, logger)
		result.Outcome = OutcomeFailed
		return result, fmt.Errorf("failed to create next occurrence of task %d: %w", ev.TaskID, err)
	}
	logger.Info("created next occurrence",
		"new_task_id", created.ID,
		"pattern", pattern,
		"next_occurrence", next)

	recurEv := events.NewRecurrenceEvent(ev.UserID, ev.TaskID, created.ID, string(pattern), next)
	if err := g.publisher.Publish(ctx, g.topic, recurEv); err != nil {
		logger.Error("failed to publish recurrence event", "error", err)
	}
	g.trail.Record(ctx, events.AuditEvent{
		EventType:  string(events.TypeTaskRecurred),
		EntityID:   ev.TaskID,
		EntityType: "task",
		UserID:     ev.UserID,
		NewValues: map[string]any{
			"new_task_id":     created.ID,
			"pattern":         string(pattern),
			"next_occurrence": next,
		},
	})

	g.complete(ctx, processingID, logger)
	result.Outcome = OutcomeCreated
	result.NewTaskID = created.ID
	return result, nil
}

// HandleEvent adapts Process to the bus handler contract. All errors
// are terminal by construction and only logged.
func (g *Generator) HandleEvent(ctx context.Context, payload []byte) {
	var ev events.TaskCompletedEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		g.logger.Error("failed to decode completion event", "error", err)
		return
	}
	if _, err := g.Process(ctx, ev); err != nil {
		g.logger.Error("recurrence processing failed",
			"user_id", ev.UserID,
			"task_id", ev.TaskID,
			"error", err)
	}
}

func (g *Generator) isProcessed(ctx context.Context, processingID string) (bool, error) {
	_, err := g.store.Get(ctx, domain.MarkerCompletedKey(processingID))
	if err != nil {
		if store.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (g *Generator) writeMarker(ctx context.Context, key string, status domain.MarkerStatus) error {
	data, err := json.Marshal(domain.ProcessingMarker{Status: status, Timestamp: g.now()})
	if err != nil {
		return err
	}
	return g.store.Put(ctx, key, data)
}

// complete records the completed marker and removes the started marker.
// Both writes are best-effort: a lost completed marker only means the
// event may be processed twice if redelivered, and the task service is
// the final arbiter in that rare case.
func (g *Generator) complete(ctx context.Context, processingID string, logger *slog.Logger) {
	if err := g.writeMarker(ctx, domain.MarkerCompletedKey(processingID), domain.MarkerCompleted); err != nil {
		logger.Error("failed to write completed marker", "error", err)
	}
	if err := g.store.Delete(ctx, domain.MarkerStartedKey(processingID)); err != nil {
		logger.Warn("failed to remove started marker", "error", err)
	}
}

// recurrenceEnded evaluates the task's termination condition against
// the current instant.
func (g *Generator) recurrenceEnded(ev events.TaskCompletedEvent) bool {
	if ev.RecurrenceEndDate != nil && !g.now().Before(*ev.RecurrenceEndDate) {
		return true
	}
	if ev.RecurrenceCount != nil && *ev.RecurrenceCount <= 0 {
		return true
	}
	return false
}

// buildNextTask copies the completed task's fields into a creation
// request for its next occurrence, decrementing the remaining count
// when present.
func buildNextTask(ev events.TaskCompletedEvent, next time.Time) domain.NewTask {
	task := domain.NewTask{
		UserID:            ev.UserID,
		Title:             ev.Title,
		Description:       ev.Description,
		DueDate:           next,
		Priority:          ev.Priority,
		Tags:              ev.Tags,
		RecurrencePattern: ev.RecurrencePattern,
		RecurrenceEndDate: ev.RecurrenceEndDate,
	}
	if ev.RecurrenceCount != nil {
		remaining := *ev.RecurrenceCount - 1
		task.RecurrenceCount = &remaining
	}
	return task
}
