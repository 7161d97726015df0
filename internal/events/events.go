package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of lifecycle event carried on the bus.
type EventType string

// Enumeration of all event types in the system.
const (
	TypeTaskCreated       EventType = "TASK_CREATED"
	TypeTaskUpdated       EventType = "TASK_UPDATED"
	TypeTaskCompleted     EventType = "TASK_COMPLETED"
	TypeTaskDeleted       EventType = "TASK_DELETED"
	TypeReminderTriggered EventType = "REMINDER_TRIGGERED"
	TypeTaskRecurred      EventType = "TASK_RECURRED"
)

// TaskCompletedEvent announces that a user completed a task. It carries
// everything the recurrence generator needs to decide on and build the
// next occurrence.
type TaskCompletedEvent struct {
	EventID           uuid.UUID  `json:"event_id"`
	EventType         EventType  `json:"event_type"`
	UserID            string     `json:"user_id"`
	TaskID            int64      `json:"task_id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Priority          string     `json:"priority,omitempty"`
	Tags              []string   `json:"tags,omitempty"`
	RecurrencePattern string     `json:"recurrence_pattern,omitempty"`
	RecurrenceEndDate *time.Time `json:"recurrence_end_date,omitempty"`
	RecurrenceCount   *int       `json:"recurrence_count,omitempty"`
	CompletedAt       time.Time  `json:"completed_at"`
	Timestamp         time.Time  `json:"timestamp"`
}

// ReminderEvent announces that a task is due soon and a reminder should
// be delivered to its owner.
type ReminderEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType EventType `json:"event_type"`
	UserID    string    `json:"user_id"`
	TaskID    int64     `json:"task_id"`
	TaskTitle string    `json:"task_title"`
	DueDate   time.Time `json:"due_date"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskUpdateEvent announces a task mutation. The old/new due dates let
// consumers decide whether existing reminders are stale.
type TaskUpdateEvent struct {
	EventID    uuid.UUID       `json:"event_id"`
	EventType  EventType       `json:"event_type"`
	UserID     string          `json:"user_id"`
	TaskID     int64           `json:"task_id"`
	OldDueDate *time.Time      `json:"old_due_date,omitempty"`
	NewDueDate *time.Time      `json:"new_due_date,omitempty"`
	TaskData   json.RawMessage `json:"task_data,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// TaskDeletedEvent announces that a task was removed.
type TaskDeletedEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType EventType `json:"event_type"`
	UserID    string    `json:"user_id"`
	TaskID    int64     `json:"task_id"`
	Timestamp time.Time `json:"timestamp"`
}

// RecurrenceEvent records that a completed task spawned its next
// occurrence. Consumed by the audit trail.
type RecurrenceEvent struct {
	EventID           uuid.UUID `json:"event_id"`
	EventType         EventType `json:"event_type"`
	UserID            string    `json:"user_id"`
	OriginalTaskID    int64     `json:"original_task_id"`
	NewTaskID         int64     `json:"new_task_id"`
	RecurrencePattern string    `json:"recurrence_pattern"`
	NextOccurrence    time.Time `json:"next_occurrence"`
	Timestamp         time.Time `json:"timestamp"`
}

// AuditEvent is the envelope accepted by the audit trail collaborator.
// It is fire-and-forget; no consumer response is ever awaited.
type AuditEvent struct {
	EventID    uuid.UUID      `json:"event_id"`
	EventType  string         `json:"event_type"`
	EntityID   int64          `json:"entity_id"`
	EntityType string         `json:"entity_type"`
	UserID     string         `json:"user_id"`
	OldValues  map[string]any `json:"old_values,omitempty"`
	NewValues  map[string]any `json:"new_values,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// NewReminderEvent builds a ReminderEvent for the given task with a
// fresh event ID.
func NewReminderEvent(userID string, taskID int64, taskTitle string, dueDate time.Time) ReminderEvent {
	return ReminderEvent{
		EventID:   uuid.New(),
		EventType: TypeReminderTriggered,
		UserID:    userID,
		TaskID:    taskID,
		TaskTitle: taskTitle,
		DueDate:   dueDate,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecurrenceEvent builds a RecurrenceEvent with a fresh event ID.
func NewRecurrenceEvent(userID string, originalTaskID, newTaskID int64, pattern string, nextOccurrence time.Time) RecurrenceEvent {
	return RecurrenceEvent{
		EventID:           uuid.New(),
		EventType:         TypeTaskRecurred,
		UserID:            userID,
		OriginalTaskID:    originalTaskID,
		NewTaskID:         newTaskID,
		RecurrencePattern: pattern,
		NextOccurrence:    nextOccurrence,
		Timestamp:         time.Now().UTC(),
	}
}
