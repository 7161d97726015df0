package domain

import (
	"errors"
	"fmt"
	"time"
)

// Common validation errors for Reminder
var (
	ErrEmptyReminderID     = errors.New("reminder ID cannot be empty")
	ErrEmptyReminderUserID = errors.New("reminder user ID cannot be empty")
	ErrEmptyReminderTaskID = errors.New("reminder task ID cannot be zero")
	ErrEmptyReminderTitle  = errors.New("reminder task title cannot be empty")
)

// Reminder represents a single scheduled notification for a task.
// Once Notified is true, delivery must never repeat for this reminder;
// once Cancelled is true, delivery must never occur. Whichever terminal
// transition commits first wins.
type Reminder struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TaskID    int64     `json:"task_id"`
	TaskTitle string    `json:"task_title"`
	DueDate   time.Time `json:"due_date"`
	Notified  bool      `json:"notified"`
	Cancelled bool      `json:"cancelled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReminderID derives the identity of a reminder from its user, task, and
// creation instant. The instant is truncated to seconds so that redelivered
// copies of the same reminder event map onto the same identity.
func ReminderID(userID string, taskID int64, at time.Time) string {
	return fmt.Sprintf("reminder_%s_%d_%s", userID, taskID, at.UTC().Format("20060102150405"))
}

// NewReminder creates a Reminder for the given user/task with identity
// derived from the provided creation instant.
// Returns an error if validation fails.
func NewReminder(userID string, taskID int64, taskTitle string, dueDate, createdAt time.Time) (*Reminder, error) {
	r := &Reminder{
		ID:        ReminderID(userID, taskID, createdAt),
		UserID:    userID,
		TaskID:    taskID,
		TaskTitle: taskTitle,
		DueDate:   dueDate,
		Notified:  false,
		Cancelled: false,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: createdAt.UTC(),
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return r, nil
}

// Validate checks if the Reminder has valid data.
// Returns an error if any field fails validation.
func (r *Reminder) Validate() error {
	if r.ID == "" {
		return ErrEmptyReminderID
	}

	if r.UserID == "" {
		return ErrEmptyReminderUserID
	}

	if r.TaskID == 0 {
		return ErrEmptyReminderTaskID
	}

	if r.TaskTitle == "" {
		return ErrEmptyReminderTitle
	}

	return nil
}
