package domain

import "time"

// TaskRecord is the task shape exchanged with the external task service.
// Task storage and CRUD belong to that service; the coordinator only
// reads fields relevant to recurrence and reminders.
type TaskRecord struct {
	ID                int64      `json:"id"`
	UserID            string     `json:"user_id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	Priority          string     `json:"priority,omitempty"`
	Tags              []string   `json:"tags,omitempty"`
	RecurrencePattern string     `json:"recurrence_pattern,omitempty"`
	RecurrenceEndDate *time.Time `json:"recurrence_end_date,omitempty"`
	RecurrenceCount   *int       `json:"recurrence_count,omitempty"`
}

// NewTask is the creation request sent to the task service when a
// recurring task spawns its next occurrence. It mirrors the original
// task except for the due date (the computed next occurrence) and the
// remaining-occurrences counter (decremented when present).
type NewTask struct {
	UserID            string     `json:"user_id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	DueDate           time.Time  `json:"due_date"`
	Priority          string     `json:"priority,omitempty"`
	Tags              []string   `json:"tags,omitempty"`
	RecurrencePattern string     `json:"recurrence_pattern,omitempty"`
	RecurrenceEndDate *time.Time `json:"recurrence_end_date,omitempty"`
	RecurrenceCount   *int       `json:"recurrence_count,omitempty"`
}
