package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/index"
	"github.com/phrazzld/taskflow/internal/store"
)

// ErrReminderNotFound indicates that the reminder does not exist.
var ErrReminderNotFound = errors.New("reminder not found")

// UserIndexKey derives the index key holding all reminder IDs for a user.
func UserIndexKey(userID string) string {
	return "user_reminders:" + userID
}

// TaskIndexKey derives the index key holding all reminder IDs for one
// task of one user.
func TaskIndexKey(userID string, taskID int64) string {
	return fmt.Sprintf("task_reminders:%s:%d", userID, taskID)
}

// Updates holds the mutable reminder fields for partial updates. Nil
// fields are left unchanged.
type Updates struct {
	TaskTitle *string
	DueDate   *time.Time
	Notified  *bool
	Cancelled *bool
}

// CancelResult is the aggregate outcome of a bulk cancellation. Partial
// failure is possible and is never rolled back.
type CancelResult struct {
	Cancelled int
	Failed    int
}

// Service manages reminder entities and their secondary indexes.
// The entity write is authoritative; index insertions are advisory and
// their failures are logged without rolling back the entity.
type Service struct {
	store  store.EntityStore
	index  *index.Manager
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a reminder service over the given store and index
// manager.
func NewService(entityStore store.EntityStore, indexManager *index.Manager, logger *slog.Logger) *Service {
	return &Service{
		store:  entityStore,
		index:  indexManager,
		logger: logger.With("component", "reminder_service"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Store persists the reminder entity and inserts its ID into the user
// and task indexes. Returns an error only if the entity write fails;
// index failures leave the reminder undiscoverable via that index but
// intact.
func (s *Service) Store(ctx context.Context, r *domain.Reminder) error {
	if err := r.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode reminder %s: %w", r.ID, err)
	}

	if err := s.store.Put(ctx, r.ID, data); err != nil {
		return fmt.Errorf("failed to store reminder %s: %w", r.ID, err)
	}

	if err := s.index.Add(ctx, UserIndexKey(r.UserID), r.ID); err != nil {
		s.logger.Error("failed to add reminder to user index",
			"reminder_id", r.ID,
			"user_id", r.UserID,
			"error", err)
	}
	if err := s.index.Add(ctx, TaskIndexKey(r.UserID, r.TaskID), r.ID); err != nil {
		s.logger.Error("failed to add reminder to task index",
			"reminder_id", r.ID,
			"task_id", r.TaskID,
			"error", err)
	}

	s.logger.Info("stored reminder", "reminder_id", r.ID, "user_id", r.UserID, "task_id", r.TaskID)
	return nil
}

// Get retrieves a reminder by ID. Returns ErrReminderNotFound if it does
// not exist.
func (s *Service) Get(ctx context.Context, reminderID string) (*domain.Reminder, error) {
	data, err := s.store.Get(ctx, reminderID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", ErrReminderNotFound, reminderID)
		}
		return nil, fmt.Errorf("failed to read reminder %s: %w", reminderID, err)
	}

	var r domain.Reminder
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode reminder %s: %w", reminderID, err)
	}
	return &r, nil
}

// Update applies a partial update to an existing reminder via
// read-modify-write. Returns ErrReminderNotFound if the reminder does
// not exist.
func (s *Service) Update(ctx context.Context, reminderID string, updates Updates) error {
	r, err := s.Get(ctx, reminderID)
	if err != nil {
		return err
	}

	if updates.TaskTitle != nil {
		r.TaskTitle = *updates.TaskTitle
	}
	if updates.DueDate != nil {
		r.DueDate = *updates.DueDate
	}
	if updates.Notified != nil {
		r.Notified = *updates.Notified
	}
	if updates.Cancelled != nil {
		r.Cancelled = *updates.Cancelled
	}
	r.UpdatedAt = s.now()

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode reminder %s: %w", reminderID, err)
	}
	if err := s.store.Put(ctx, reminderID, data); err != nil {
		return fmt.Errorf("failed to update reminder %s: %w", reminderID, err)
	}
	return nil
}

// MarkNotified transitions the reminder to its notified terminal state.
// Calling it again, or calling it on a cancelled reminder, is a no-op:
// whichever terminal transition committed first wins.
func (s *Service) MarkNotified(ctx context.Context, reminderID string) error {
	r, err := s.Get(ctx, reminderID)
	if err != nil {
		return err
	}
	if r.Notified || r.Cancelled {
		return nil
	}

	notified := true
	return s.Update(ctx, reminderID, Updates{Notified: &notified})
}

// MarkCancelled transitions the reminder to its cancelled terminal
// state. Calling it again, or calling it on a notified reminder, is a
// no-op.
func (s *Service) MarkCancelled(ctx context.Context, reminderID string) error {
	r, err := s.Get(ctx, reminderID)
	if err != nil {
		return err
	}
	if r.Cancelled || r.Notified {
		return nil
	}

	cancelled := true
	return s.Update(ctx, reminderID, Updates{Cancelled: &cancelled})
}

// IsNotified reports whether the reminder has been notified. An absent
// reminder reports false: there is nothing to suppress.
func (s *Service) IsNotified(ctx context.Context, reminderID string) (bool, error) {
	r, err := s.Get(ctx, reminderID)
	if err != nil {
		if errors.Is(err, ErrReminderNotFound) {
			return false, nil
		}
		return false, err
	}
	return r.Notified, nil
}

// IsCancelled reports whether the reminder has been cancelled. An absent
// reminder reports false.
func (s *Service) IsCancelled(ctx context.Context, reminderID string) (bool, error) {
	r, err := s.Get(ctx, reminderID)
	if err != nil {
		if errors.Is(err, ErrReminderNotFound) {
			return false, nil
		}
		return false, err
	}
	return r.Cancelled, nil
}

// ListByUser returns all reminders discoverable via the user index.
// Index entries whose reminder no longer resolves are skipped silently.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*domain.Reminder, error) {
	return s.resolve(ctx, UserIndexKey(userID))
}

// ListByTask returns all reminders discoverable via the user+task index.
// Index entries whose reminder no longer resolves are skipped silently.
func (s *Service) ListByTask(ctx context.Context, userID string, taskID int64) ([]*domain.Reminder, error) {
	return s.resolve(ctx, TaskIndexKey(userID, taskID))
}

func (s *Service) resolve(ctx context.Context, indexKey string) ([]*domain.Reminder, error) {
	ids, err := s.index.List(ctx, indexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list index %s: %w", indexKey, err)
	}

	reminders := make([]*domain.Reminder, 0, len(ids))
	for _, id := range ids {
		r, err := s.Get(ctx, id)
		if err != nil {
			// The index references an entity that is gone or unreadable;
			// it is simply not discoverable right now.
			s.logger.Debug("skipping unresolvable index member",
				"index_key", indexKey,
				"reminder_id", id,
				"error", err)
			continue
		}
		reminders = append(reminders, r)
	}
	return reminders, nil
}

// CancelAllForTask cancels every reminder for the given user and task.
// Partial failure is possible; the aggregate counts are returned and
// nothing is rolled back.
func (s *Service) CancelAllForTask(ctx context.Context, userID string, taskID int64) (CancelResult, error) {
	reminders, err := s.ListByTask(ctx, userID, taskID)
	if err != nil {
		return CancelResult{}, err
	}

	var result CancelResult
	for _, r := range reminders {
		if err := s.MarkCancelled(ctx, r.ID); err != nil {
			s.logger.Error("failed to cancel reminder",
				"reminder_id", r.ID,
				"task_id", taskID,
				"error", err)
			result.Failed++
			continue
		}
		result.Cancelled++
	}

	s.logger.Info("cancelled task reminders",
		"user_id", userID,
		"task_id", taskID,
		"cancelled", result.Cancelled,
		"failed", result.Failed)
	return result, nil
}

// Delete removes the reminder from both indexes and then deletes the
// entity. Deleting an absent reminder is a successful no-op.
func (s *Service) Delete(ctx context.Context, reminderID string) error {
	r, err := s.Get(ctx, reminderID)
	if err != nil {
		if errors.Is(err, ErrReminderNotFound) {
			return nil
		}
		return err
	}

	if err := s.index.Remove(ctx, UserIndexKey(r.UserID), reminderID); err != nil {
		s.logger.Error("failed to remove reminder from user index",
			"reminder_id", reminderID,
			"error", err)
	}
	if err := s.index.Remove(ctx, TaskIndexKey(r.UserID, r.TaskID), reminderID); err != nil {
		s.logger.Error("failed to remove reminder from task index",
			"reminder_id", reminderID,
			"error", err)
	}

	if err := s.store.Delete(ctx, reminderID); err != nil {
		return fmt.Errorf("failed to delete reminder %s: %w", reminderID, err)
	}

	s.logger.Info("deleted reminder", "reminder_id", reminderID)
	return nil
}
