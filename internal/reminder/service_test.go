package reminder

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/index"
	"github.com/phrazzld/taskflow/internal/store/memstore"
)

func newTestService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	entityStore := memstore.New()
	svc := NewService(entityStore, index.NewManager(entityStore, logger), logger)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }
	return svc, entityStore
}

func mustReminder(t *testing.T, userID string, taskID int64, createdAt time.Time) *domain.Reminder {
	t.Helper()
	r, err := domain.NewReminder(userID, taskID, "Pay rent", createdAt.Add(time.Hour), createdAt)
	require.NoError(t, err)
	return r
}

func TestServiceStoreAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	createdAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	r := mustReminder(t, "user-1", 42, createdAt)
	require.NoError(t, svc.Store(ctx, r))

	got, err := svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, int64(42), got.TaskID)
	assert.False(t, got.Notified)
	assert.False(t, got.Cancelled)
}

func TestServiceGetNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "reminder_missing_1_20260101000000")
	assert.ErrorIs(t, err, ErrReminderNotFound)
}

func TestServiceStoreRejectsInvalidReminder(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Store(context.Background(), &domain.Reminder{ID: "reminder_x_1_20260101000000"})
	assert.ErrorIs(t, err, domain.ErrEmptyReminderUserID)
}

func TestServiceMarkNotified(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	r := mustReminder(t, "user-1", 42, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	require.NoError(t, svc.Store(ctx, r))

	require.NoError(t, svc.MarkNotified(ctx, r.ID))

	notified, err := svc.IsNotified(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, notified)

	// Second call is an idempotent no-op.
	require.NoError(t, svc.MarkNotified(ctx, r.ID))
}

func TestServiceTerminalStatesAreMutuallyExclusive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("cancel after notify is a no-op", func(t *testing.T) {
		r := mustReminder(t, "user-1", 1, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
		require.NoError(t, svc.Store(ctx, r))
		require.NoError(t, svc.MarkNotified(ctx, r.ID))

		require.NoError(t, svc.MarkCancelled(ctx, r.ID))

		got, err := svc.Get(ctx, r.ID)
		require.NoError(t, err)
		assert.True(t, got.Notified)
		assert.False(t, got.Cancelled)
	})

	t.Run("notify after cancel is a no-op", func(t *testing.T) {
		r := mustReminder(t, "user-1", 2, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
		require.NoError(t, svc.Store(ctx, r))
		require.NoError(t, svc.MarkCancelled(ctx, r.ID))

		require.NoError(t, svc.MarkNotified(ctx, r.ID))

		got, err := svc.Get(ctx, r.ID)
		require.NoError(t, err)
		assert.True(t, got.Cancelled)
		assert.False(t, got.Notified)
	})
}

func TestServiceIsCheckersOnAbsentReminder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	notified, err := svc.IsNotified(ctx, "reminder_ghost_9_20260101000000")
	require.NoError(t, err)
	assert.False(t, notified)

	cancelled, err := svc.IsCancelled(ctx, "reminder_ghost_9_20260101000000")
	require.NoError(t, err)
	assert.False(t, cancelled)
}

func TestServiceUpdatePartialFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	r := mustReminder(t, "user-1", 42, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	require.NoError(t, svc.Store(ctx, r))

	newTitle := "Pay rent (updated)"
	require.NoError(t, svc.Update(ctx, r.ID, Updates{TaskTitle: &newTitle}))

	got, err := svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, newTitle, got.TaskTitle)
	assert.Equal(t, r.DueDate, got.DueDate)
	assert.Equal(t, time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC), got.UpdatedAt)
}

func TestServiceUpdateNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	title := "nope"
	err := svc.Update(context.Background(), "reminder_ghost_1_20260101000000", Updates{TaskTitle: &title})
	assert.ErrorIs(t, err, ErrReminderNotFound)
}

func TestServiceListByUserAndTask(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	r1 := mustReminder(t, "user-1", 42, base)
	r2 := mustReminder(t, "user-1", 42, base.Add(time.Minute))
	r3 := mustReminder(t, "user-1", 77, base)
	other := mustReminder(t, "user-2", 42, base)
	for _, r := range []*domain.Reminder{r1, r2, r3, other} {
		require.NoError(t, svc.Store(ctx, r))
	}

	byUser, err := svc.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, byUser, 3)

	byTask, err := svc.ListByTask(ctx, "user-1", 42)
	require.NoError(t, err)
	require.Len(t, byTask, 2)
	for _, r := range byTask {
		assert.Equal(t, int64(42), r.TaskID)
		assert.Equal(t, "user-1", r.UserID)
	}
}

func TestServiceListSkipsDanglingIndexEntries(t *testing.T) {
	svc, entityStore := newTestService(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	r1 := mustReminder(t, "user-1", 42, base)
	r2 := mustReminder(t, "user-1", 42, base.Add(time.Minute))
	require.NoError(t, svc.Store(ctx, r1))
	require.NoError(t, svc.Store(ctx, r2))

	// Remove the entity behind the index's back.
	require.NoError(t, entityStore.Delete(ctx, r1.ID))

	byTask, err := svc.ListByTask(ctx, "user-1", 42)
	require.NoError(t, err)
	require.Len(t, byTask, 1)
	assert.Equal(t, r2.ID, byTask[0].ID)
}

func TestServiceCancelAllForTask(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	r1 := mustReminder(t, "user-1", 42, base)
	r2 := mustReminder(t, "user-1", 42, base.Add(time.Minute))
	notified := mustReminder(t, "user-1", 42, base.Add(2*time.Minute))
	keep := mustReminder(t, "user-1", 77, base)
	for _, r := range []*domain.Reminder{r1, r2, notified, keep} {
		require.NoError(t, svc.Store(ctx, r))
	}
	require.NoError(t, svc.MarkNotified(ctx, notified.ID))

	result, err := svc.CancelAllForTask(ctx, "user-1", 42)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Cancelled)
	assert.Equal(t, 0, result.Failed)

	for _, id := range []string{r1.ID, r2.ID} {
		cancelled, err := svc.IsCancelled(ctx, id)
		require.NoError(t, err)
		assert.True(t, cancelled)
	}

	// The notified reminder stays notified; MarkCancelled on it is a
	// no-op that still counts as handled.
	got, err := svc.Get(ctx, notified.ID)
	require.NoError(t, err)
	assert.True(t, got.Notified)
	assert.False(t, got.Cancelled)

	// Reminders for other tasks are untouched.
	cancelled, err := svc.IsCancelled(ctx, keep.ID)
	require.NoError(t, err)
	assert.False(t, cancelled)
}

func TestServiceDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	r := mustReminder(t, "user-1", 42, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	require.NoError(t, svc.Store(ctx, r))

	require.NoError(t, svc.Delete(ctx, r.ID))

	_, err := svc.Get(ctx, r.ID)
	assert.ErrorIs(t, err, ErrReminderNotFound)

	byUser, err := svc.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, byUser)

	// Deleting again is a successful no-op.
	require.NoError(t, svc.Delete(ctx, r.ID))
}

func TestIndexKeys(t *testing.T) {
	assert.Equal(t, "user_reminders:user-1", UserIndexKey("user-1"))
	assert.Equal(t, "task_reminders:user-1:42", TaskIndexKey("user-1", 42))
}
