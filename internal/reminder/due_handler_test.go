package reminder

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/events"
	"github.com/phrazzld/taskflow/internal/notify"
)

type recordingNotifier struct {
	calls int
}

func (n *recordingNotifier) Send(_ context.Context, _, _ string, _ time.Time, channels []notify.ChannelName) map[notify.ChannelName]notify.Outcome {
	n.calls++
	results := make(map[notify.ChannelName]notify.Outcome, len(channels))
	for _, c := range channels {
		results[c] = notify.Outcome{Status: notify.StatusSent}
	}
	return results
}

func newDueHandlerFixture(t *testing.T) (*DueHandler, *Service, *recordingNotifier) {
	t.Helper()
	svc, _ := newTestService(t)
	notifier := &recordingNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewDueHandler(svc, notifier, []notify.ChannelName{notify.ChannelLog}, logger)
	return h, svc, notifier
}

func reminderPayload(t *testing.T, ev events.ReminderEvent) []byte {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	return data
}

func TestDueHandlerCreatesAndNotifies(t *testing.T) {
	h, svc, notifier := newDueHandlerFixture(t)
	ctx := context.Background()

	ev := events.NewReminderEvent("user-1", 42, "Pay rent", time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	ev.Timestamp = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	h.HandleEvent(ctx, reminderPayload(t, ev))

	assert.Equal(t, 1, notifier.calls)

	id := domain.ReminderID("user-1", 42, ev.Timestamp)
	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Notified)
	assert.Equal(t, "Pay rent", got.TaskTitle)
}

func TestDueHandlerSuppressesRedelivery(t *testing.T) {
	h, _, notifier := newDueHandlerFixture(t)
	ctx := context.Background()

	ev := events.NewReminderEvent("user-1", 42, "Pay rent", time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	ev.Timestamp = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	payload := reminderPayload(t, ev)

	h.HandleEvent(ctx, payload)
	h.HandleEvent(ctx, payload)
	h.HandleEvent(ctx, payload)

	assert.Equal(t, 1, notifier.calls, "redelivered event must not notify again")
}

func TestDueHandlerSkipsCancelledReminder(t *testing.T) {
	h, svc, notifier := newDueHandlerFixture(t)
	ctx := context.Background()

	createdAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	r, err := domain.NewReminder("user-1", 42, "Pay rent", time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC), createdAt)
	require.NoError(t, err)
	require.NoError(t, svc.Store(ctx, r))
	require.NoError(t, svc.MarkCancelled(ctx, r.ID))

	ev := events.NewReminderEvent("user-1", 42, "Pay rent", r.DueDate)
	ev.Timestamp = createdAt

	h.HandleEvent(ctx, reminderPayload(t, ev))

	assert.Equal(t, 0, notifier.calls)

	got, err := svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, got.Cancelled)
	assert.False(t, got.Notified)
}

func TestDueHandlerIgnoresMalformedPayload(t *testing.T) {
	h, _, notifier := newDueHandlerFixture(t)

	h.HandleEvent(context.Background(), []byte("{not json"))

	assert.Equal(t, 0, notifier.calls)
}

func TestDueHandlerIgnoresIncompleteEvent(t *testing.T) {
	h, _, notifier := newDueHandlerFixture(t)

	ev := events.NewReminderEvent("", 42, "Pay rent", time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))

	h.HandleEvent(context.Background(), reminderPayload(t, ev))

	assert.Equal(t, 0, notifier.calls)
}
