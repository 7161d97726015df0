package fanout

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterDeliversUpdateEnvelope(t *testing.T) {
	r := newTestRegistry()
	obs := &fakeObserver{}
	r.Register("user-1", obs)
	b := NewBroadcaster(r, slog.New(slog.NewTextHandler(io.Discard, nil)))

	payload := []byte(`{"event_type":"TASK_UPDATED","user_id":"user-1","task_data":{"id":42,"title":"Water plants"}}`)
	b.HandleEvent(context.Background(), payload)

	require.Len(t, obs.received, 1)

	var msg UpdateMessage
	require.NoError(t, json.Unmarshal(obs.received[0], &msg))
	assert.Equal(t, "task_update", msg.Type)
	assert.Equal(t, "TASK_UPDATED", msg.EventType)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestBroadcasterIgnoresBadPayloads(t *testing.T) {
	r := newTestRegistry()
	obs := &fakeObserver{}
	r.Register("user-1", obs)
	b := NewBroadcaster(r, slog.New(slog.NewTextHandler(io.Discard, nil)))

	b.HandleEvent(context.Background(), []byte("{broken"))
	b.HandleEvent(context.Background(), []byte(`{"event_type":"TASK_UPDATED"}`))

	assert.Empty(t, obs.received)
}
