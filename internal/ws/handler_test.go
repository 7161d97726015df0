package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskflow/internal/fanout"
)

func newWSFixture(t *testing.T) (*httptest.Server, *fanout.Registry) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := fanout.NewRegistry(logger)
	handler := NewHandler(registry, logger)

	r := chi.NewRouter()
	r.Get("/ws/{user_id}", handler.ServeWS)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, registry
}

func dial(t *testing.T, server *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	url := strings.Replace(server.URL, "http://", "ws://", 1) + "/ws/" + userID
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func TestConnectSendsWelcome(t *testing.T) {
	server, registry := newWSFixture(t)
	conn := dial(t, server, "user-1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var welcome serverFrame
	require.NoError(t, wsjson.Read(ctx, conn, &welcome))
	assert.Equal(t, "connection_established", welcome.Type)
	assert.Equal(t, "user-1", welcome.UserID)

	require.Eventually(t, func() bool {
		return registry.Count("user-1") == 1
	}, time.Second, 5*time.Millisecond)
}

func TestPingPong(t *testing.T) {
	server, _ := newWSFixture(t)
	conn := dial(t, server, "user-1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var welcome serverFrame
	require.NoError(t, wsjson.Read(ctx, conn, &welcome))

	require.NoError(t, wsjson.Write(ctx, conn, clientFrame{Type: "ping"}))

	var pong serverFrame
	require.NoError(t, wsjson.Read(ctx, conn, &pong))
	assert.Equal(t, "pong", pong.Type)
}

func TestBroadcastReachesConnectedObserver(t *testing.T) {
	server, registry := newWSFixture(t)
	conn := dial(t, server, "user-1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var welcome serverFrame
	require.NoError(t, wsjson.Read(ctx, conn, &welcome))

	require.Eventually(t, func() bool {
		return registry.Count("user-1") == 1
	}, time.Second, 5*time.Millisecond)

	message, err := json.Marshal(fanout.UpdateMessage{
		Type:      "task_update",
		EventType: "TASK_UPDATED",
		Timestamp: time.Now().UTC(),
	})
	require.NoError(t, err)
	delivered := registry.Broadcast(ctx, "user-1", message)
	assert.Equal(t, 1, delivered)

	var update fanout.UpdateMessage
	require.NoError(t, wsjson.Read(ctx, conn, &update))
	assert.Equal(t, "task_update", update.Type)
	assert.Equal(t, "TASK_UPDATED", update.EventType)
}

func TestDisconnectUnregisters(t *testing.T) {
	server, registry := newWSFixture(t)
	conn := dial(t, server, "user-1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var welcome serverFrame
	require.NoError(t, wsjson.Read(ctx, conn, &welcome))
	require.Eventually(t, func() bool {
		return registry.Count("user-1") == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "done"))

	require.Eventually(t, func() bool {
		return registry.Count("user-1") == 0
	}, time.Second, 5*time.Millisecond)
}
