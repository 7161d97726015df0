// Package ws exposes the live-update websocket endpoint. Each connection
// registers with the fan-out registry under its user identity and stays
// open until the client disconnects, answering pings in between.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/taskflow/internal/fanout"
)

// connObserver adapts a websocket connection to the fan-out Observer
// contract. Writes are bounded so one stalled client cannot hold a
// broadcast hostage.
type connObserver struct {
	conn *websocket.Conn
}

func (o *connObserver) Send(ctx context.Context, message []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.conn.Write(ctx, websocket.MessageText, message)
}

// Handler serves websocket connections and keeps the registry in sync
// with their lifetimes.
type Handler struct {
	registry *fanout.Registry
	logger   *slog.Logger
}

// NewHandler creates a websocket Handler over the given registry.
func NewHandler(registry *fanout.Registry, logger *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		logger:   logger.With("component", "ws_handler"),
	}
}

// clientFrame is the only inbound message shape clients send.
type clientFrame struct {
	Type string `json:"type"`
}

type serverFrame struct {
	Type      string    `json:"type"`
	Message   string    `json:"message,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ServeWS upgrades the request at /ws/{user_id}, sends a welcome frame,
// and then serves the ping loop until the client goes away.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		http.Error(w, "missing user_id", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Error("websocket accept failed", "user_id", userID, "error", err)
		return
	}

	obs := &connObserver{conn: conn}
	h.registry.Register(userID, obs)
	h.logger.Info("observer connected", "user_id", userID)
	defer func() {
		h.registry.Unregister(obs)
		h.logger.Info("observer disconnected", "user_id", userID)
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
	}()

	welcome := serverFrame{
		Type:      "connection_established",
		Message:   "Connected to task updates",
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
	if err := wsjson.Write(r.Context(), conn, welcome); err != nil {
		h.logger.Error("failed to send welcome frame", "user_id", userID, "error", err)
		return
	}

	for {
		var frame clientFrame
		if err := wsjson.Read(r.Context(), conn, &frame); err != nil {
			// Normal closure and read errors both end the session.
			return
		}
		if frame.Type == "ping" {
			pong := serverFrame{Type: "pong", Timestamp: time.Now().UTC()}
			if err := wsjson.Write(r.Context(), conn, pong); err != nil {
				h.logger.Error("failed to send pong", "user_id", userID, "error", err)
				return
			}
		}
	}
}
