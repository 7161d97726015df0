// Package fanout multiplexes task lifecycle updates to live observers.
// Observers (typically websocket connections) register under a user
// identity; a broadcast reaches every current observer for that user
// and prunes any observer whose delivery fails.
package fanout

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Observer is one live delivery handle. Send failures mark the observer
// as disconnected.
type Observer interface {
	Send(ctx context.Context, message []byte) error
}

// UpdateMessage is the shape broadcast to observers.
type UpdateMessage struct {
	Type      string    `json:"type"`
	EventType string    `json:"event_type"`
	TaskData  any       `json:"task_data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Registry tracks live observers per user.
type Registry struct {
	mu     sync.Mutex
	byUser map[string]map[Observer]struct{}
	owners map[Observer]string
	logger *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		byUser: make(map[string]map[Observer]struct{}),
		owners: make(map[Observer]string),
		logger: logger.With("component", "fanout_registry"),
	}
}

// Register adds an observer for the given user.
func (r *Registry) Register(userID string, obs Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[Observer]struct{})
		r.byUser[userID] = set
	}
	set[obs] = struct{}{}
	r.owners[obs] = userID

	r.logger.Debug("observer registered", "user_id", userID, "observers", len(set))
}

// Unregister removes an observer. The reverse owner mapping makes this
// a constant-time lookup rather than a scan over all users. Removing an
// unknown observer is a no-op.
func (r *Registry) Unregister(obs Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unregisterLocked(obs)
}

func (r *Registry) unregisterLocked(obs Observer) {
	userID, ok := r.owners[obs]
	if !ok {
		return
	}
	delete(r.owners, obs)
	if set, ok := r.byUser[userID]; ok {
		delete(set, obs)
		if len(set) == 0 {
			delete(r.byUser, userID)
		}
	}
	r.logger.Debug("observer unregistered", "user_id", userID)
}

// Count returns the number of live observers for a user.
func (r *Registry) Count(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUser[userID])
}

// Broadcast delivers the message to every live observer for the user.
// It iterates over a snapshot so that pruning during delivery cannot
// corrupt the set, and returns how many observers received the message.
func (r *Registry) Broadcast(ctx context.Context, userID string, message []byte) int {
	r.mu.Lock()
	snapshot := make([]Observer, 0, len(r.byUser[userID]))
	for obs := range r.byUser[userID] {
		snapshot = append(snapshot, obs)
	}
	r.mu.Unlock()

	delivered := 0
	for _, obs := range snapshot {
		if err := obs.Send(ctx, message); err != nil {
			r.logger.Info("pruning observer after delivery failure",
				"user_id", userID,
				"error", err)
			r.mu.Lock()
			r.unregisterLocked(obs)
			r.mu.Unlock()
			continue
		}
		delivered++
	}
	return delivered
}
