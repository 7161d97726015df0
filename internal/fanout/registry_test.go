package fanout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeObserver struct {
	received [][]byte
	fail     bool
}

func (o *fakeObserver) Send(_ context.Context, message []byte) error {
	if o.fail {
		return errors.New("connection closed")
	}
	o.received = append(o.received, message)
	return nil
}

func newTestRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBroadcastReachesOnlyTargetUser(t *testing.T) {
	r := newTestRegistry()
	a1, a2 := &fakeObserver{}, &fakeObserver{}
	b := &fakeObserver{}
	r.Register("user-a", a1)
	r.Register("user-a", a2)
	r.Register("user-b", b)

	delivered := r.Broadcast(context.Background(), "user-a", []byte("hello"))

	assert.Equal(t, 2, delivered)
	assert.Len(t, a1.received, 1)
	assert.Len(t, a2.received, 1)
	assert.Empty(t, b.received, "other users must not receive the broadcast")
}

func TestBroadcastToUserWithoutObservers(t *testing.T) {
	r := newTestRegistry()

	delivered := r.Broadcast(context.Background(), "nobody", []byte("hello"))

	assert.Equal(t, 0, delivered)
}

func TestBroadcastPrunesFailedObservers(t *testing.T) {
	r := newTestRegistry()
	healthy := &fakeObserver{}
	broken := &fakeObserver{fail: true}
	r.Register("user-a", healthy)
	r.Register("user-a", broken)

	delivered := r.Broadcast(context.Background(), "user-a", []byte("one"))
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, r.Count("user-a"), "failed observer is pruned")

	delivered = r.Broadcast(context.Background(), "user-a", []byte("two"))
	assert.Equal(t, 1, delivered)
	assert.Len(t, healthy.received, 2)
}

func TestUnregister(t *testing.T) {
	r := newTestRegistry()
	obs := &fakeObserver{}
	r.Register("user-a", obs)
	assert.Equal(t, 1, r.Count("user-a"))

	r.Unregister(obs)
	assert.Equal(t, 0, r.Count("user-a"))

	// Unregistering an unknown observer is a no-op.
	r.Unregister(&fakeObserver{})
	r.Unregister(obs)
}

func TestRegisterSameObserverTwice(t *testing.T) {
	r := newTestRegistry()
	obs := &fakeObserver{}
	r.Register("user-a", obs)
	r.Register("user-a", obs)

	assert.Equal(t, 1, r.Count("user-a"))

	delivered := r.Broadcast(context.Background(), "user-a", []byte("hello"))
	assert.Equal(t, 1, delivered)
	assert.Len(t, obs.received, 1)
}
