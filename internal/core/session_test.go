package core

import (
	"context"
	"testing"
	"time"

	"github.com/JonMunkholm/csvexplorer/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestStore(ttl time.Duration, max int) (*SessionStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	st := NewSessionStore(ttl, max)
	st.now = clock.now
	return st, clock
}

func TestSessionStore_CreateGet(t *testing.T) {
	st, _ := newTestStore(time.Hour, 10)

	s, err := st.Create()
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 1, st.Len())

	got, err := st.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = st.Get("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	st.Delete(s.ID)
	_, err = st.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_Expiry(t *testing.T) {
	st, clock := newTestStore(time.Hour, 10)

	old, _ := st.Create()
	clock.t = clock.t.Add(50 * time.Minute)
	fresh, _ := st.Create()

	// Get refreshes last access.
	clock.t = clock.t.Add(30 * time.Minute)
	_, err := st.Get(fresh.ID)
	require.NoError(t, err)

	_, err = st.Get(old.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 1, st.Len(), "expired session is dropped on access")

	clock.t = clock.t.Add(2 * time.Hour)
	assert.Equal(t, 1, st.Sweep())
	assert.Zero(t, st.Len())
}

func TestSessionStore_Full(t *testing.T) {
	st, clock := newTestStore(time.Hour, 2)

	_, err := st.Create()
	require.NoError(t, err)
	_, err = st.Create()
	require.NoError(t, err)

	_, err = st.Create()
	assert.ErrorIs(t, err, ErrTooManySessions)

	clock.t = clock.t.Add(2 * time.Hour)
	_, err = st.Create()
	assert.NoError(t, err, "expired sessions are swept to make room")
	assert.Equal(t, 1, st.Len())
}

func TestSessionStore_RunStopsOnCancel(t *testing.T) {
	st := NewSessionStore(time.Hour, 0)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		st.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestContextWithSession(t *testing.T) {
	s := NewSession()
	ctx := ContextWithSession(context.Background(), s)

	got, ok := SessionFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, s.ID, logging.SessionID(ctx))

	_, ok = SessionFromContext(context.Background())
	assert.False(t, ok)
}
