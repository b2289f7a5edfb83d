package app

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/artemav/huddle/internal/core"
	"github.com/artemav/huddle/internal/domain"
)

// fakeSignal captures frames instead of writing to a websocket.
type fakeSignal struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
	full   bool
}

func (f *fakeSignal) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("connection closed")
	}
	if f.full {
		return errors.New("backpressure")
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeSignal) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSignal) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeSignal) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

// last decodes the most recent frame into a generic map.
func (f *fakeSignal) last(t *testing.T) map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.frames)
	var out map[string]any
	require.NoError(t, json.Unmarshal(f.frames[len(f.frames)-1], &out))
	return out
}

func newTestSession(t *testing.T, connID, userID, name string) (core.PeerSession, *fakeSignal) {
	t.Helper()
	user, err := domain.NewUser(domain.UserID(userID), name)
	require.NoError(t, err)
	sig := &fakeSignal{}
	return core.NewPeerSession(core.ConnectionID(connID), user, sig), sig
}
