package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/SbuKhoza/handy-rentals-app/internal/core/contracts"
	"github.com/SbuKhoza/handy-rentals-app/internal/core/domain"
)

// snapshotSink collects delivered snapshots behind a lock so tests can
// poll from the outside.
type snapshotSink struct {
	mu    sync.Mutex
	snaps []contracts.MessageSnapshot
}

func (s *snapshotSink) deliver(snap contracts.MessageSnapshot) {
	s.mu.Lock()
	s.snaps = append(s.snaps, snap)
	s.mu.Unlock()
}

func (s *snapshotSink) latest() (contracts.MessageSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.snaps) == 0 {
		return contracts.MessageSnapshot{}, false
	}
	return s.snaps[len(s.snaps)-1], true
}

func (s *snapshotSink) waitFor(t *testing.T, ok func(contracts.MessageSnapshot) bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if snap, have := s.latest(); have && ok(snap) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for delivered snapshot")
}

func TestOpenMarksThreadRead(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newChannelFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 2; i++ {
		_, err := f.channel.Send(ctx, bob, f.conv.ID, "unread")
		require.NoError(t, err)
	}

	session := NewThreadSession(testLogger(), alice, f.channel)
	sink := &snapshotSink{}
	require.NoError(t, session.Open(ctx, f.conv.ID, sink.deliver))
	assert.Equal(t, f.conv.ID, session.ActiveID())

	sink.waitFor(t, func(s contracts.MessageSnapshot) bool {
		return s.Err == nil && len(s.Messages) == 2
	})
	waitForCount(t, f.store, "alice", 0)

	session.Close()
	assert.Empty(t, session.ActiveID())
}

func TestOpenSettlesMessagesArrivingWhileOpen(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newChannelFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := NewThreadSession(testLogger(), alice, f.channel)
	sink := &snapshotSink{}
	require.NoError(t, session.Open(ctx, f.conv.ID, sink.deliver))
	defer session.Close()

	// Arrives after the open: the on-snapshot mark-read settles it.
	_, err := f.channel.Send(ctx, bob, f.conv.ID, "while open")
	require.NoError(t, err)
	waitForCount(t, f.store, "alice", 0)
}

func TestReopenSameThread(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newChannelFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := NewThreadSession(testLogger(), alice, f.channel)
	sink := &snapshotSink{}
	require.NoError(t, session.Open(ctx, f.conv.ID, sink.deliver))
	require.NoError(t, session.Open(ctx, f.conv.ID, sink.deliver))
	assert.Equal(t, f.conv.ID, session.ActiveID())
	session.Close()
}

func TestSwitchingThreadsCancelsPreviousWatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newChannelFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	other, err := f.store.CreateConversation(ctx, &domain.Conversation{
		Participants:     []string{"alice", "carol"},
		ParticipantNames: map[string]string{"alice": "Alice A", "carol": "Carol C"},
	})
	require.NoError(t, err)

	session := NewThreadSession(testLogger(), alice, f.channel)
	first := &snapshotSink{}
	require.NoError(t, session.Open(ctx, f.conv.ID, first.deliver))
	first.waitFor(t, func(s contracts.MessageSnapshot) bool { return s.Err == nil })

	second := &snapshotSink{}
	require.NoError(t, session.Open(ctx, other.ID, second.deliver))
	assert.Equal(t, other.ID, session.ActiveID())
	second.waitFor(t, func(s contracts.MessageSnapshot) bool { return s.Err == nil })

	// A send into the first thread goes unread: its watch is gone and the
	// reader is elsewhere.
	_, err = f.channel.Send(ctx, bob, f.conv.ID, "into the closed thread")
	require.NoError(t, err)
	waitForCount(t, f.store, "alice", 1)

	session.Close()
}

func TestCloseThreadWithNothingOpen(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newChannelFixture(t)
	session := NewThreadSession(testLogger(), alice, f.channel)
	session.CloseThread()
	session.Close()
	assert.Empty(t, session.ActiveID())
}

func waitForCount(t *testing.T, store contracts.MessageStore, userID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	last := -1
	for time.Now().Before(deadline) {
		n, err := store.CountUnread(context.Background(), userID)
		require.NoError(t, err)
		last = n
		if n == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("unread count stayed at %d, want %d", last, want)
}
