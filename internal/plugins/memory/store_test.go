package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/SbuKhoza/handy-rentals-app/internal/core/contracts"
	"github.com/SbuKhoza/handy-rentals-app/internal/core/domain"
)

func seedConversation(t *testing.T, s *Store) *domain.Conversation {
	t.Helper()
	conv, err := s.CreateConversation(context.Background(), &domain.Conversation{
		Participants:     []string{"alice", "bob"},
		ParticipantNames: map[string]string{"alice": "Alice A", "bob": "Bob B"},
	})
	require.NoError(t, err)
	return conv
}

func TestCreateConversationAssignsServerFields(t *testing.T) {
	s := NewStore()
	conv := seedConversation(t, s)

	assert.NotEmpty(t, conv.ID)
	assert.False(t, conv.CreatedAt.IsZero())
	assert.True(t, conv.LastMessageAt.IsZero(), "no preview until the first send")
	assert.Empty(t, conv.LastMessage)
}

func TestGetConversationMissingIsNilNil(t *testing.T) {
	s := NewStore()
	conv, err := s.GetConversation(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, conv)
}

func TestStampStrictlyIncreases(t *testing.T) {
	s := NewStore()
	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return fixed })

	var prev time.Time
	for i := 0; i < 5; i++ {
		msg, err := s.AppendMessage(context.Background(), &domain.Message{
			ConversationID: "c1",
			SenderID:       "alice",
			ReceiverID:     "bob",
			Text:           "tick",
		})
		require.NoError(t, err)
		assert.True(t, msg.CreatedAt.After(prev), "timestamps stay total under a frozen clock")
		prev = msg.CreatedAt
	}
}

func TestClonesAreIsolated(t *testing.T) {
	s := NewStore()
	conv := seedConversation(t, s)

	// Mutating a returned copy never reaches the store.
	conv.ParticipantNames["alice"] = "Mallory"
	conv.Participants[0] = "mallory"

	again, err := s.GetConversation(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice A", again.ParticipantNames["alice"])
	assert.Equal(t, []string{"alice", "bob"}, again.Participants)
}

func TestWatchMessagesDeliversInitialAndUpdates(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewStore()
	conv := seedConversation(t, s)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snaps, err := s.WatchMessages(ctx, conv.ID)
	require.NoError(t, err)

	first := nextMessageSnapshot(t, snaps)
	assert.Empty(t, first.Messages, "initial snapshot arrives before any write")

	_, err = s.AppendMessage(ctx, &domain.Message{
		ConversationID: conv.ID,
		SenderID:       "alice",
		ReceiverID:     "bob",
		Text:           "hello",
	})
	require.NoError(t, err)

	awaitMessageCount(t, snaps, 1)
}

func TestWatchConversationsTicksOnPreviewUpdate(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewStore()
	conv := seedConversation(t, s)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snaps, err := s.WatchConversations(ctx, "alice")
	require.NoError(t, err)
	nextConversationSnapshot(t, snaps)

	require.NoError(t, s.SetLastMessage(ctx, conv.ID, "new preview"))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap, open := <-snaps:
			require.True(t, open)
			require.NoError(t, snap.Err)
			if len(snap.Conversations) == 1 && snap.Conversations[0].LastMessage == "new preview" {
				return
			}
		case <-deadline:
			t.Fatal("preview update never reached the watcher")
		}
	}
}

func TestWatchClosesOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewStore()
	conv := seedConversation(t, s)
	ctx, cancel := context.WithCancel(context.Background())

	snaps, err := s.WatchMessages(ctx, conv.ID)
	require.NoError(t, err)
	nextMessageSnapshot(t, snaps)

	cancel()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-snaps:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("watch channel stayed open after cancel")
		}
	}
}

func TestMarkConversationReadScopedToReader(t *testing.T) {
	s := NewStore()
	conv := seedConversation(t, s)
	ctx := context.Background()

	send := func(sender, receiver string) {
		t.Helper()
		_, err := s.AppendMessage(ctx, &domain.Message{
			ConversationID: conv.ID,
			SenderID:       sender,
			ReceiverID:     receiver,
			Text:           "m",
		})
		require.NoError(t, err)
	}
	send("bob", "alice")
	send("bob", "alice")
	send("alice", "bob")

	n, err := s.MarkConversationRead(ctx, conv.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.MarkConversationRead(ctx, conv.ID, "alice")
	require.NoError(t, err)
	assert.Zero(t, n, "second pass finds nothing unread")

	bobUnread, err := s.CountUnread(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, bobUnread)
}

func TestWatchUnreadFollowsReadState(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewStore()
	conv := seedConversation(t, s)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snaps, err := s.WatchUnread(ctx, "alice")
	require.NoError(t, err)

	_, err = s.AppendMessage(ctx, &domain.Message{
		ConversationID: conv.ID,
		SenderID:       "bob",
		ReceiverID:     "alice",
		Text:           "unread",
	})
	require.NoError(t, err)
	awaitUnreadCount(t, snaps, 1)

	_, err = s.MarkConversationRead(ctx, conv.ID, "alice")
	require.NoError(t, err)
	awaitUnreadCount(t, snaps, 0)
}

func nextMessageSnapshot(t *testing.T, ch <-chan contracts.MessageSnapshot) contracts.MessageSnapshot {
	t.Helper()
	select {
	case snap, open := <-ch:
		require.True(t, open)
		require.NoError(t, snap.Err)
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
		return contracts.MessageSnapshot{}
	}
}

func nextConversationSnapshot(t *testing.T, ch <-chan contracts.ConversationSnapshot) contracts.ConversationSnapshot {
	t.Helper()
	select {
	case snap, open := <-ch:
		require.True(t, open)
		require.NoError(t, snap.Err)
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
		return contracts.ConversationSnapshot{}
	}
}

func awaitMessageCount(t *testing.T, ch <-chan contracts.MessageSnapshot, want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap, open := <-ch:
			require.True(t, open)
			require.NoError(t, snap.Err)
			if len(snap.Messages) == want {
				return
			}
		case <-deadline:
			t.Fatalf("never saw %d messages", want)
		}
	}
}

func awaitUnreadCount(t *testing.T, ch <-chan contracts.UnreadSnapshot, want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap, open := <-ch:
			require.True(t, open)
			require.NoError(t, snap.Err)
			if snap.Count == want {
				return
			}
		case <-deadline:
			t.Fatalf("never saw unread count %d", want)
		}
	}
}
