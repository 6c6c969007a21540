package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SbuKhoza/handy-rentals-app/internal/core/contracts"
	"github.com/SbuKhoza/handy-rentals-app/internal/core/domain"
)

// Store is the in-memory document store adapter: the same contract
// surface as the postgres adapter, backed by maps. It is the hermetic
// backend for tests and the zero-dependency dev mode.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]domain.Conversation
	messages      map[string]domain.Message
	hub           *hub
	now           func() time.Time
	lastStamp     time.Time
}

func NewStore() *Store {
	return &Store{
		conversations: make(map[string]domain.Conversation),
		messages:      make(map[string]domain.Message),
		hub:           newHub(),
		now:           time.Now,
	}
}

// SetClock replaces the server-timestamp source. Test hook.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// stamp plays the role of the store's server-assigned timestamp and is
// strictly increasing so ordering stays total even within one tick.
// Callers hold s.mu.
func (s *Store) stamp() time.Time {
	t := s.now()
	if !t.After(s.lastStamp) {
		t = s.lastStamp.Add(time.Microsecond)
	}
	s.lastStamp = t
	return t
}

func (s *Store) GetConversation(ctx context.Context, convID string) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[convID]
	if !ok {
		return nil, nil
	}
	c = cloneConversation(c)
	return &c, nil
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Conversation
	for _, c := range s.conversations {
		if c.HasParticipant(userID) {
			out = append(out, cloneConversation(c))
		}
	}
	// Map iteration order stands in for the store's lack of ordering
	// guarantees.
	return out, nil
}

func (s *Store) CreateConversation(ctx context.Context, c *domain.Conversation) (*domain.Conversation, error) {
	s.mu.Lock()
	stored := cloneConversation(*c)
	stored.ID = uuid.NewString()
	stored.CreatedAt = s.stamp()
	// LastMessageAt stays zero until the first send so empty threads
	// sort last.
	stored.LastMessage = ""
	stored.LastMessageAt = time.Time{}
	s.conversations[stored.ID] = stored
	participants := append([]string(nil), stored.Participants...)
	s.mu.Unlock()

	for _, p := range participants {
		s.hub.notify(contracts.TopicConversations(p))
	}
	created := cloneConversation(stored)
	return &created, nil
}

func (s *Store) SetLastMessage(ctx context.Context, convID, text string) error {
	s.mu.Lock()
	c, ok := s.conversations[convID]
	if !ok {
		s.mu.Unlock()
		return domain.ErrConversationNotFound
	}
	c.LastMessage = text
	c.LastMessageAt = s.stamp()
	s.conversations[convID] = c
	participants := append([]string(nil), c.Participants...)
	s.mu.Unlock()

	for _, p := range participants {
		s.hub.notify(contracts.TopicConversations(p))
	}
	return nil
}

func (s *Store) AppendMessage(ctx context.Context, m *domain.Message) (*domain.Message, error) {
	s.mu.Lock()
	stored := *m
	stored.ID = uuid.NewString()
	stored.CreatedAt = s.stamp()
	s.messages[stored.ID] = stored
	s.mu.Unlock()

	s.hub.notify(contracts.TopicMessages(stored.ConversationID), contracts.TopicInbox(stored.ReceiverID))
	saved := stored
	return &saved, nil
}

func (s *Store) ListMessages(ctx context.Context, convID string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Message
	for _, m := range s.messages {
		if m.ConversationID == convID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) MarkConversationRead(ctx context.Context, convID, readerID string) (int, error) {
	s.mu.Lock()
	n := 0
	for id, m := range s.messages {
		if m.ConversationID == convID && m.ReceiverID == readerID && !m.Read {
			m.Read = true
			s.messages[id] = m
			n++
		}
	}
	s.mu.Unlock()

	if n > 0 {
		s.hub.notify(contracts.TopicMessages(convID), contracts.TopicInbox(readerID))
	}
	return n, nil
}

func (s *Store) CountUnread(ctx context.Context, receiverID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.messages {
		if m.ReceiverID == receiverID && !m.Read {
			n++
		}
	}
	return n, nil
}

func (s *Store) WatchConversations(ctx context.Context, userID string) (<-chan contracts.ConversationSnapshot, error) {
	return watch(ctx, s.hub, []string{contracts.TopicConversations(userID)}, func() contracts.ConversationSnapshot {
		convs, err := s.ListConversations(ctx, userID)
		return contracts.ConversationSnapshot{Conversations: convs, Err: err}
	}), nil
}

func (s *Store) WatchMessages(ctx context.Context, convID string) (<-chan contracts.MessageSnapshot, error) {
	return watch(ctx, s.hub, []string{contracts.TopicMessages(convID)}, func() contracts.MessageSnapshot {
		msgs, err := s.ListMessages(ctx, convID)
		return contracts.MessageSnapshot{Messages: msgs, Err: err}
	}), nil
}

func (s *Store) WatchUnread(ctx context.Context, receiverID string) (<-chan contracts.UnreadSnapshot, error) {
	return watch(ctx, s.hub, []string{contracts.TopicInbox(receiverID)}, func() contracts.UnreadSnapshot {
		n, err := s.CountUnread(ctx, receiverID)
		return contracts.UnreadSnapshot{Count: n, Err: err}
	}), nil
}

// watch turns tick-on-change into snapshot-on-change: deliver the
// current snapshot immediately, then re-query after every tick. Buffer
// of one with drop-stale gives latest-wins delivery to slow consumers.
func watch[T any](ctx context.Context, h *hub, topics []string, query func() T) <-chan T {
	ticks := h.subscribe(ctx, topics...)
	out := make(chan T, 1)
	go func() {
		defer close(out)
		deliver := func() {
			snap := query()
			select {
			case <-out:
			default:
			}
			select {
			case out <- snap:
			case <-ctx.Done():
			}
		}
		deliver()
		for range ticks {
			deliver()
		}
	}()
	return out
}

func cloneConversation(c domain.Conversation) domain.Conversation {
	c.Participants = append([]string(nil), c.Participants...)
	names := make(map[string]string, len(c.ParticipantNames))
	for k, v := range c.ParticipantNames {
		names[k] = v
	}
	c.ParticipantNames = names
	avatars := make(map[string]string, len(c.ParticipantAvatars))
	for k, v := range c.ParticipantAvatars {
		avatars[k] = v
	}
	c.ParticipantAvatars = avatars
	return c
}
