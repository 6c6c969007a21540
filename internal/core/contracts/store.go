package contracts

import (
	"context"

	"github.com/SbuKhoza/handy-rentals-app/internal/core/domain"
)

// ConversationSnapshot is one live delivery of the viewer's full
// conversation set. Err is set in place of data when the underlying read
// failed; the stream keeps listening after an errored delivery.
type ConversationSnapshot struct {
	Conversations []domain.Conversation
	Err           error
}

// MessageSnapshot is one live delivery of a thread's full message log.
type MessageSnapshot struct {
	Messages []domain.Message
	Err      error
}

// UnreadSnapshot is one live delivery of a user's unread message count.
type UnreadSnapshot struct {
	Count int
	Err   error
}

// ConversationStore is the document-store capability the directory runs
// against: point reads, an array-contains query on participants, create
// with store-assigned id and timestamps, and a field update that stamps
// a server-side lastMessageAt.
type ConversationStore interface {
	GetConversation(ctx context.Context, convID string) (*domain.Conversation, error)
	// ListConversations returns every conversation userID participates
	// in. Snapshot read, unordered.
	ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error)
	// CreateConversation persists c and returns it with the assigned id
	// and server-assigned created/lastMessageAt timestamps filled in.
	CreateConversation(ctx context.Context, c *domain.Conversation) (*domain.Conversation, error)
	// SetLastMessage updates the preview text and stamps lastMessageAt
	// server-side.
	SetLastMessage(ctx context.Context, convID, text string) error
	// WatchConversations delivers the full unordered set on subscribe
	// and again after every relevant change. The channel closes when ctx
	// ends. Latest wins; intermediate snapshots may be dropped.
	WatchConversations(ctx context.Context, userID string) (<-chan ConversationSnapshot, error)
}

// MessageStore is the document-store capability the message channel and
// read-state tracker run against.
type MessageStore interface {
	// AppendMessage persists m and returns it with the assigned id and
	// server-assigned CreatedAt.
	AppendMessage(ctx context.Context, m *domain.Message) (*domain.Message, error)
	// ListMessages returns the thread's messages, unordered.
	ListMessages(ctx context.Context, convID string) ([]domain.Message, error)
	// MarkConversationRead flips read=true on every unread message in
	// the conversation addressed to readerID, atomically, and returns
	// how many were flipped. Zero unread is a successful no-op.
	MarkConversationRead(ctx context.Context, convID, readerID string) (int, error)
	// CountUnread counts unread messages addressed to receiverID across
	// all conversations.
	CountUnread(ctx context.Context, receiverID string) (int, error)
	// WatchMessages delivers the thread's full unordered message set on
	// subscribe and after every change. Closes when ctx ends.
	WatchMessages(ctx context.Context, convID string) (<-chan MessageSnapshot, error)
	// WatchUnread delivers receiverID's unread count on subscribe and
	// after every change. Closes when ctx ends.
	WatchUnread(ctx context.Context, receiverID string) (<-chan UnreadSnapshot, error)
}
