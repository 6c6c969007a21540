package domain

import "time"

const (
	TypeConversations = "conversations"
	TypeMessages      = "messages"
	TypeUnread        = "unread"
	TypeThread        = "thread"
	TypeError         = "error"

	TypeOpen        = "open"
	TypeCloseThread = "close_thread"
	TypeSend        = "send"
	TypeContact     = "contact"
)

// ClientFrame is what the shell sends over the socket.
type ClientFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
	Text           string `json:"text,omitempty"`
	OwnerID        string `json:"owner_id,omitempty"`
	ListingID      string `json:"listing_id,omitempty"`
}

// ConversationView is one conversation as rendered for the viewer.
// CounterpartName is re-resolved live and preferred over the stale
// creation-time snapshot in ParticipantNames.
type ConversationView struct {
	ID                 string            `json:"id"`
	Participants       []string          `json:"participants"`
	ParticipantNames   map[string]string `json:"participant_names"`
	ParticipantAvatars map[string]string `json:"participant_avatars"`
	ListingID          string            `json:"listing_id,omitempty"`
	ListingTitle       string            `json:"listing_title,omitempty"`
	LastMessage        string            `json:"last_message"`
	LastMessageAt      time.Time         `json:"last_message_at"`
	CreatedAt          time.Time         `json:"created_at"`
	CounterpartID      string            `json:"counterpart_id"`
	CounterpartName    string            `json:"counterpart_name"`
}

// ConversationListFrame delivers the full current conversation set.
// Loading flips to false on the first delivery; Error is set instead of
// Conversations when the underlying read failed, so the shell can tell
// "nothing there" from "could not load".
type ConversationListFrame struct {
	Type          string             `json:"type"` // "conversations"
	Conversations []ConversationView `json:"conversations"`
	Loading       bool               `json:"loading"`
	Error         string             `json:"error,omitempty"`
}

// MessageView mirrors Message on the wire.
type MessageView struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	SenderAvatar   string    `json:"sender_avatar,omitempty"`
	ReceiverID     string    `json:"receiver_id"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
	Read           bool      `json:"read"`
}

// MessageListFrame delivers the full message set of the open thread.
type MessageListFrame struct {
	Type           string        `json:"type"` // "messages"
	ConversationID string        `json:"conversation_id"`
	Messages       []MessageView `json:"messages"`
	Error          string        `json:"error,omitempty"`
}

// UnreadFrame carries the badge count outside the messaging view.
type UnreadFrame struct {
	Type    string `json:"type"` // "unread"
	Count   int    `json:"count"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// ThreadFrame acknowledges an open or contact request with the thread
// that became active.
type ThreadFrame struct {
	Type         string           `json:"type"` // "thread"
	Conversation ConversationView `json:"conversation"`
}

// ErrorFrame is a socket-safe error.
type ErrorFrame struct {
	Type    string `json:"type"` // "error"
	Code    string `json:"code"`
	Message string `json:"message"`
}
