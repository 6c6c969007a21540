package domain

import "errors"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrSelfConversation     = errors.New("cannot start a conversation with yourself")
	ErrEmptyMessage         = errors.New("message text is empty")
	ErrNotParticipant       = errors.New("sender is not a conversation participant")
	ErrInvalidConversation  = errors.New("invalid conversation")
	ErrMissingUser          = errors.New("missing user id")
)
