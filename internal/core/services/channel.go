package services

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SbuKhoza/handy-rentals-app/internal/core/contracts"
	"github.com/SbuKhoza/handy-rentals-app/internal/core/domain"
)

// MessageChannel is the append-only ordered log of one conversation:
// live snapshots, send, and the bulk mark-read used when a thread is
// opened.
type MessageChannel struct {
	messages      contracts.MessageStore
	conversations contracts.ConversationStore
	log           *slog.Logger
}

func NewMessageChannel(
	log *slog.Logger,
	messages contracts.MessageStore,
	conversations contracts.ConversationStore,
) *MessageChannel {
	return &MessageChannel{
		messages:      messages,
		conversations: conversations,
		log:           log,
	}
}

// Subscribe streams the thread's full message set, re-sorted ascending
// by store-assigned CreatedAt on every delivery. The transport gives no
// ordering guarantee, so the sort is re-applied each time.
func (c *MessageChannel) Subscribe(ctx context.Context, convID string) (<-chan contracts.MessageSnapshot, error) {
	if convID == "" {
		return nil, domain.ErrInvalidConversation
	}
	in, err := c.messages.WatchMessages(ctx, convID)
	if err != nil {
		c.log.ErrorContext(ctx, "channel - subscribe - watch failed", "conv_id", convID, "err", err)
		return nil, err
	}
	out := make(chan contracts.MessageSnapshot, 1)
	go func() {
		defer close(out)
		for snap := range in {
			if snap.Err != nil {
				c.log.ErrorContext(ctx, "channel - subscribe - snapshot error", "conv_id", convID, "err", snap.Err)
			} else {
				domain.SortMessages(snap.Messages)
			}
			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Send validates and appends a message, then refreshes the parent
// conversation's preview fields. The two writes are not atomic: once
// the message exists the send has succeeded, and a failed preview
// update only leaves the conversation summary stale until the next
// send.
func (c *MessageChannel) Send(ctx context.Context, who domain.Identity, convID, text string) (*domain.Message, error) {
	ctx, span := tracer.Start(ctx, "MessageChannel.Send", trace.WithAttributes(
		attribute.String("conv_id", convID),
		attribute.String("sender_id", who.ID),
	))
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyMessage
	}
	conv, err := c.conversations.GetConversation(ctx, convID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "conversation lookup failed")
		c.log.ErrorContext(ctx, "channel - send - conversation lookup failed", "conv_id", convID, "err", err)
		return nil, err
	}
	if conv == nil {
		return nil, domain.ErrConversationNotFound
	}
	if !conv.HasParticipant(who.ID) {
		c.log.WarnContext(ctx, "channel - send - sender not a participant", "conv_id", convID, "sender_id", who.ID)
		return nil, domain.ErrNotParticipant
	}

	msg := &domain.Message{
		ConversationID: convID,
		SenderID:       who.ID,
		SenderName:     firstNonEmpty(conv.ParticipantNames[who.ID], who.DisplayName, FallbackLabel),
		SenderAvatar:   who.AvatarURL,
		ReceiverID:     conv.OtherParticipant(who.ID),
		Text:           text,
		Read:           false,
	}
	saved, err := c.messages.AppendMessage(ctx, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "append failed")
		c.log.ErrorContext(ctx, "channel - send - append message failed", "conv_id", convID, "sender_id", who.ID, "err", err)
		return nil, err
	}
	if err := c.conversations.SetLastMessage(ctx, convID, text); err != nil {
		// Preview staleness is cosmetic and self-heals on the next send.
		span.RecordError(err)
		c.log.WarnContext(ctx, "channel - send - preview update failed", "conv_id", convID, "err", err)
	}
	c.log.InfoContext(ctx, "channel - send - message appended", "conv_id", convID, "message_id", saved.ID, "receiver_id", saved.ReceiverID)
	return saved, nil
}

// MarkAllRead flips every unread message addressed to readerID in the
// conversation, atomically. Idempotent: nothing unread is a quiet
// no-op, and already-read flags never flip back.
func (c *MessageChannel) MarkAllRead(ctx context.Context, convID, readerID string) error {
	if convID == "" || readerID == "" {
		return domain.ErrInvalidConversation
	}
	n, err := c.messages.MarkConversationRead(ctx, convID, readerID)
	if err != nil {
		c.log.ErrorContext(ctx, "channel - mark all read - batch failed", "conv_id", convID, "reader_id", readerID, "err", err)
		return err
	}
	if n > 0 {
		c.log.InfoContext(ctx, "channel - mark all read - marked", "conv_id", convID, "reader_id", readerID, "count", n)
	}
	return nil
}
