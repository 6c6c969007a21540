package services

import (
	"context"
	"log/slog"

	"github.com/SbuKhoza/handy-rentals-app/internal/core/contracts"
)

// ReadStateTracker exposes the live unread badge count: messages across
// all conversations addressed to the user and not yet read. Independent
// of which thread, if any, is open.
type ReadStateTracker struct {
	messages contracts.MessageStore
	log      *slog.Logger
}

func NewReadStateTracker(log *slog.Logger, messages contracts.MessageStore) *ReadStateTracker {
	return &ReadStateTracker{messages: messages, log: log}
}

// Subscribe streams userID's unread count. A signed-out caller (empty
// id) gets a single zero snapshot and a closed channel: zero and not
// loading, never an error.
func (t *ReadStateTracker) Subscribe(ctx context.Context, userID string) (<-chan contracts.UnreadSnapshot, error) {
	if userID == "" {
		out := make(chan contracts.UnreadSnapshot, 1)
		out <- contracts.UnreadSnapshot{Count: 0}
		close(out)
		return out, nil
	}
	in, err := t.messages.WatchUnread(ctx, userID)
	if err != nil {
		t.log.ErrorContext(ctx, "unread - subscribe - watch failed", "user_id", userID, "err", err)
		return nil, err
	}
	out := make(chan contracts.UnreadSnapshot, 1)
	go func() {
		defer close(out)
		for snap := range in {
			if snap.Err != nil {
				t.log.ErrorContext(ctx, "unread - subscribe - snapshot error", "user_id", userID, "err", snap.Err)
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
