package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/SbuKhoza/handy-rentals-app/internal/core/contracts"
	"github.com/SbuKhoza/handy-rentals-app/internal/core/domain"
)

// ThreadSession runs the per-user "openness" state machine: at most one
// thread is open at a time; opening a thread arms its message watch and
// marks everything unread as read, and it marks again on every snapshot
// so messages arriving while the thread is on screen settle too.
// Switching threads or closing the session cancels the previous watch —
// a watch outliving its owner is a leak, not a feature.
type ThreadSession struct {
	who     domain.Identity
	channel *MessageChannel
	log     *slog.Logger

	mu           sync.Mutex
	activeID     string
	cancelActive context.CancelFunc
	done         sync.WaitGroup
}

func NewThreadSession(log *slog.Logger, who domain.Identity, channel *MessageChannel) *ThreadSession {
	return &ThreadSession{
		who:     who,
		channel: channel,
		log:     log,
	}
}

// ActiveID returns the open thread's id, empty when closed.
func (s *ThreadSession) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Open makes convID the active thread and streams its snapshots to
// deliver until the thread is deselected or ctx ends. Re-opening the
// already-open thread re-arms it, which re-triggers the idempotent
// mark-read. deliver is called from a single goroutine.
func (s *ThreadSession) Open(ctx context.Context, convID string, deliver func(contracts.MessageSnapshot)) error {
	if convID == "" {
		return domain.ErrInvalidConversation
	}
	s.mu.Lock()
	if s.cancelActive != nil {
		s.cancelActive()
		s.cancelActive = nil
	}
	watchCtx, cancel := context.WithCancel(ctx)
	snaps, err := s.channel.Subscribe(watchCtx, convID)
	if err != nil {
		cancel()
		s.activeID = ""
		s.mu.Unlock()
		return err
	}
	s.activeID = convID
	s.cancelActive = cancel
	s.done.Add(1)
	s.mu.Unlock()

	// Entering the open state always re-triggers mark-read, even when
	// already settled.
	if err := s.channel.MarkAllRead(ctx, convID, s.who.ID); err != nil {
		s.log.WarnContext(ctx, "session - open - mark read failed", "conv_id", convID, "user_id", s.who.ID, "err", err)
	}

	go func() {
		defer s.done.Done()
		for snap := range snaps {
			deliver(snap)
			if snap.Err == nil {
				if err := s.channel.MarkAllRead(watchCtx, convID, s.who.ID); err != nil {
					s.log.WarnContext(watchCtx, "session - open - mark read failed", "conv_id", convID, "user_id", s.who.ID, "err", err)
				}
			}
		}
	}()
	s.log.InfoContext(ctx, "session - open - thread active", "conv_id", convID, "user_id", s.who.ID)
	return nil
}

// CloseThread deselects the active thread and cancels its watch. Safe
// to call with nothing open.
func (s *ThreadSession) CloseThread() {
	s.mu.Lock()
	if s.cancelActive != nil {
		s.cancelActive()
		s.cancelActive = nil
	}
	s.activeID = ""
	s.mu.Unlock()
}

// Close tears the session down and waits for the watch goroutine to
// drain.
func (s *ThreadSession) Close() {
	s.CloseThread()
	s.done.Wait()
}
