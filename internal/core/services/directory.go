package services

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SbuKhoza/handy-rentals-app/internal/core/contracts"
	"github.com/SbuKhoza/handy-rentals-app/internal/core/domain"
)

var tracer = otel.Tracer("messaging-core")

// ConversationDirectory maintains the set of conversations a user
// participates in: a live ordered view plus the find-or-create entry
// point used when contacting a listing owner.
type ConversationDirectory struct {
	store    contracts.ConversationStore
	listings contracts.ListingSource
	profiles *ProfileResolver
	log      *slog.Logger
}

func NewConversationDirectory(
	log *slog.Logger,
	store contracts.ConversationStore,
	listings contracts.ListingSource,
	profiles *ProfileResolver,
) *ConversationDirectory {
	return &ConversationDirectory{
		store:    store,
		listings: listings,
		profiles: profiles,
		log:      log,
	}
}

// Subscribe streams the full conversation set for userID, re-sorted
// most-recent-first on every delivery. The stream ends when ctx does.
// An errored delivery carries Err and an empty set; the subscription
// stays armed afterwards.
func (d *ConversationDirectory) Subscribe(ctx context.Context, userID string) (<-chan contracts.ConversationSnapshot, error) {
	if userID == "" {
		return nil, domain.ErrMissingUser
	}
	in, err := d.store.WatchConversations(ctx, userID)
	if err != nil {
		d.log.ErrorContext(ctx, "directory - subscribe - watch failed", "user_id", userID, "err", err)
		return nil, err
	}
	out := make(chan contracts.ConversationSnapshot, 1)
	go func() {
		defer close(out)
		for snap := range in {
			if snap.Err != nil {
				d.log.ErrorContext(ctx, "directory - subscribe - snapshot error", "user_id", userID, "err", snap.Err)
			} else {
				domain.SortConversations(snap.Conversations)
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

// GetOrCreate finds the conversation between who and counterpartID in
// the given listing context, creating it when absent. The scan and the
// create are not atomic: two concurrent callers can both miss and both
// create, a documented limitation of the store model.
func (d *ConversationDirectory) GetOrCreate(
	ctx context.Context,
	who domain.Identity,
	counterpartID, listingID string,
) (*domain.Conversation, error) {
	ctx, span := tracer.Start(ctx, "ConversationDirectory.GetOrCreate", trace.WithAttributes(
		attribute.String("user_id", who.ID),
		attribute.String("counterpart_id", counterpartID),
	))
	defer span.End()

	if who.ID == "" || counterpartID == "" {
		return nil, domain.ErrMissingUser
	}
	if who.ID == counterpartID {
		span.RecordError(domain.ErrSelfConversation)
		return nil, domain.ErrSelfConversation
	}

	existing, err := d.store.ListConversations(ctx, who.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		d.log.ErrorContext(ctx, "directory - get or create - list conversations failed", "user_id", who.ID, "err", err)
		return nil, err
	}
	for i := range existing {
		if existing[i].MatchesContext(counterpartID, listingID) {
			return &existing[i], nil
		}
	}

	// New thread: snapshot both names/avatars and the listing title at
	// creation time. These are caches, not references; they go stale.
	var mine, theirs *domain.Profile
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		mine = d.profiles.Resolve(ctx, who.ID)
	}()
	go func() {
		defer wg.Done()
		theirs = d.profiles.Resolve(ctx, counterpartID)
	}()
	wg.Wait()

	title := ""
	if listingID != "" {
		if l, err := d.listings.FetchListing(ctx, listingID); err != nil {
			d.log.WarnContext(ctx, "directory - get or create - listing lookup failed", "listing_id", listingID, "err", err)
		} else if l != nil {
			title = l.Title
		}
	}

	conv := &domain.Conversation{
		Participants: []string{who.ID, counterpartID},
		ParticipantNames: map[string]string{
			who.ID:        firstNonEmpty(mine.Label(), who.DisplayName, FallbackLabel),
			counterpartID: firstNonEmpty(theirs.Label(), FallbackLabel),
		},
		ParticipantAvatars: map[string]string{
			who.ID:        firstNonEmpty(mine.Photo(), who.AvatarURL),
			counterpartID: theirs.Photo(),
		},
		ListingID:    listingID,
		ListingTitle: title,
	}
	created, err := d.store.CreateConversation(ctx, conv)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		d.log.ErrorContext(ctx, "directory - get or create - create conversation failed", "user_id", who.ID, "counterpart_id", counterpartID, "err", err)
		return nil, err
	}
	d.log.InfoContext(ctx, "directory - get or create - conversation created", "conv_id", created.ID, "user_id", who.ID, "counterpart_id", counterpartID, "listing_id", listingID)
	return created, nil
}

// CounterpartName resolves the live display name for the viewer's
// counterpart in conv, preferring the resolver's answer over the stale
// creation-time snapshot.
func (d *ConversationDirectory) CounterpartName(ctx context.Context, conv *domain.Conversation, viewerID string) string {
	other := conv.OtherParticipant(viewerID)
	if other == "" {
		return FallbackLabel
	}
	if p := d.profiles.Resolve(ctx, other); p.Label() != "" {
		return p.Label()
	}
	if n := conv.ParticipantNames[other]; n != "" {
		return n
	}
	return FallbackLabel
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
