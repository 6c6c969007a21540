package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SbuKhoza/handy-rentals-app/internal/core/domain"
)

// Contact-owner flow: renter A lands on B's listing, opens a thread, and
// sends the first message.
func TestContactOwnerFlow(t *testing.T) {
	f := newDirectoryFixture()
	ctx := context.Background()

	f.profiles.Put(domain.Profile{ID: "alice", UserName: "alice_rents"})
	f.users.Put(domain.Profile{ID: "bob", DisplayName: "Bob Builder"})
	f.listings.Put(domain.Listing{ID: "listing-1", Title: "Cordless Drill"})

	conv, err := f.directory.GetOrCreate(ctx, alice, "bob", "listing-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, conv.Participants)
	assert.Equal(t, "alice_rents", conv.ParticipantNames["alice"])
	assert.Equal(t, "Bob Builder", conv.ParticipantNames["bob"])
	assert.Equal(t, "listing-1", conv.ListingID)
	assert.Equal(t, "Cordless Drill", conv.ListingTitle)
	assert.Empty(t, conv.LastMessage)

	channel := NewMessageChannel(testLogger(), f.store, f.store)
	msg, err := channel.Send(ctx, alice, conv.ID, "Is this still available?")
	require.NoError(t, err)
	assert.Equal(t, "bob", msg.ReceiverID)
	assert.False(t, msg.Read)

	msgs, err := f.store.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Is this still available?", msgs[0].Text)

	updated, err := f.store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Is this still available?", updated.LastMessage)
}
