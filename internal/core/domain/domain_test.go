package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationParticipants(t *testing.T) {
	c := Conversation{Participants: []string{"alice", "bob"}}

	assert.True(t, c.HasParticipant("alice"))
	assert.True(t, c.HasParticipant("bob"))
	assert.False(t, c.HasParticipant("mallory"))

	assert.Equal(t, "bob", c.OtherParticipant("alice"))
	assert.Equal(t, "alice", c.OtherParticipant("bob"))
	assert.Equal(t, "", c.OtherParticipant("mallory"))
}

func TestMatchesContext(t *testing.T) {
	c := Conversation{Participants: []string{"alice", "bob"}, ListingID: "l1"}

	assert.True(t, c.MatchesContext("bob", "l1"))
	assert.False(t, c.MatchesContext("bob", "l2"), "different listing is a different thread")
	assert.False(t, c.MatchesContext("bob", ""), "listing thread does not match a no-listing request")
	assert.False(t, c.MatchesContext("mallory", "l1"))

	bare := Conversation{Participants: []string{"alice", "bob"}}
	assert.True(t, bare.MatchesContext("bob", ""), "both absent counts as a match")
}

func TestProfileLabel(t *testing.T) {
	var nilProfile *Profile
	assert.Equal(t, "", nilProfile.Label())
	assert.Equal(t, "", nilProfile.Photo())

	assert.Equal(t, "handle", (&Profile{UserName: "handle", DisplayName: "Full Name"}).Label())
	assert.Equal(t, "Full Name", (&Profile{DisplayName: "Full Name"}).Label())
	assert.Equal(t, "", (&Profile{PhotoURL: "x"}).Label())
}

func TestSortConversations(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	convs := []Conversation{
		{ID: "old", LastMessageAt: base.Add(-time.Hour)},
		{ID: "empty"}, // never messaged, zero timestamp
		{ID: "new", LastMessageAt: base},
	}
	SortConversations(convs)

	require.Len(t, convs, 3)
	assert.Equal(t, "new", convs[0].ID)
	assert.Equal(t, "old", convs[1].ID)
	assert.Equal(t, "empty", convs[2].ID, "empty conversations sort last")
}

func TestSortMessagesReordersAnyDelivery(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// Deliberately shuffled delivery order.
	msgs := []Message{
		{ID: "3", CreatedAt: base.Add(2 * time.Second)},
		{ID: "1", CreatedAt: base},
		{ID: "4", CreatedAt: base.Add(3 * time.Second)},
		{ID: "2", CreatedAt: base.Add(time.Second)},
	}
	SortMessages(msgs)

	for i, want := range []string{"1", "2", "3", "4"} {
		assert.Equal(t, want, msgs[i].ID)
	}
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt), "non-decreasing createdAt")
	}
}
