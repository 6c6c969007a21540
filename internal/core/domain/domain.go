package domain

import (
	"sort"
	"time"
)

// Identity is the authenticated caller as issued by the auth provider.
// It is passed explicitly into every core operation; nothing in this
// package reads ambient session state.
type Identity struct {
	ID          string
	DisplayName string
	AvatarURL   string
	Email       string
}

// Profile is a user record resolved from one of the profile sources.
// UserName wins over DisplayName when both are set.
type Profile struct {
	ID          string
	UserName    string
	DisplayName string
	PhotoURL    string
}

// Label returns the preferred display label, empty when the profile
// carries no usable name.
func (p *Profile) Label() string {
	if p == nil {
		return ""
	}
	if p.UserName != "" {
		return p.UserName
	}
	return p.DisplayName
}

// Photo returns the avatar URL, empty for an unknown profile.
func (p *Profile) Photo() string {
	if p == nil {
		return ""
	}
	return p.PhotoURL
}

// Listing is the slice of a marketplace listing this core consumes:
// just enough to snapshot a title into a new conversation.
type Listing struct {
	ID    string
	Title string
}

// Conversation is a two-party thread, optionally scoped to a listing.
// The participant set is fixed at creation. Name/avatar/title fields are
// snapshots captured at creation time and are expected to go stale; live
// resolution happens through the profile resolver on top of them.
type Conversation struct {
	ID                 string
	Participants       []string
	ParticipantNames   map[string]string
	ParticipantAvatars map[string]string
	ListingID          string
	ListingTitle       string
	LastMessage        string
	LastMessageAt      time.Time
	CreatedAt          time.Time
}

// HasParticipant reports whether userID is one of the two members.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the counterpart of userID, empty when userID
// is not a member.
func (c *Conversation) OtherParticipant(userID string) string {
	if !c.HasParticipant(userID) {
		return ""
	}
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// MatchesContext reports whether the conversation covers the
// (counterpart, listing) pair. Listing ids must be equal; two empty ids
// count as equal. A different listing is a different thread.
func (c *Conversation) MatchesContext(counterpartID, listingID string) bool {
	return c.HasParticipant(counterpartID) && c.ListingID == listingID
}

// Message is one append-only entry in a conversation. CreatedAt is
// assigned by the store on write, never by the sender.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	SenderName     string
	SenderAvatar   string
	ReceiverID     string
	Text           string
	CreatedAt      time.Time
	Read           bool
}

// SortConversations orders most-recently-active first. A zero
// LastMessageAt sorts as epoch zero, which pushes never-messaged
// conversations to the end. The store gives no ordering guarantee, so
// every delivered snapshot goes through here.
func SortConversations(convs []Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].LastMessageAt.After(convs[j].LastMessageAt)
	})
}

// SortMessages orders ascending by store-assigned CreatedAt, re-applied
// on every snapshot because delivery order is not guaranteed.
func SortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}
