package contracts

import "context"

// ChangeNotifier is the invalidation fabric behind live snapshots.
// Store writers publish a topic after every mutation; watchers subscribe
// and re-query the full snapshot on each event. Payloads are just the
// topic name: the event means "something changed", never what.
type ChangeNotifier interface {
	Publish(ctx context.Context, topics ...string) error
	// Subscribe delivers topic names as they fire. The channel closes
	// when ctx ends.
	Subscribe(ctx context.Context, topics ...string) (<-chan string, error)
}

// Topic helpers keep writers and watchers agreeing on names.

func TopicConversations(userID string) string { return "conv:" + userID }
func TopicMessages(convID string) string      { return "msgs:" + convID }
func TopicInbox(userID string) string         { return "inbox:" + userID }
