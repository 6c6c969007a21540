package redis

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Notifier carries change topics over redis pub/sub so a write on one
// node re-queries watchers on every node. Fire-and-forget fan-out: a
// missed event only delays a snapshot until the next change, it never
// corrupts one, because watchers re-read the full result set.
type Notifier struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewNotifier(log *slog.Logger, rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb, log: log}
}

func (n *Notifier) Publish(ctx context.Context, topics ...string) error {
	for _, topic := range topics {
		if err := n.rdb.Publish(ctx, channelKey(topic), topic).Err(); err != nil {
			n.log.WarnContext(ctx, "notifier - publish - failed", "topic", topic, "err", err)
			return err
		}
	}
	return nil
}

// Subscribe delivers topic names until ctx ends. A single receive error
// does not kill the stream; go-redis re-arms the subscription under the
// hood and the channel keeps going.
func (n *Notifier) Subscribe(ctx context.Context, topics ...string) (<-chan string, error) {
	channels := make([]string, len(topics))
	for i, t := range topics {
		channels[i] = channelKey(t)
	}
	pubsub := n.rdb.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}
	out := make(chan string, 1)
	in := pubsub.Channel()
	go func() {
		defer close(out)
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func channelKey(topic string) string {
	return "change:" + topic
}
