package postgres

import (
	"context"

	"github.com/SbuKhoza/handy-rentals-app/internal/core/contracts"
)

// watchQuery is the snapshot-delivery primitive shared by every watch:
// deliver the current result set immediately, then re-run the query
// after each change notification. Buffer of one with drop-stale keeps
// the latest snapshot flowing to a slow consumer; intermediates carry
// no information a full snapshot doesn't.
func watchQuery[T any](
	ctx context.Context,
	notifier contracts.ChangeNotifier,
	topics []string,
	query func(ctx context.Context) T,
) (<-chan T, error) {
	events, err := notifier.Subscribe(ctx, topics...)
	if err != nil {
		return nil, err
	}
	out := make(chan T, 1)
	go func() {
		defer close(out)
		deliver := func() {
			snap := query(ctx)
			select {
			case <-out:
			default:
			}
			select {
			case out <- snap:
			case <-ctx.Done():
			}
		}
		deliver()
		for range events {
			deliver()
		}
	}()
	return out, nil
}
