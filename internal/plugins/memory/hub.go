package memory

import (
	"context"
	"sync"
)

// hub is the in-process change fabric: the same publish/re-query wiring
// the redis notifier provides, minus the network. One buffered tick per
// subscriber; coalescing ticks is fine because watchers re-query the
// full snapshot anyway.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[int]chan struct{}
	next int
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[int]chan struct{})}
}

func (h *hub) notify(topics ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, topic := range topics {
		for _, ch := range h.subs[topic] {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

// subscribe returns a tick channel that fires after any of the topics
// change. The channel closes when ctx ends.
func (h *hub) subscribe(ctx context.Context, topics ...string) <-chan struct{} {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	id := h.next
	h.next++
	for _, topic := range topics {
		if h.subs[topic] == nil {
			h.subs[topic] = make(map[int]chan struct{})
		}
		h.subs[topic][id] = ch
	}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		for _, topic := range topics {
			delete(h.subs[topic], id)
			if len(h.subs[topic]) == 0 {
				delete(h.subs, topic)
			}
		}
		h.mu.Unlock()
		close(ch)
	}()
	return ch
}
