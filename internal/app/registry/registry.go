package registry

import (
	"sync"

	"github.com/SbuKhoza/handy-rentals-app/internal/core/contracts"
)

// Registry tracks one live shell session per user. A fresh connection
// for a user who already has one displaces the old session, so a new
// tab wins over a stale one.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]contracts.Client // user_id → client
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]contracts.Client),
	}
}

func (r *Registry) Register(c contracts.Client) {
	r.mu.Lock()
	prev := r.clients[c.UserID()]
	r.clients[c.UserID()] = c
	r.mu.Unlock()
	if prev != nil && prev != c {
		prev.Close()
	}
}

func (r *Registry) Unregister(c contracts.Client) {
	r.mu.Lock()
	if r.clients[c.UserID()] == c {
		delete(r.clients, c.UserID())
	}
	r.mu.Unlock()
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	clients := make([]contracts.Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.clients = make(map[string]contracts.Client)
	r.mu.Unlock()
	for _, c := range clients {
		c.Close()
	}
}
