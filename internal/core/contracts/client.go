package contracts

import "context"

// Client is the minimal surface the registry needs to talk to one
// connected shell session.
type Client interface {
	UserID() string
	Send(ctx context.Context, data []byte) error
	Close()
}

// Registry tracks connected shell sessions, one per user. Registering a
// second session for the same user displaces the first.
type Registry interface {
	Register(c Client)
	Unregister(c Client)
	CloseAll()
}
