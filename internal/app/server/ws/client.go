package ws

import (
	"context"
	"errors"
	"sync"
)

// RuntimeClient pairs a socket with its owning user and serializes all
// outbound writes through one goroutine.
type RuntimeClient struct {
	ctx    context.Context
	cancel context.CancelFunc
	ws     *WebSocket
	userID string
	out    chan []byte
	once   sync.Once
}

func NewClient(parent context.Context, ws *WebSocket, userID string) *RuntimeClient {
	ctx, cancel := context.WithCancel(parent)
	c := &RuntimeClient{
		ctx:    ctx,
		cancel: cancel,
		ws:     ws,
		userID: userID,
		out:    make(chan []byte, 256),
	}
	go c.writeLoop()
	return c
}

func (c *RuntimeClient) UserID() string { return c.userID }

// Done fires when the client is closed from either side.
func (c *RuntimeClient) Done() <-chan struct{} { return c.ctx.Done() }

func (c *RuntimeClient) Send(ctx context.Context, data []byte) error {
	select {
	case c.out <- data:
		return nil
	case <-c.ctx.Done():
		return errors.New("client closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *RuntimeClient) Close() {
	c.once.Do(func() {
		c.cancel()
		close(c.out)
		c.ws.Close()
	})
}

func (c *RuntimeClient) writeLoop() {
	defer c.Close()
	for {
		select {
		case <-c.ctx.Done():
			return
		case data, ok := <-c.out:
			if !ok {
				return
			}
			_ = c.ws.WriteMessage(data)
		}
	}
}
