package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeClient struct {
	userID string
	closed bool
}

func (c *fakeClient) UserID() string                     { return c.userID }
func (c *fakeClient) Send(context.Context, []byte) error { return nil }
func (c *fakeClient) Close()                             { c.closed = true }

func TestRegisterDisplacesPreviousSession(t *testing.T) {
	r := NewRegistry()

	old := &fakeClient{userID: "alice"}
	r.Register(old)

	fresh := &fakeClient{userID: "alice"}
	r.Register(fresh)

	assert.True(t, old.closed, "the stale tab is closed")
	assert.False(t, fresh.closed)
}

func TestRegisterSameClientTwice(t *testing.T) {
	r := NewRegistry()
	c := &fakeClient{userID: "alice"}
	r.Register(c)
	r.Register(c)
	assert.False(t, c.closed)
}

func TestUnregisterOnlyRemovesOwnEntry(t *testing.T) {
	r := NewRegistry()

	old := &fakeClient{userID: "alice"}
	r.Register(old)
	fresh := &fakeClient{userID: "alice"}
	r.Register(fresh)

	// The displaced session's deferred unregister must not evict the
	// session that replaced it.
	r.Unregister(old)
	r.CloseAll()
	assert.True(t, fresh.closed)
}

func TestCloseAll(t *testing.T) {
	r := NewRegistry()
	a := &fakeClient{userID: "alice"}
	b := &fakeClient{userID: "bob"}
	r.Register(a)
	r.Register(b)

	r.CloseAll()
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}
