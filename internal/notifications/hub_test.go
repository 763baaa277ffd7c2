package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func receive(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return string(msg)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("no message received")
		return ""
	}
}

func assertNoMessage(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.Send:
		t.Fatalf("unexpected message %q", msg)
	case <-time.After(5 * testPollInterval):
	}
}

func TestHub_BroadcastTargetsUser(t *testing.T) {
	hub := NewHub()
	a1, err := hub.Register(1, nil)
	require.NoError(t, err)
	a2, err := hub.Register(1, nil)
	require.NoError(t, err)
	b, err := hub.Register(2, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, hub.ConnectionCount())

	hub.Broadcast(1, "hola")
	assert.Equal(t, "hola", receive(t, a1))
	assert.Equal(t, "hola", receive(t, a2))
	assertNoMessage(t, b)

	hub.BroadcastAll("todos")
	assert.Equal(t, "todos", receive(t, a1))
	assert.Equal(t, "todos", receive(t, b))

	hub.UnregisterClient(a1)
	hub.UnregisterClient(a1)
	assert.Equal(t, 2, hub.ConnectionCount())
	_, open := <-a1.Send
	assert.False(t, open)
}

func TestHub_PerUserLimit(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(9, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(9, nil)
	assert.ErrorIs(t, err, ErrUserFull)

	_, err = hub.Register(10, nil)
	assert.NoError(t, err)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(3, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	_, open := <-c.Send
	assert.False(t, open)
	assert.Zero(t, hub.ConnectionCount())

	_, err = hub.Register(3, nil)
	assert.ErrorIs(t, err, ErrHubClosed)
	require.NoError(t, hub.Shutdown(context.Background()))

	// late unregister from a read pump is harmless
	hub.UnregisterClient(c)
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(4, nil)
	require.NoError(t, err)

	for i := 0; i < sendBufferSize+3; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.Send, sendBufferSize)
}

func TestHub_StartWiringDeliversRedisEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	hub := NewHub()
	user, err := hub.Register(7, nil)
	require.NoError(t, err)
	other, err := hub.Register(8, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, n))

	msg, err := Encode(EventCommentCreated, map[string]any{"recipe_id": 1})
	require.NoError(t, err)
	require.NoError(t, n.PublishUser(ctx, 7, msg))
	assert.JSONEq(t, msg, receive(t, user))
	assertNoMessage(t, other)

	require.NoError(t, n.PublishBroadcast(ctx, `{"type":"community_recipe_published","payload":{}}`))
	assert.Contains(t, receive(t, user), EventCommunityRecipePublished)
	assert.Contains(t, receive(t, other), EventCommunityRecipePublished)
}
