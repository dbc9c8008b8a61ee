package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, r *LoopbackRoom, n int) []Message {
	t.Helper()
	out := make([]Message, 0, n)
	for len(out) < n {
		select {
		case msg, ok := <-r.Events():
			require.True(t, ok, "room closed early")
			out = append(out, msg)
		case <-time.After(time.Second):
			t.Fatalf("timed out after %d of %d messages", len(out), n)
		}
	}
	return out
}

func TestLoopbackAssignsSequentialIDs(t *testing.T) {
	hub := NewLoopbackHub()
	a := hub.Join()
	b := hub.Join()
	defer a.Close()
	defer b.Close()

	assert.Equal(t, 0, a.ClientID())
	assert.Equal(t, 1, b.ClientID())

	msgs := collect(t, a, 2)
	assert.Equal(t, KindConnected, msgs[0].Kind)
	assert.Equal(t, 0, msgs[0].PeerID)
	assert.Equal(t, KindPeerEnter, msgs[1].Kind)
	assert.Equal(t, 1, msgs[1].PeerID)

	msgs = collect(t, b, 1)
	assert.Equal(t, KindConnected, msgs[0].Kind)
	assert.Equal(t, 1, msgs[0].PeerID)
}

func TestLoopbackBroadcastIncludesSender(t *testing.T) {
	hub := NewLoopbackHub()
	a := hub.Join()
	b := hub.Join()
	defer a.Close()
	defer b.Close()

	collect(t, a, 2)
	collect(t, b, 1)

	a.Broadcast([]byte("hello"))

	got := collect(t, a, 1)
	assert.Equal(t, KindFrame, got[0].Kind)
	assert.Equal(t, "hello", string(got[0].Data))

	got = collect(t, b, 1)
	assert.Equal(t, "hello", string(got[0].Data))
}

func TestLoopbackSendTo(t *testing.T) {
	hub := NewLoopbackHub()
	a := hub.Join()
	b := hub.Join()
	c := hub.Join()
	defer a.Close()
	defer b.Close()
	defer c.Close()

	collect(t, a, 3)
	collect(t, b, 2)
	collect(t, c, 1)

	a.SendTo(b.ClientID(), []byte("direct"))

	got := collect(t, b, 1)
	assert.Equal(t, "direct", string(got[0].Data))

	// Neither the sender nor the third member sees it.
	select {
	case msg := <-a.Events():
		t.Fatalf("unexpected message for sender: %+v", msg)
	case msg := <-c.Events():
		t.Fatalf("unexpected message for bystander: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLoopbackCloseNotifiesPeers(t *testing.T) {
	hub := NewLoopbackHub()
	a := hub.Join()
	b := hub.Join()
	defer b.Close()

	collect(t, a, 2)
	collect(t, b, 1)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close(), "closing twice is harmless")

	got := collect(t, b, 1)
	assert.Equal(t, KindPeerExit, got[0].Kind)
	assert.Equal(t, a.ClientID(), got[0].PeerID)

	_, open := <-a.Events()
	assert.False(t, open, "a closed room's channel drains shut")

	// Sends to the departed member go nowhere.
	b.SendTo(a.ClientID(), []byte("late"))
}
