package relay

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizroyale/quizroyale/internal/protocol"
	"github.com/quizroyale/quizroyale/internal/transport"
)

func startRelay(t *testing.T) (string, *Server) {
	t.Helper()
	srv := NewServer(DefaultConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return "ws" + strings.TrimPrefix(ts.URL, "http"), srv
}

func dial(t *testing.T, ctx context.Context, url, room string) *transport.WSRoom {
	t.Helper()
	cfg := transport.DefaultWSConfig(url, room)
	cfg.ReconnectWait = 100 * time.Millisecond
	r := transport.DialRoom(ctx, cfg)
	t.Cleanup(func() { r.Close() })
	return r
}

// nextOfKind drains the room's events until one of the wanted kind
// arrives.
func nextOfKind(t *testing.T, r transport.Room, kind transport.MessageKind) transport.Message {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case msg, ok := <-r.Events():
			require.True(t, ok, "room closed while waiting for kind %d", kind)
			if msg.Kind == kind {
				return msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for kind %d", kind)
		}
	}
}

func TestRelayAssignsSequentialClientIDs(t *testing.T) {
	url, _ := startRelay(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := dial(t, ctx, url, "r1")
	msg := nextOfKind(t, a, transport.KindConnected)
	assert.Equal(t, 0, msg.PeerID)

	b := dial(t, ctx, url, "r1")
	msg = nextOfKind(t, b, transport.KindConnected)
	assert.Equal(t, 1, msg.PeerID)

	// The subscribed first client hears about the second.
	msg = nextOfKind(t, a, transport.KindPeerEnter)
	assert.Equal(t, 1, msg.PeerID)
}

func TestRelayBroadcastReachesEveryoneIncludingSender(t *testing.T) {
	url, _ := startRelay(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := dial(t, ctx, url, "r1")
	nextOfKind(t, a, transport.KindConnected)
	b := dial(t, ctx, url, "r1")
	nextOfKind(t, b, transport.KindConnected)
	nextOfKind(t, a, transport.KindPeerEnter)

	want := protocol.NewPlayerReady("player-0", "alice")
	payload, err := protocol.MarshalEvent(want)
	require.NoError(t, err)
	a.Broadcast(payload)

	for _, r := range []transport.Room{a, b} {
		msg := nextOfKind(t, r, transport.KindFrame)
		ev, err := protocol.DecodeBroadcast(msg.Data)
		require.NoError(t, err)
		assert.Equal(t, want, ev)
	}
}

func TestRelaySendToTargetsOneClient(t *testing.T) {
	url, _ := startRelay(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := dial(t, ctx, url, "r1")
	nextOfKind(t, a, transport.KindConnected)
	b := dial(t, ctx, url, "r1")
	bID := nextOfKind(t, b, transport.KindConnected).PeerID
	nextOfKind(t, a, transport.KindPeerEnter)

	want := protocol.NewPlayerReady("player-0", "alice")
	payload, err := protocol.MarshalEvent(want)
	require.NoError(t, err)
	a.SendTo(bID, payload)

	msg := nextOfKind(t, b, transport.KindFrame)
	ev, err := protocol.DecodeBroadcast(msg.Data)
	require.NoError(t, err)
	assert.Equal(t, want, ev)

	select {
	case msg := <-a.Events():
		assert.NotEqual(t, transport.KindFrame, msg.Kind, "direct sends must not echo to the sender")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRelayIsolatesRooms(t *testing.T) {
	url, _ := startRelay(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := dial(t, ctx, url, "r1")
	nextOfKind(t, a, transport.KindConnected)
	b := dial(t, ctx, url, "r2")
	nextOfKind(t, b, transport.KindConnected)

	a.Broadcast([]byte(`{"type":"start-game","questionIndex":0}`))
	nextOfKind(t, a, transport.KindFrame)

	select {
	case msg := <-b.Events():
		assert.NotEqual(t, transport.KindFrame, msg.Kind, "rooms must not leak into each other")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRelayAnnouncesExit(t *testing.T) {
	url, _ := startRelay(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := dial(t, ctx, url, "r1")
	nextOfKind(t, a, transport.KindConnected)
	b := dial(t, ctx, url, "r1")
	bMsg := nextOfKind(t, b, transport.KindConnected)
	nextOfKind(t, a, transport.KindPeerEnter)

	b.Close()

	msg := nextOfKind(t, a, transport.KindPeerExit)
	assert.Equal(t, bMsg.PeerID, msg.PeerID)
}
