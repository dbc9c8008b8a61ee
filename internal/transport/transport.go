// Package transport carries raw frames between a client and its room.
// It owns connect/reconnect, keep-alive and presence signals, and no
// game semantics: payloads pass through opaque in both directions.
package transport

// MessageKind tags an inbound transport message.
type MessageKind int

const (
	// KindFrame is a room payload frame, delivered for every broadcast
	// in the room including the client's own.
	KindFrame MessageKind = iota
	// KindConnected reports a (re)established room membership. PeerID
	// carries the relay-assigned client number, or -1 when the backend
	// does not assign one.
	KindConnected
	// KindDisconnected reports a lost connection. The adapter keeps
	// retrying on its own; this only drives the UI indicator.
	KindDisconnected
	// KindPeerEnter and KindPeerExit report other clients joining or
	// leaving the room, for backends that signal presence.
	KindPeerEnter
	KindPeerExit
)

// Message is one inbound transport message.
type Message struct {
	Kind   MessageKind
	Data   []byte
	PeerID int
}

// Room is a joined broadcast scope. Sends are fire-and-forget: while
// the connection is down they are dropped silently, never surfaced.
type Room interface {
	// Broadcast fans the payload out to every room member, the sender
	// included.
	Broadcast(payload []byte)
	// SendTo delivers the payload to a single relay client. Backends
	// without addressable peers fall back to Broadcast.
	SendTo(peer int, payload []byte)
	// Events delivers inbound messages until the room is closed.
	Events() <-chan Message
	Close() error
}
