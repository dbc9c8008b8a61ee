package transport

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// LoopbackHub is an in-process room shared by any number of loopback
// members. It reproduces the relay's semantics (unordered fan-out to
// every member including the sender, sequential client ids, enter/exit
// notices) without a network, which makes it the transport of choice
// for tests and solo play.
type LoopbackHub struct {
	mu      sync.Mutex
	members map[int]*LoopbackRoom
	nextID  int
}

// NewLoopbackHub creates an empty in-process room.
func NewLoopbackHub() *LoopbackHub {
	return &LoopbackHub{members: make(map[int]*LoopbackRoom)}
}

// Join attaches a new member and announces it to the others.
func (h *LoopbackHub) Join() *LoopbackRoom {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	r := &LoopbackRoom{
		hub:    h,
		id:     id,
		events: make(chan Message, 256),
	}
	for _, other := range h.members {
		other.emit(Message{Kind: KindPeerEnter, PeerID: id})
	}
	h.members[id] = r
	h.mu.Unlock()

	r.emit(Message{Kind: KindConnected, PeerID: id})
	return r
}

// LoopbackRoom is one member's view of a LoopbackHub.
type LoopbackRoom struct {
	hub *LoopbackHub
	id  int

	events    chan Message
	closeOnce sync.Once
}

// ClientID returns the hub-assigned member number.
func (r *LoopbackRoom) ClientID() int {
	return r.id
}

func (r *LoopbackRoom) Broadcast(payload []byte) {
	r.hub.mu.Lock()
	defer r.hub.mu.Unlock()
	for _, member := range r.hub.members {
		member.emit(Message{Kind: KindFrame, Data: payload})
	}
}

func (r *LoopbackRoom) SendTo(peer int, payload []byte) {
	r.hub.mu.Lock()
	defer r.hub.mu.Unlock()
	if member, ok := r.hub.members[peer]; ok {
		member.emit(Message{Kind: KindFrame, Data: payload})
	}
}

func (r *LoopbackRoom) Events() <-chan Message {
	return r.events
}

func (r *LoopbackRoom) Close() error {
	r.closeOnce.Do(func() {
		r.hub.mu.Lock()
		delete(r.hub.members, r.id)
		for _, other := range r.hub.members {
			other.emit(Message{Kind: KindPeerExit, PeerID: r.id})
		}
		r.hub.mu.Unlock()
		close(r.events)
	})
	return nil
}

func (r *LoopbackRoom) emit(msg Message) {
	select {
	case r.events <- msg:
	default:
		log.Warn().Int("client_id", r.id).Msg("loopback buffer full, dropping message")
	}
}
