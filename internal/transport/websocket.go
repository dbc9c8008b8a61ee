package transport

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/quizroyale/quizroyale/internal/protocol"
)

// WSConfig holds websocket room settings.
type WSConfig struct {
	URL    string
	RoomID string
	// ReconnectWait is the fixed delay between redial attempts. The
	// adapter retries forever; transport loss is never fatal.
	ReconnectWait time.Duration
	// KeepAliveInterval paces the empty keep-alive frames that stop the
	// relay from idle-closing the connection.
	KeepAliveInterval time.Duration
	WriteTimeout      time.Duration
	Clock             clockwork.Clock
}

// DefaultWSConfig returns the websocket room defaults.
func DefaultWSConfig(url, roomID string) WSConfig {
	return WSConfig{
		URL:               url,
		RoomID:            roomID,
		ReconnectWait:     2 * time.Second,
		KeepAliveInterval: 30 * time.Second,
		WriteTimeout:      10 * time.Second,
		Clock:             clockwork.NewRealClock(),
	}
}

// WSRoom is a Room over a websocket relay speaking the room protocol:
// it enters the room, subscribes to enter/exit notices and hands every
// other frame to the consumer.
type WSRoom struct {
	config WSConfig

	events chan Message
	out    chan []byte

	done      chan struct{}
	closeOnce sync.Once

	mu   sync.Mutex
	conn *websocket.Conn
}

// DialRoom joins a room on the relay. The returned room is usable
// immediately; frames queued before the connection is up are dropped,
// matching the fire-and-forget send contract.
func DialRoom(ctx context.Context, config WSConfig) *WSRoom {
	r := &WSRoom{
		config: config,
		events: make(chan Message, 256),
		out:    make(chan []byte, 64),
		done:   make(chan struct{}),
	}
	go r.run(ctx)
	return r
}

func (r *WSRoom) Broadcast(payload []byte) {
	frame, err := protocol.EncodeEnvelope(protocol.SelBroadcast, string(payload))
	if err != nil {
		log.Error().Err(err).Msg("encode broadcast frame")
		return
	}
	r.enqueue(frame)
}

func (r *WSRoom) SendTo(peer int, payload []byte) {
	frame, err := protocol.EncodeEnvelope(protocol.SelSendMessage, peer, string(payload))
	if err != nil {
		log.Error().Err(err).Msg("encode send-message frame")
		return
	}
	r.enqueue(frame)
}

func (r *WSRoom) Events() <-chan Message {
	return r.events
}

func (r *WSRoom) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.mu.Lock()
		if r.conn != nil {
			r.conn.Close()
		}
		r.mu.Unlock()
	})
	return nil
}

func (r *WSRoom) enqueue(frame []byte) {
	select {
	case r.out <- frame:
	default:
		log.Debug().Str("room", r.config.RoomID).Msg("send queue full, dropping frame")
	}
}

// run dials, serves one connection until it drops, then redials after a
// fixed wait. It exits only on Close or context cancellation.
func (r *WSRoom) run(ctx context.Context) {
	defer close(r.events)

	for {
		select {
		case <-r.done:
			return
		case <-ctx.Done():
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.config.URL, nil)
		if err != nil {
			log.Warn().Err(err).Str("url", r.config.URL).Msg("relay dial failed, retrying")
			if !r.sleep(ctx) {
				return
			}
			continue
		}

		r.mu.Lock()
		r.conn = conn
		r.mu.Unlock()

		if err := r.enterRoom(conn); err != nil {
			log.Warn().Err(err).Msg("enter room failed, retrying")
			conn.Close()
			if !r.sleep(ctx) {
				return
			}
			continue
		}

		r.serve(ctx, conn)

		r.mu.Lock()
		r.conn = nil
		r.mu.Unlock()

		r.emit(Message{Kind: KindDisconnected})
		log.Warn().Str("room", r.config.RoomID).Msg("relay connection lost, reconnecting")

		if !r.sleep(ctx) {
			return
		}
	}
}

func (r *WSRoom) enterRoom(conn *websocket.Conn) error {
	enter, err := protocol.EncodeEnvelope(protocol.SelEnterRoom, r.config.RoomID)
	if err != nil {
		return err
	}
	subscribe, err := protocol.EncodeEnvelope(protocol.SelSubscribeEnterExit)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(r.config.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, enter); err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(r.config.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, subscribe)
}

// serve pumps one live connection: a writer drains the send queue and
// paces keep-alives, the read loop sorts frames into control notices and
// payload deliveries. Returns when the connection dies.
func (r *WSRoom) serve(ctx context.Context, conn *websocket.Conn) {
	writerDone := make(chan struct{})
	stopWriter := make(chan struct{})
	go func() {
		defer close(writerDone)
		keepAlive := r.config.Clock.NewTicker(r.config.KeepAliveInterval)
		defer keepAlive.Stop()
		for {
			select {
			case frame := <-r.out:
				conn.SetWriteDeadline(time.Now().Add(r.config.WriteTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
					log.Debug().Err(err).Msg("relay write failed")
					return
				}
			case <-keepAlive.Chan():
				conn.SetWriteDeadline(time.Now().Add(r.config.WriteTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, []byte{}); err != nil {
					return
				}
			case <-stopWriter:
				return
			case <-r.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	defer func() {
		close(stopWriter)
		conn.Close()
		<-writerDone
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if len(data) == 0 {
			// Keep-alive echo.
			continue
		}
		r.dispatch(data)
	}
}

// dispatch routes one inbound frame. Control selectors become transport
// messages; everything else is a payload frame for the codec upstairs.
func (r *WSRoom) dispatch(data []byte) {
	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		log.Debug().Err(err).Msg("dropping undecodable relay frame")
		return
	}

	switch env.Selector() {
	case protocol.SelClientID:
		id, err := env.IntArg(0)
		if err != nil {
			log.Debug().Err(err).Msg("bad client-id frame")
			return
		}
		log.Info().Int("client_id", id).Str("room", r.config.RoomID).Msg("joined room")
		r.emit(Message{Kind: KindConnected, PeerID: id})
	case protocol.SelClientEnter:
		id, err := env.IntArg(0)
		if err != nil {
			return
		}
		r.emit(Message{Kind: KindPeerEnter, PeerID: id})
	case protocol.SelClientExit:
		id, err := env.IntArg(0)
		if err != nil {
			return
		}
		r.emit(Message{Kind: KindPeerExit, PeerID: id})
	case protocol.SelPing:
		// Ignored.
	default:
		r.emit(Message{Kind: KindFrame, Data: data})
	}
}

func (r *WSRoom) emit(msg Message) {
	select {
	case r.events <- msg:
	default:
		log.Warn().Str("room", r.config.RoomID).Msg("event buffer full, dropping inbound message")
	}
}

func (r *WSRoom) sleep(ctx context.Context) bool {
	select {
	case <-r.config.Clock.After(r.config.ReconnectWait):
		return true
	case <-r.done:
		return false
	case <-ctx.Done():
		return false
	}
}
