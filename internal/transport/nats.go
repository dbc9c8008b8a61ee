package transport

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSConfig holds NATS room settings.
type NATSConfig struct {
	URL           string
	RoomID        string
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns the NATS room defaults.
func DefaultNATSConfig(url, roomID string) NATSConfig {
	return NATSConfig{
		URL:           url,
		RoomID:        roomID,
		ReconnectWait: 2 * time.Second,
	}
}

// NATSRoom is a Room over a NATS subject. A publish on the subject is
// delivered to every subscriber including the publisher, which matches
// the relay's fan-out-including-sender semantics exactly. NATS gives no
// enter/exit notices; presence runs purely on announce events.
type NATSRoom struct {
	nc     *nats.Conn
	sub    *nats.Subscription
	events chan Message

	subject string
}

// DialNATS joins a room hosted on a NATS server.
func DialNATS(config NATSConfig) (*NATSRoom, error) {
	r := &NATSRoom{
		events:  make(chan Message, 256),
		subject: "rooms." + config.RoomID,
	}

	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
			r.emit(Message{Kind: KindDisconnected})
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
			r.emit(Message{Kind: KindConnected, PeerID: -1})
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	r.nc = nc

	sub, err := nc.Subscribe(r.subject, func(msg *nats.Msg) {
		data := make([]byte, len(msg.Data))
		copy(data, msg.Data)
		r.emit(Message{Kind: KindFrame, Data: data})
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", r.subject, err)
	}
	r.sub = sub

	r.emit(Message{Kind: KindConnected, PeerID: -1})
	return r, nil
}

func (r *NATSRoom) Broadcast(payload []byte) {
	if err := r.nc.Publish(r.subject, payload); err != nil {
		log.Debug().Err(err).Str("subject", r.subject).Msg("dropping broadcast")
	}
}

// SendTo falls back to Broadcast: NATS rooms have no addressable peers,
// and duplicate deliveries are absorbed by event dedup anyway.
func (r *NATSRoom) SendTo(peer int, payload []byte) {
	r.Broadcast(payload)
}

func (r *NATSRoom) Events() <-chan Message {
	return r.events
}

func (r *NATSRoom) Close() error {
	if r.sub != nil {
		r.sub.Unsubscribe()
	}
	r.nc.Close()
	close(r.events)
	return nil
}

func (r *NATSRoom) emit(msg Message) {
	select {
	case r.events <- msg:
	default:
		log.Warn().Str("subject", r.subject).Msg("event buffer full, dropping inbound message")
	}
}
