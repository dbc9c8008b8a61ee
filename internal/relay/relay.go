// Package relay is a development fan-out relay speaking the room
// protocol the transport adapter dials. It keeps no game state and no
// session memory: rooms are just fan-out scopes, clients are numbered
// in connection order, and every broadcast goes to every room member
// including the sender.
package relay

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/quizroyale/quizroyale/internal/protocol"
)

// Config holds relay server settings.
type Config struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	AllowedOrigins  []string
}

// DefaultConfig returns the relay defaults.
func DefaultConfig() Config {
	return Config{
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  8192,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		AllowedOrigins:  []string{"*"},
	}
}

// Server hosts any number of rooms over a single websocket endpoint.
type Server struct {
	config   Config
	upgrader websocket.Upgrader

	mu    sync.Mutex
	rooms map[string]*room
}

// NewServer creates an empty relay.
func NewServer(config Config) *Server {
	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		rooms: make(map[string]*room),
	}
}

// Handler returns the CORS-wrapped websocket endpoint.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet},
	})
	return c.Handler(http.HandlerFunc(s.serveWS))
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{
		server: s,
		conn:   conn,
		send:   make(chan []byte, 64),
	}

	go c.writePump()
	c.readPump()
}

// Close drops every connection in every room.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rm := range s.rooms {
		rm.mu.Lock()
		for _, c := range rm.clients {
			c.conn.Close()
		}
		rm.mu.Unlock()
	}
	s.rooms = make(map[string]*room)
}

func (s *Server) room(name string) *room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rm, ok := s.rooms[name]; ok {
		return rm
	}
	rm := &room{
		name:    name,
		clients: make(map[int]*client),
	}
	s.rooms[name] = rm
	return rm
}

// room is one fan-out scope. Clients get sequential numbers in join
// order; the numbers are the only identity the relay knows about.
type room struct {
	name string

	mu      sync.Mutex
	clients map[int]*client
	nextID  int
}

func (rm *room) join(c *client) int {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	id := rm.nextID
	rm.nextID++
	rm.clients[id] = c

	for otherID, other := range rm.clients {
		if otherID == id || !other.subscribed {
			continue
		}
		other.sendFrame(mustFrame(protocol.SelClientEnter, id))
	}
	return id
}

func (rm *room) leave(id int) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if _, ok := rm.clients[id]; !ok {
		return
	}
	delete(rm.clients, id)

	for _, other := range rm.clients {
		if other.subscribed {
			other.sendFrame(mustFrame(protocol.SelClientExit, id))
		}
	}
}

// deliver fans a payload array out to every member, sender included.
func (rm *room) deliver(payload []json.RawMessage) {
	frame, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("marshal delivery frame")
		return
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	for _, c := range rm.clients {
		c.sendFrame(frame)
	}
}

// deliverTo hands a payload array to a single member.
func (rm *room) deliverTo(id int, payload []json.RawMessage) {
	frame, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("marshal delivery frame")
		return
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if c, ok := rm.clients[id]; ok {
		c.sendFrame(frame)
	}
}

type client struct {
	server *Server
	conn   *websocket.Conn
	send   chan []byte

	room       *room
	id         int
	subscribed bool
}

func (c *client) sendFrame(frame []byte) {
	select {
	case c.send <- frame:
	default:
		log.Warn().Int("client_id", c.id).Msg("client send buffer full, dropping frame")
	}
}

func (c *client) readPump() {
	defer func() {
		if c.room != nil {
			c.room.leave(c.id)
			log.Info().Int("client_id", c.id).Str("room", c.room.name).Msg("client left")
		}
		close(c.send)
		c.conn.Close()
	}()

	cfg := c.server.config
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Int("client_id", c.id).Msg("unexpected close")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))

		if len(data) == 0 {
			// Keep-alive.
			continue
		}
		c.handleFrame(data)
	}
}

func (c *client) handleFrame(data []byte) {
	env, err := protocol.DecodeEnvelope(data)
	if err != nil {
		log.Debug().Err(err).Msg("dropping undecodable frame")
		return
	}

	switch env.Selector() {
	case protocol.SelEnterRoom:
		if c.room != nil {
			return
		}
		name, err := env.StringArg(0)
		if err != nil {
			return
		}
		c.room = c.server.room(name)
		c.id = c.room.join(c)
		c.sendFrame(mustFrame(protocol.SelClientID, c.id))
		log.Info().Int("client_id", c.id).Str("room", name).Msg("client entered room")

	case protocol.SelSubscribeEnterExit:
		c.subscribed = true

	case protocol.SelBroadcast:
		if c.room != nil {
			c.room.deliver(env.Args())
		}

	case protocol.SelSendMessage:
		if c.room == nil {
			return
		}
		target, err := env.IntArg(0)
		if err != nil {
			return
		}
		c.room.deliverTo(target, env.Args()[1:])

	case protocol.SelPing:
		// Keep-alive.

	default:
		log.Debug().Str("selector", env.Selector()).Msg("ignoring unknown selector")
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.server.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.server.config.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.server.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func mustFrame(selector string, args ...any) []byte {
	frame, err := protocol.EncodeEnvelope(selector, args...)
	if err != nil {
		// Only reachable with unmarshalable args, which the relay
		// never passes.
		panic(err)
	}
	return frame
}
