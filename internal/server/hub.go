package server

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Client is one websocket connection watching a game. Player is the seat it acts
// for, or spectator.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	gameID string
	player int
}

type gameMessage struct {
	gameID  string
	payload []byte
}

type clientMessage struct {
	client  *Client
	payload []byte
}

// Hub tracks the open sockets of every game and fans messages out to them.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	logger *zap.Logger

	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan gameMessage
	direct     chan clientMessage
	done       chan struct{}
}

// NewHub creates a hub. Call Run before registering clients.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:     logger,
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan gameMessage),
		direct:     make(chan clientMessage),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.clients {
				for c := range clients {
					close(c.send)
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			return

		case c := <-h.register:
			if h.clients[c.gameID] == nil {
				h.clients[c.gameID] = make(map[*Client]bool)
			}
			h.clients[c.gameID][c] = true
			h.logger.Debug("client registered",
				zap.String("game_id", c.gameID),
				zap.Int("player", c.player),
			)

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.broadcast:
			for c := range h.clients[msg.gameID] {
				h.deliver(c, msg.payload)
			}

		case msg := <-h.direct:
			if h.clients[msg.client.gameID][msg.client] {
				h.deliver(msg.client, msg.payload)
			}
		}
	}
}

func (h *Hub) deliver(c *Client, payload []byte) {
	select {
	case c.send <- payload:
	default:
		h.logger.Warn("dropping slow client",
			zap.String("game_id", c.gameID),
			zap.Int("player", c.player),
		)
		h.remove(c)
	}
}

func (h *Hub) remove(c *Client) {
	clients, ok := h.clients[c.gameID]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.clients, c.gameID)
	}
	h.logger.Debug("client unregistered",
		zap.String("game_id", c.gameID),
		zap.Int("player", c.player),
	)
}

// Register adds c to its game. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes c and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast sends payload to every client of gameID.
func (h *Hub) Broadcast(gameID string, payload []byte) {
	select {
	case h.broadcast <- gameMessage{gameID: gameID, payload: payload}:
	case <-h.done:
	}
}

// Send delivers payload to c alone.
func (h *Hub) Send(c *Client, payload []byte) {
	select {
	case h.direct <- clientMessage{client: c, payload: payload}:
	case <-h.done:
	}
}

func (c *Client) readPump(s *Server) {
	defer func() {
		s.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(s.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read failed", zap.String("game_id", c.gameID), zap.Error(err))
			}
			return
		}
		s.handleMessage(c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
