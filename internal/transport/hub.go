package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Inbound is the server hook invoked for every envelope received from a
// client, before fan-out. Returning an error drops the envelope.
type Inbound func(env Envelope) error

// conn is one connected WebSocket peer within a session room.
type conn struct {
	ws        *websocket.Conn
	send      chan []byte
	sessionID string
	userID    string
}

// Hub maintains the set of connected clients per session and fans envelopes
// out to them.
type Hub struct {
	logger *slog.Logger

	mu    sync.RWMutex
	rooms map[string]map[*conn]bool

	inbound Inbound
	onJoin  func(sessionID, userID string)
	onLeave func(sessionID, userID string)
	relay   func(env Envelope)
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		rooms:  make(map[string]map[*conn]bool),
	}
}

// SetInbound installs the hook run on every client envelope.
func (h *Hub) SetInbound(fn Inbound) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inbound = fn
}

// SetPresenceHooks installs callbacks fired when a peer connects to or
// disconnects from a room.
func (h *Hub) SetPresenceHooks(onJoin, onLeave func(sessionID, userID string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onJoin = onJoin
	h.onLeave = onLeave
}

// SetRelay installs the cross-instance fan-out hook (see Bridge).
func (h *Hub) SetRelay(fn func(env Envelope)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.relay = fn
}

// ServeWS upgrades an HTTP request and joins the peer to its session room.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID, userID string) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &conn{
		ws:        ws,
		send:      make(chan []byte, 256),
		sessionID: sessionID,
		userID:    userID,
	}

	h.mu.Lock()
	room, ok := h.rooms[sessionID]
	if !ok {
		room = make(map[*conn]bool)
		h.rooms[sessionID] = room
	}
	room[c] = true
	h.mu.Unlock()

	h.mu.RLock()
	onJoin := h.onJoin
	h.mu.RUnlock()

	h.logger.Info("peer connected", "session", sessionID, "user", userID)
	if onJoin != nil {
		onJoin(sessionID, userID)
	}

	go c.writePump()
	go h.readPump(c)
}

// Broadcast fans an envelope out to every peer in a session room.
func (h *Hub) Broadcast(sessionID string, env Envelope) {
	h.broadcast(sessionID, env, nil)
}

// Count returns the number of peers connected to a session room on this
// instance.
func (h *Hub) Count(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

// Close disconnects every peer.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range h.rooms {
		for c := range room {
			close(c.send)
			delete(room, c)
		}
	}
	h.rooms = make(map[string]map[*conn]bool)
}

func (h *Hub) broadcast(sessionID string, env Envelope, except *conn) {
	data, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("failed to encode envelope", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[sessionID] {
		if c == except {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Slow consumer: drop the peer rather than block the room.
			close(c.send)
			delete(h.rooms[sessionID], c)
		}
	}
}

func (h *Hub) readPump(c *conn) {
	defer func() {
		h.unregister(c)
		c.ws.Close()
	}()

	for {
		var env Envelope
		if err := c.ws.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("peer read error", "session", c.sessionID, "user", c.userID, "error", err)
			}
			return
		}

		// Trust the connection, not the payload, for identity.
		env.SessionID = c.sessionID
		env.SenderID = c.userID

		h.mu.RLock()
		inbound := h.inbound
		relay := h.relay
		h.mu.RUnlock()

		if inbound != nil {
			if err := inbound(env); err != nil {
				h.logger.Warn("envelope rejected", "type", env.Type, "error", err)
				continue
			}
		}

		h.ack(c, env)
		h.broadcast(c.sessionID, env, c)
		if relay != nil {
			relay(env)
		}
	}
}

func (h *Hub) ack(c *conn, env Envelope) {
	data, err := json.Marshal(env.Ack())
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) unregister(c *conn) {
	h.mu.Lock()
	room, ok := h.rooms[c.sessionID]
	var present bool
	if ok {
		if _, present = room[c]; present {
			close(c.send)
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, c.sessionID)
			}
		}
	}
	onLeave := h.onLeave
	h.mu.Unlock()

	if present {
		h.logger.Info("peer disconnected", "session", c.sessionID, "user", c.userID)
		if onLeave != nil {
			onLeave(c.sessionID, c.userID)
		}
	}
}

func (c *conn) writePump() {
	defer c.ws.Close()
	for message := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.ws.WriteMessage(websocket.CloseMessage, []byte{})
}
