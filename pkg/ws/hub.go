package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Hub manages push subscribers and broadcasts events to them, optionally
// scoped to a single team's room.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*Connection // connection_id -> connection
	teams       map[uuid.UUID][]uuid.UUID // team_id -> []connection_id
	logger      zerolog.Logger
}

// NewHub creates a new push hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]*Connection),
		teams:       make(map[uuid.UUID][]uuid.UUID),
		logger:      logger,
	}
}

// Register adds a subscriber and returns its connection id.
func (h *Hub) Register(conn *Connection) uuid.UUID {
	connID := uuid.New()

	h.mu.Lock()
	h.connections[connID] = conn
	h.mu.Unlock()

	h.logger.Info().Str("conn_id", connID.String()).Msg("subscriber registered")
	return connID
}

// Unregister removes a subscriber and detaches it from any team room.
func (h *Hub) Unregister(connID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, exists := h.connections[connID]; exists {
		conn.Close()
		delete(h.connections, connID)
		h.logger.Info().Str("conn_id", connID.String()).Msg("subscriber unregistered")
	}

	for teamID, conns := range h.teams {
		for i, id := range conns {
			if id == connID {
				h.teams[teamID] = append(conns[:i], conns[i+1:]...)
				break
			}
		}
	}
}

// JoinTeam associates a subscriber with a team room for targeted pushes.
func (h *Hub) JoinTeam(teamID, connID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.teams[teamID]
	for _, id := range conns {
		if id == connID {
			return // already joined
		}
	}
	h.teams[teamID] = append(conns, connID)
}

// Broadcast sends an event to every subscriber.
func (h *Hub) Broadcast(eventType string, payload any) error {
	msg, err := NewMessage(eventType, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	var firstErr error
	for connID, conn := range h.connections {
		if err := conn.Send(msg); err != nil && firstErr == nil {
			firstErr = err
			h.logger.Warn().Err(err).Str("conn_id", connID.String()).Msg("broadcast send failed")
		}
	}
	return firstErr
}

// BroadcastToTeam sends an event to every subscriber in a team room.
func (h *Hub) BroadcastToTeam(teamID uuid.UUID, eventType string, payload any) error {
	msg, err := NewMessage(eventType, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	conns := h.teams[teamID]
	connections := make([]*Connection, 0, len(conns))
	for _, id := range conns {
		if conn, ok := h.connections[id]; ok {
			connections = append(connections, conn)
		}
	}
	h.mu.RUnlock()

	var firstErr error
	for _, conn := range connections {
		if err := conn.Send(msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Connection represents a subscriber socket with a buffered send queue.
type Connection struct {
	conn   *websocket.Conn
	sendCh chan Message
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return &Connection{
		conn:   conn,
		sendCh: make(chan Message, 256),
		logger: logger,
	}
}

// Send queues a message for delivery. Push delivery is at-most-once: a full
// queue drops the event rather than blocking the game loop.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts down the connection.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.sendCh)
	c.conn.Close()
}

// Keepalive intervals. Subscribers are push-only and never send data frames,
// so the server must ping within the read deadline or every idle subscriber
// would time out. Vars so tests can shrink them.
var (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WritePump sends messages from the send queue and pings the peer to keep
// the read deadline alive.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Warn().Err(err).Msg("write error")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump consumes inbound frames until the peer disconnects. Subscribers
// are push-only, so inbound payloads are discarded; the loop exists to
// notice the close and keep pong handling alive.
func (c *Connection) ReadPump(onClose func()) {
	defer func() {
		c.conn.Close()
		if onClose != nil {
			onClose()
		}
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			return
		}
	}
}

var (
	ErrConnectionClosed = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull    = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
