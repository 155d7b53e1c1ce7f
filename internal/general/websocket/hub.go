package websocket

import (
	"context"
	"sync"
	"time"

	"ride-track/internal/general/logger"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 5 * time.Second

// client wraps one connection with its write lock and room memberships.
// gorilla/websocket allows at most one concurrent writer per connection.
type client struct {
	conn  *websocket.Conn
	mu    sync.Mutex
	rooms map[string]struct{}
}

func (c *client) write(msg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(msg)
}

// Hub stores active tracking connections grouped into rooms keyed by ride id
// (or booking reference when the ride id is not known yet).
type Hub struct {
	logger *logger.Logger

	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
	conns map[*websocket.Conn]*client
}

// NewHub constructs an empty Hub.
func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		logger: logger,
		rooms:  make(map[string]map[*client]struct{}),
		conns:  make(map[*websocket.Conn]*client),
	}
}

// Register adds a connection to the hub without any room membership.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; !ok {
		h.conns[conn] = &client{conn: conn, rooms: make(map[string]struct{})}
	}
}

// Join subscribes a registered connection to a room.
func (h *Hub) Join(room string, conn *websocket.Conn) {
	if room == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[conn]
	if !ok {
		c = &client{conn: conn, rooms: make(map[string]struct{})}
		h.conns[conn] = c
	}

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

// Leave unsubscribes a connection from a room. Empty rooms are dropped so
// repeated join/leave cycles cannot accumulate state.
func (h *Hub) Leave(room string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(room, conn)
}

func (h *Hub) leaveLocked(room string, conn *websocket.Conn) {
	c, ok := h.conns[conn]
	if !ok {
		return
	}
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

// DropConn removes a connection from every room and from the hub.
// Called on connection teardown; does not close the socket.
func (h *Hub) DropConn(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[conn]
	if !ok {
		return
	}
	for room := range c.rooms {
		h.leaveLocked(room, conn)
	}
	delete(h.conns, conn)
}

// Broadcast sends a JSON message to every member of a room and returns the
// number of connections written. Write failures drop the member; the read
// loop notices the dead socket and finishes teardown.
func (h *Hub) Broadcast(room string, msg any) int {
	h.mu.RLock()
	members := make([]*client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range members {
		if err := c.write(msg); err != nil {
			h.logger.Error(context.Background(), "ws_broadcast_failed", "Failed to write to room member", err,
				map[string]any{"room": room})
			h.Leave(room, c.conn)
			continue
		}
		sent++
	}
	return sent
}

// Members returns the current number of subscribers in a room.
func (h *Hub) Members(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Rooms returns the names of all non-empty rooms (for admin/debug tools).
func (h *Hub) Rooms() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.rooms))
	for room := range h.rooms {
		out = append(out, room)
	}
	return out
}
