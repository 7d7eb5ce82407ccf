// Package websocket maintains the per-instance connection registry. Every
// live connection registers here, may join named rooms, and receives room
// broadcasts. Registry state is owned by a single goroutine and mutated
// only through commands, so no lock protects the maps.
package websocket

import (
	"fmt"
	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/souvik017/livefeed/internal/metrics"
)

// FeedRoom is the room every connection joins on registration. Change
// events fan out here.
const FeedRoom = "feed"

// --- Command types ---

type hubCmd interface{ hubCmd() }

type cmdRegister struct {
	conn  *websocket.Conn
	errCh chan error
}

func (cmdRegister) hubCmd() {}

type cmdUnregister struct {
	conn *websocket.Conn
}

func (cmdUnregister) hubCmd() {}

type cmdJoin struct {
	conn *websocket.Conn
	room string
}

func (cmdJoin) hubCmd() {}

type cmdSend struct {
	conn *websocket.Conn
	data []byte
}

func (cmdSend) hubCmd() {}

type cmdBroadcast struct {
	room string
	data []byte
}

func (cmdBroadcast) hubCmd() {}

type cmdClientCount struct {
	replyCh chan int
}

func (cmdClientCount) hubCmd() {}

type cmdRoomCount struct {
	room    string
	replyCh chan int
}

func (cmdRoomCount) hubCmd() {}

type cmdStop struct{}

func (cmdStop) hubCmd() {}

// --- Hub ---

type client struct {
	writer *clientWriter
	rooms  map[string]struct{}
}

type Hub struct {
	cmdCh      chan hubCmd
	clients    map[*websocket.Conn]*client
	rooms      map[string]map[*websocket.Conn]struct{}
	maxClients int
	clock      clockwork.Clock
}

func NewHub(maxClients int, clock clockwork.Clock) *Hub {
	hub := &Hub{
		cmdCh:      make(chan hubCmd, 256),
		clients:    make(map[*websocket.Conn]*client),
		rooms:      make(map[string]map[*websocket.Conn]struct{}),
		maxClients: maxClients,
		clock:      clock,
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case cmdRegister:
			h.handleRegister(c)
		case cmdUnregister:
			h.handleUnregister(c.conn)
		case cmdJoin:
			h.handleJoin(c)
		case cmdSend:
			h.handleSend(c)
		case cmdBroadcast:
			h.handleBroadcast(c)
		case cmdClientCount:
			c.replyCh <- len(h.clients)
		case cmdRoomCount:
			c.replyCh <- len(h.rooms[c.room])
		case cmdStop:
			h.handleStop()
			return
		}
	}
}

func (h *Hub) handleRegister(c cmdRegister) {
	if len(h.clients) >= h.maxClients {
		slog.Warn("Rejecting client: connection limit reached", "limit", h.maxClients)
		c.conn.Close()
		c.errCh <- fmt.Errorf("connection limit (%d) reached", h.maxClients)
		return
	}

	cl := &client{
		writer: newClientWriter(c.conn, h.clock),
		rooms:  make(map[string]struct{}),
	}
	h.clients[c.conn] = cl
	h.joinRoom(c.conn, cl, FeedRoom)

	metrics.ConnectedClients.Inc()
	slog.Debug("Client registered", "total_clients", len(h.clients))
	c.errCh <- nil
}

func (h *Hub) handleUnregister(conn *websocket.Conn) {
	cl, exists := h.clients[conn]
	if !exists {
		return
	}

	for room := range cl.rooms {
		delete(h.rooms[room], conn)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}

	cl.writer.stop()
	delete(h.clients, conn)

	metrics.ConnectedClients.Dec()
	slog.Debug("Client unregistered", "total_clients", len(h.clients))
}

func (h *Hub) handleJoin(c cmdJoin) {
	cl, exists := h.clients[c.conn]
	if !exists {
		return
	}
	h.joinRoom(c.conn, cl, c.room)
}

func (h *Hub) joinRoom(conn *websocket.Conn, cl *client, room string) {
	if _, member := cl.rooms[room]; member {
		return
	}
	cl.rooms[room] = struct{}{}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*websocket.Conn]struct{})
	}
	h.rooms[room][conn] = struct{}{}
}

func (h *Hub) handleSend(c cmdSend) {
	cl, exists := h.clients[c.conn]
	if !exists {
		return
	}

	select {
	case cl.writer.sendChannel <- c.data:
	default:
		slog.Warn("Disconnecting slow client")
		metrics.SlowClientsEvicted.Inc()
		h.handleUnregister(c.conn)
	}
}

func (h *Hub) handleBroadcast(c cmdBroadcast) {
	members, exists := h.rooms[c.room]
	if !exists {
		return
	}

	var slow []*websocket.Conn
	for conn := range members {
		cl := h.clients[conn]
		select {
		case cl.writer.sendChannel <- c.data:
			metrics.BroadcastsDelivered.Inc()
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		slog.Warn("Disconnecting slow client", "room", c.room)
		metrics.SlowClientsEvicted.Inc()
		h.handleUnregister(conn)
	}
}

func (h *Hub) handleStop() {
	for conn, cl := range h.clients {
		cl.writer.stop()
		delete(h.clients, conn)
		metrics.ConnectedClients.Dec()
	}
	for room := range h.rooms {
		delete(h.rooms, room)
	}
}

// --- Public API ---

// Register adds a connection to the registry and joins it to the feed
// room. It returns an error when the connection limit is reached, in
// which case the connection has already been closed.
func (h *Hub) Register(conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- cmdRegister{conn: conn, errCh: errCh}
	return <-errCh
}

// Unregister removes a connection. It is idempotent: duplicate calls and
// calls for unknown connections are no-ops.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.cmdCh <- cmdUnregister{conn: conn}
}

// Join adds a registered connection to a named room.
func (h *Hub) Join(conn *websocket.Conn, room string) {
	h.cmdCh <- cmdJoin{conn: conn, room: room}
}

// Send enqueues a message for a single connection.
func (h *Hub) Send(conn *websocket.Conn, data []byte) {
	h.cmdCh <- cmdSend{conn: conn, data: data}
}

// Broadcast enqueues a message for every member of a room. Clients whose
// send buffer is full are evicted rather than allowed to stall the rest.
func (h *Hub) Broadcast(room string, data []byte) {
	h.cmdCh <- cmdBroadcast{room: room, data: data}
}

func (h *Hub) ClientCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- cmdClientCount{replyCh: replyCh}
	return <-replyCh
}

func (h *Hub) RoomCount(room string) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- cmdRoomCount{room: room, replyCh: replyCh}
	return <-replyCh
}

func (h *Hub) Stop() {
	h.cmdCh <- cmdStop{}
}
