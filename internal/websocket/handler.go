package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Envelope is the wire frame in both directions: an event name plus an
// event-specific payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

const (
	eventJoin       = "join"
	eventClientPing = "client:ping"
	eventServerPong = "server:pong"
)

type joinPayload struct {
	Room string `json:"room"`
}

type pongPayload struct {
	Time    int64           `json:"time"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Handler upgrades HTTP requests to websocket connections and runs their
// read loops. Writes always go through the hub.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, allowedOrigin string) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

func (h *Handler) ServeWS(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return nil
	}

	if err := h.hub.Register(conn); err != nil {
		return nil
	}
	defer h.hub.Unregister(conn)

	h.readLoop(conn)
	return nil
}

func (h *Handler) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("Websocket read failed", "error", err)
			}
			return
		}

		var envelope Envelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			slog.Debug("Ignoring malformed websocket frame", "error", err)
			continue
		}

		switch envelope.Event {
		case eventJoin:
			var payload joinPayload
			if err := json.Unmarshal(envelope.Data, &payload); err != nil || payload.Room == "" {
				continue
			}
			h.hub.Join(conn, payload.Room)
		case eventClientPing:
			h.sendPong(conn, envelope.Data)
		default:
			// Unknown events are dropped, not errors: old clients may
			// speak newer dialects.
		}
	}
}

func (h *Handler) sendPong(conn *websocket.Conn, payload json.RawMessage) {
	pong := Envelope{Event: eventServerPong}
	data, err := json.Marshal(pongPayload{
		Time:    h.hub.clock.Now().UnixMilli(),
		Payload: payload,
	})
	if err != nil {
		return
	}
	pong.Data = data

	frame, err := json.Marshal(pong)
	if err != nil {
		return
	}
	h.hub.Send(conn, frame)
}
