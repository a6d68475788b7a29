package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512
	sendBufferSize = 64
)

type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	UserID     string
	rooms      map[string]struct{}
	pongWait   time.Duration
	pingPeriod time.Duration
	canJoin    func(roomID string) bool
}

// controlMessage is what subscribers may send: {"type":"join_room","room_id":"..."}.
type controlMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string, rooms ...string) *Client {
	c := &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufferSize),
		UserID:     userID,
		rooms:      make(map[string]struct{}, len(rooms)),
		pongWait:   60 * time.Second,
		pingPeriod: 54 * time.Second,
	}
	for _, roomID := range rooms {
		c.rooms[roomID] = struct{}{}
	}
	return c
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).Warn("Websocket read error")
			}
			return
		}

		c.handleMessage(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
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

func (c *Client) handleMessage(message []byte) {
	var msg controlMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	switch msg.Type {
	case "join_room":
		if c.canJoin == nil || c.canJoin(msg.RoomID) {
			c.hub.JoinRoom(c, msg.RoomID)
		}
	case "leave_room":
		c.hub.LeaveRoom(c, msg.RoomID)
	}
}
