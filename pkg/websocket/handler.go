package websocket

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type HandlerConfig struct {
	ReadBufferSize   int
	WriteBufferSize  int
	HandshakeTimeout time.Duration
	PingInterval     time.Duration
	PongTimeout      time.Duration
	MaxConnections   int
	AllowedOrigins   []string
}

// RoomResolver picks the initial room for a connection from the upgrade
// request. ok=false rejects the connection with 400.
type RoomResolver func(c *gin.Context) (roomID string, ok bool)

type Handler struct {
	hub         *Hub
	upgrader    websocket.Upgrader
	config      HandlerConfig
	resolveRoom RoomResolver
	canJoin     func(roomID string) bool
}

func NewHandler(hub *Hub, config HandlerConfig, resolveRoom RoomResolver, canJoin func(roomID string) bool) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   config.ReadBufferSize,
			WriteBufferSize:  config.WriteBufferSize,
			HandshakeTimeout: config.HandshakeTimeout,
			CheckOrigin:      originChecker(config.AllowedOrigins),
		},
		config:      config,
		resolveRoom: resolveRoom,
		canJoin:     canJoin,
	}
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	roomID := RoomAll
	if h.resolveRoom != nil {
		var ok bool
		if roomID, ok = h.resolveRoom(c); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid subscription"})
			return
		}
	}

	if h.config.MaxConnections > 0 && h.hub.ClientCount() >= h.config.MaxConnections {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Too many connections"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn, c.GetString("user_id"), roomID)
	client.canJoin = h.canJoin
	if h.config.PongTimeout > 0 {
		client.pongWait = h.config.PongTimeout
	}
	if h.config.PingInterval > 0 {
		client.pingPeriod = h.config.PingInterval
	}

	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (h *Handler) GetHub() *Hub {
	return h.hub
}

func originChecker(allowed []string) func(r *http.Request) bool {
	allowAll := len(allowed) == 0
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			allowAll = true
		}
		set[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		if allowAll {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
