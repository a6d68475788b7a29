package routes

import (
	"github.com/gin-gonic/gin"

	"bloodconnect/internal/middleware"
	"bloodconnect/pkg/websocket"
)

// SetupWebSocketRoutes mounts the live emergency feed at path
func SetupWebSocketRoutes(r gin.IRoutes, path string, wsHandler *websocket.Handler, jwtSecret string) {
	r.GET(path, middleware.OptionalAuth(jwtSecret), wsHandler.HandleWebSocket)
}
