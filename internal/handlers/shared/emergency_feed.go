package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"bloodconnect/internal/models"
	"bloodconnect/internal/services"
	"bloodconnect/pkg/websocket"
)

// ResolveFeedRoom maps ?bloodType= to a feed room. No value or "any"
// subscribes to every request.
func ResolveFeedRoom(c *gin.Context) (string, bool) {
	// An unescaped "+" in a query string decodes to a space.
	raw := strings.Replace(strings.TrimLeft(c.Query("bloodType"), " "), " ", "+", 1)
	if raw == "" {
		return websocket.RoomAll, true
	}

	bloodType := models.ParseBloodType(raw)
	if !bloodType.IsValidCriterion() {
		return "", false
	}
	if bloodType == models.BloodTypeAny {
		return websocket.RoomAll, true
	}
	return services.BloodTypeRoom(bloodType), true
}

// CanJoinFeedRoom limits join_room messages to real feed rooms.
func CanJoinFeedRoom(roomID string) bool {
	if roomID == websocket.RoomAll {
		return true
	}
	for _, bt := range models.AllBloodTypes() {
		if roomID == services.BloodTypeRoom(bt) {
			return true
		}
	}
	return false
}
