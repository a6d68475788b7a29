package routes

import (
	"github.com/gin-gonic/gin"

	handlers "bloodconnect/internal/handlers/shared"
	"bloodconnect/internal/middleware"
)

// SetupEmergencyRoutes sets up the emergency request lifecycle
func SetupEmergencyRoutes(r *gin.RouterGroup, emergencyHandler *handlers.EmergencyHandler, jwtSecret string) {
	emergencies := r.Group("/emergency-requests")
	{
		// Status pages are shareable links
		emergencies.GET("", emergencyHandler.ListActiveEmergencyRequests)
		emergencies.GET("/:id", emergencyHandler.GetEmergencyRequest)
	}

	protected := r.Group("/emergency-requests")
	protected.Use(middleware.AuthRequired(jwtSecret))
	{
		protected.POST("", emergencyHandler.CreateEmergencyRequest)
		protected.POST("/:id/close", emergencyHandler.CloseEmergencyRequest)
	}
}
