package routes

import (
	"github.com/gin-gonic/gin"

	handlers "bloodconnect/internal/handlers/shared"
	"bloodconnect/internal/middleware"
)

// SetupDonorRoutes sets up donor search. Search is public; a valid token
// only adds the caller to the request logs.
func SetupDonorRoutes(r *gin.RouterGroup, donorHandler *handlers.DonorHandler, jwtSecret string) {
	donors := r.Group("/donors")
	donors.Use(middleware.OptionalAuth(jwtSecret))
	{
		donors.POST("/search", donorHandler.SearchDonors)
	}
}
