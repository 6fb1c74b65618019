package events

import (
	"eventhub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupEventRoutes(router *gin.RouterGroup, controller Controller, jwtSecret string) {
	// Public routes - anyone can browse
	publicEvents := router.Group("/events")
	{
		publicEvents.GET("", controller.GetAllEvents)
		publicEvents.GET("/upcoming", controller.GetUpcomingEvents)
		publicEvents.GET("/recommendations", middleware.JWTAuth(jwtSecret), controller.GetRecommendations)
		publicEvents.GET("/:eventId", controller.GetEvent)
	}

	adminEvents := router.Group("/admin/events")
	adminEvents.Use(middleware.JWTAuth(jwtSecret), middleware.RequireAdmin())
	{
		adminEvents.POST("", controller.CreateEvent)
		adminEvents.PUT("/:eventId", controller.UpdateEvent)
		adminEvents.DELETE("/:eventId", controller.DeleteEvent)

		// stock only moves through the ledger
		adminEvents.POST("/:eventId/tickets", controller.RestockEvent)
		adminEvents.GET("/:eventId/movements", controller.GetMovements)
	}
}
