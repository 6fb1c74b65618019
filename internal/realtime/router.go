package realtime

import "github.com/gin-gonic/gin"

func SetupRealtimeRoutes(rg *gin.RouterGroup, controller *Controller) {
	rg.GET("/events/:eventId/stream", controller.Stream)
}
