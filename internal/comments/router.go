package comments

import (
	"eventhub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupCommentRoutes(rg *gin.RouterGroup, controller *Controller, jwtSecret string) {
	comments := rg.Group("/comments")
	{
		comments.GET("/:eventId", controller.ListComments)
		comments.POST("", middleware.JWTAuth(jwtSecret), controller.AddComment)
		comments.DELETE("/:id", middleware.JWTAuth(jwtSecret), controller.DeleteComment)
	}
}
