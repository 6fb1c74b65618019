package analytics

import (
	"eventhub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupAnalyticsRoutes(rg *gin.RouterGroup, controller Controller, jwtSecret string) {
	admin := rg.Group("/admin/analytics")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("", controller.GetDashboardAnalytics)
		admin.GET("/events/:eventId", controller.GetEventAnalytics)
	}

	rg.GET("/analytics/me", middleware.JWTAuth(jwtSecret), controller.GetPersonalAnalytics)
}
