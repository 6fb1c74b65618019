package payments

import (
	"eventhub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPaymentRoutes configures the order, verify and webhook endpoints.
// The webhook is authenticated by its signature, not a bearer token.
func SetupPaymentRoutes(rg *gin.RouterGroup, controller *Controller, jwtSecret string) {
	payments := rg.Group("/payments")
	{
		payments.POST("/webhook", controller.Webhook)

		authed := payments.Group("")
		authed.Use(middleware.JWTAuth(jwtSecret))
		authed.POST("/order", controller.CreateOrder)
		authed.POST("/verify", controller.VerifyPayment)
	}

	rg.POST("/bookings", middleware.JWTAuth(jwtSecret), controller.CreateOrder)
}
