package bookings

import (
	"eventhub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes configures all booking-related routes.
// POST /bookings creates a reservation and lives with the payment routes.
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller, jwtSecret string) {
	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuth(jwtSecret))
	{
		bookings.GET("/mine", controller.GetMyBookings)
		bookings.GET("/:id", controller.GetBooking)
		bookings.PUT("/:id/cancel", controller.CancelBooking)
	}

	admin := rg.Group("/admin/bookings")
	admin.Use(middleware.JWTAuth(jwtSecret), middleware.RequireAdmin())
	{
		admin.PUT("/:id/refund", controller.RefundBooking)
	}
}
