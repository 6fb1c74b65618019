package bookings

import (
	"net/http"

	"eventhub/internal/shared/middleware"
	"eventhub/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// GetMyBookings godoc
// @Summary      List the caller's bookings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        page    query  int     false  "Page"
// @Param        limit   query  int     false  "Page size"
// @Param        status  query  string  false  "pending, confirmed, cancelled or refunded"
// @Success      200  {object}  response.StandardApiResponse{data=PaginatedBookings}
// @Router       /bookings/mine [get]
func (ctrl *Controller) GetMyBookings(c *gin.Context) {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var query BookingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	result, err := ctrl.service.ListUserBookings(c.Request.Context(), actor.ID, query)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", result, nil)
}

// GetBooking godoc
// @Summary      Get a booking
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Booking ID"
// @Success      200  {object}  response.StandardApiResponse{data=BookingResponse}
// @Failure      404  {object}  response.StandardApiResponse
// @Router       /bookings/{id} [get]
func (ctrl *Controller) GetBooking(c *gin.Context) {
	ctrl.withBooking(c, func(id uuid.UUID) (*Booking, string, error) {
		actor, _ := middleware.CurrentActor(c)
		booking, err := ctrl.service.GetBooking(c.Request.Context(), id, actor)
		return booking, "Booking retrieved successfully", err
	})
}

// CancelBooking godoc
// @Summary      Cancel a booking
// @Description  Confirmed bookings return their tickets to the event
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Booking ID"
// @Success      200  {object}  response.StandardApiResponse{data=BookingResponse}
// @Failure      409  {object}  response.StandardApiResponse
// @Router       /bookings/{id}/cancel [put]
func (ctrl *Controller) CancelBooking(c *gin.Context) {
	ctrl.withBooking(c, func(id uuid.UUID) (*Booking, string, error) {
		actor, _ := middleware.CurrentActor(c)
		booking, err := ctrl.service.Cancel(c.Request.Context(), id, actor)
		return booking, "Booking cancelled successfully", err
	})
}

// RefundBooking godoc
// @Summary      Mark a confirmed booking as refunded
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Booking ID"
// @Success      200  {object}  response.StandardApiResponse{data=BookingResponse}
// @Router       /admin/bookings/{id}/refund [put]
func (ctrl *Controller) RefundBooking(c *gin.Context) {
	ctrl.withBooking(c, func(id uuid.UUID) (*Booking, string, error) {
		actor, _ := middleware.CurrentActor(c)
		booking, err := ctrl.service.MarkRefunded(c.Request.Context(), id, actor)
		return booking, "Booking refunded successfully", err
	})
}

func (ctrl *Controller) withBooking(c *gin.Context, op func(id uuid.UUID) (*Booking, string, error)) {
	if _, err := middleware.CurrentActor(c); err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, nil)
		return
	}

	booking, message, err := op(id)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, message, booking.ToResponse(), nil)
}
