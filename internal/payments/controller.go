package payments

import (
	"context"
	"io"
	"net/http"

	"eventhub/internal/bookings"
	"eventhub/internal/shared/middleware"
	"eventhub/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const signatureHeader = "X-Razorpay-Signature"

// maxWebhookBody bounds what we read from the gateway before verifying the signature
const maxWebhookBody = 1 << 20

// OrderCreator opens a payment order and the pending booking bound to it
type OrderCreator interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error)
}

// Fulfiller confirms bookings from verified payments
type Fulfiller interface {
	VerifyAndFulfill(ctx context.Context, userID uuid.UUID, req VerifyPaymentRequest) (*bookings.Booking, error)
	FulfillFromWebhook(ctx context.Context, body []byte, signature string) (*bookings.Booking, error)
}

type Controller struct {
	orders    OrderCreator
	fulfiller Fulfiller
}

func NewController(orders OrderCreator, fulfiller Fulfiller) *Controller {
	return &Controller{orders: orders, fulfiller: fulfiller}
}

// CreateOrder godoc
// @Summary      Open a payment order for tickets
// @Description  Prices the request from the event, opens a gateway order and records a pending booking
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  CreateOrderRequest  true  "Order request"
// @Success      201  {object}  response.StandardApiResponse{data=OrderResponse}
// @Failure      400  {object}  response.StandardApiResponse
// @Failure      409  {object}  response.StandardApiResponse
// @Failure      502  {object}  response.StandardApiResponse
// @Router       /payments/order [post]
func (ctrl *Controller) CreateOrder(c *gin.Context) {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	order, err := ctrl.orders.CreateOrder(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Payment order created successfully", order, nil)
}

// VerifyPayment godoc
// @Summary      Verify a payment and confirm the booking
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  VerifyPaymentRequest  true  "Gateway payment proof"
// @Success      200  {object}  response.StandardApiResponse{data=bookings.BookingResponse}
// @Failure      400  {object}  response.StandardApiResponse
// @Failure      409  {object}  response.StandardApiResponse
// @Router       /payments/verify [post]
func (ctrl *Controller) VerifyPayment(c *gin.Context) {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := ctrl.fulfiller.VerifyAndFulfill(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Payment verified and booking confirmed", booking.ToResponse(), nil)
}

// Webhook godoc
// @Summary      Gateway webhook
// @Description  Confirms bookings for payment.captured and order.paid deliveries
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        X-Razorpay-Signature  header  string  true  "HMAC-SHA256 of the body"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      400  {object}  response.StandardApiResponse
// @Router       /payments/webhook [post]
func (ctrl *Controller) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Unable to read body", nil, nil)
		return
	}

	booking, err := ctrl.fulfiller.FulfillFromWebhook(c.Request.Context(), body, c.GetHeader(signatureHeader))
	if err != nil {
		response.RespondError(c, err)
		return
	}

	if booking == nil {
		response.RespondJSON(c, "success", http.StatusOK, "Webhook acknowledged", nil, nil)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Booking confirmed", booking.ToResponse(), nil)
}
