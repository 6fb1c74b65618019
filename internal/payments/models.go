package payments

type CreateOrderRequest struct {
	EventID    string `json:"eventId" binding:"required,uuid"`
	NumTickets int    `json:"numTickets"`
	// Amount is optional; when sent it must equal price x numTickets in minor units
	Amount   *int64 `json:"amount"`
	Currency string `json:"currency" binding:"omitempty,len=3"`
}

type OrderResponse struct {
	OrderID   string `json:"orderId"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	KeyID     string `json:"keyId"`
	BookingID string `json:"bookingId"`
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"orderId" binding:"required"`
	PaymentID string `json:"paymentId" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// WebhookPayload is the subset of a gateway webhook delivery used for fulfillment
type WebhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Amount  int64  `json:"amount"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

const (
	WebhookPaymentCaptured = "payment.captured"
	WebhookOrderPaid       = "order.paid"
)
