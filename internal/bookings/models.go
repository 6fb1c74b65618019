package bookings

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Booking is created pending when a payment order is opened and doubles as the payment intent:
// the pending -> confirmed transition consumes it exactly once.
type Booking struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	EventID        uuid.UUID  `gorm:"type:uuid;index;not null" json:"event_id"`
	NumTickets     int        `gorm:"not null;check:num_tickets >= 1" json:"num_tickets"`
	TotalPrice     int64      `gorm:"not null;check:total_price >= 0" json:"total_price"`
	Currency       string     `gorm:"size:3;not null" json:"currency"`
	Status         Status     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentOrderID string     `gorm:"size:100;not null;uniqueIndex" json:"payment_order_id"`
	PaymentID      string     `gorm:"size:100;index" json:"payment_id,omitempty"`
	Receipt        string     `gorm:"size:100" json:"receipt"`
	ClaimToken     string     `gorm:"size:64;index" json:"-"`
	ClaimedAt      *time.Time `json:"-"`
	FulfillmentRef string     `gorm:"size:100" json:"-"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	RefundedAt     *time.Time `json:"refunded_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// AttemptReference is the ledger reference of one fulfillment attempt of an order
func AttemptReference(orderID, claimToken string) string {
	return orderID + "#" + claimToken
}

// LedgerReference is the reference holding this booking's tickets in the inventory journal
func (b *Booking) LedgerReference() string {
	if b.FulfillmentRef != "" {
		return b.FulfillmentRef
	}
	return b.PaymentOrderID
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

type BookingResponse struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	EventID        string     `json:"event_id"`
	NumTickets     int        `json:"num_tickets"`
	TotalPrice     int64      `json:"total_price"`
	Currency       string     `json:"currency"`
	Status         Status     `json:"status"`
	IsCancelled    bool       `json:"is_cancelled"`
	PaymentOrderID string     `json:"payment_order_id"`
	PaymentID      string     `json:"payment_id,omitempty"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	RefundedAt     *time.Time `json:"refunded_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (b *Booking) ToResponse() BookingResponse {
	return BookingResponse{
		ID:             b.ID.String(),
		UserID:         b.UserID.String(),
		EventID:        b.EventID.String(),
		NumTickets:     b.NumTickets,
		TotalPrice:     b.TotalPrice,
		Currency:       b.Currency,
		Status:         b.Status,
		IsCancelled:    b.Status.IsCancelled(),
		PaymentOrderID: b.PaymentOrderID,
		PaymentID:      b.PaymentID,
		ConfirmedAt:    b.ConfirmedAt,
		CancelledAt:    b.CancelledAt,
		RefundedAt:     b.RefundedAt,
		CreatedAt:      b.CreatedAt,
	}
}

type BookingListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=pending confirmed cancelled refunded"`
	EventID  string `form:"event_id" binding:"omitempty,uuid"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
}

type PaginatedBookings struct {
	Bookings   []BookingResponse `json:"bookings"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}
