package notifications

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type BookingEventType string

const (
	BookingEventConfirmed BookingEventType = "BOOKING_CONFIRMED"
	BookingEventCancelled BookingEventType = "BOOKING_CANCELLED"
	BookingEventRefunded  BookingEventType = "BOOKING_REFUNDED"
)

// BookingEvent is the lifecycle message published on the booking topic
type BookingEvent struct {
	ID         uuid.UUID        `json:"id"`
	Type       BookingEventType `json:"type"`
	BookingID  string           `json:"booking_id"`
	UserID     string           `json:"user_id"`
	EventID    string           `json:"event_id"`
	OrderID    string           `json:"order_id"`
	NumTickets int              `json:"num_tickets"`
	TotalPrice int64            `json:"total_price"`
	Currency   string           `json:"currency"`
	OccurredAt time.Time        `json:"occurred_at"`
}

func NewBookingEvent(eventType BookingEventType) BookingEvent {
	return BookingEvent{ID: uuid.New(), Type: eventType, OccurredAt: time.Now().UTC()}
}

// PartitionKey keeps all messages of one event on one partition, in order
func (e BookingEvent) PartitionKey() string {
	return e.EventID
}

func (e BookingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Subject returns the email subject line for the message type
func (e BookingEvent) Subject(eventTitle string) string {
	switch e.Type {
	case BookingEventConfirmed:
		return "Your booking for " + eventTitle + " is confirmed"
	case BookingEventCancelled:
		return "Your booking for " + eventTitle + " was cancelled"
	case BookingEventRefunded:
		return "Your refund for " + eventTitle + " has been processed"
	}
	return "Booking update for " + eventTitle
}

// FormatAmount renders minor units as a decimal amount, e.g. 100050 INR -> "1000.50 INR"
func FormatAmount(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, minor/100, minor%100, currency)
}
