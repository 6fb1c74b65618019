// Package apperrors holds the error taxonomy shared by the booking, inventory and payment flows.
package apperrors

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidQuantity       = errors.New("ticket count must be at least 1")
	ErrEventNotFound         = errors.New("event not found")
	ErrInsufficientInventory = errors.New("not enough tickets available")
	ErrAmountMismatch        = errors.New("amount does not match price")
	ErrSignatureInvalid      = errors.New("payment signature invalid")
	ErrOrderMismatch         = errors.New("payment order does not belong to caller")
	ErrAlreadyFulfilled      = errors.New("payment order already fulfilled")
	ErrAlreadyCancelled      = errors.New("booking already cancelled")
	ErrPersistenceFailure    = errors.New("persistence failure")
	ErrGatewayUnavailable    = errors.New("payment gateway unavailable")

	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidTransition = errors.New("invalid booking status transition")
	ErrForbidden         = errors.New("not allowed")
	ErrEventHasBookings  = errors.New("event has active bookings")
	ErrEventInPast       = errors.New("event date must be in the future")
	ErrCommentNotFound   = errors.New("comment not found")
	ErrUserNotFound      = errors.New("user not found")
)

type entry struct {
	err     error
	status  int
	code    string
	message string
}

var table = []entry{
	{ErrInvalidQuantity, http.StatusBadRequest, "INVALID_QUANTITY", "Number of tickets must be at least 1"},
	{ErrEventNotFound, http.StatusNotFound, "EVENT_NOT_FOUND", "Event not found"},
	{ErrInsufficientInventory, http.StatusConflict, "INSUFFICIENT_INVENTORY", "Not enough tickets available"},
	{ErrAmountMismatch, http.StatusBadRequest, "AMOUNT_MISMATCH", "Amount mismatch"},
	{ErrSignatureInvalid, http.StatusBadRequest, "SIGNATURE_INVALID", "Payment verification failed"},
	{ErrOrderMismatch, http.StatusBadRequest, "ORDER_MISMATCH", "Payment verification failed"},
	{ErrAlreadyFulfilled, http.StatusConflict, "ALREADY_FULFILLED", "Payment already processed"},
	{ErrAlreadyCancelled, http.StatusConflict, "ALREADY_CANCELLED", "Booking already cancelled"},
	{ErrBookingNotFound, http.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found"},
	{ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION", "Booking cannot change to the requested status"},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN", "Not authorized"},
	{ErrEventHasBookings, http.StatusConflict, "EVENT_HAS_BOOKINGS", "Event has active bookings"},
	{ErrEventInPast, http.StatusBadRequest, "EVENT_IN_PAST", "Event date must be in the future"},
	{ErrCommentNotFound, http.StatusNotFound, "COMMENT_NOT_FOUND", "Comment not found"},
	{ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND", "User not found"},
	{ErrGatewayUnavailable, http.StatusBadGateway, "GATEWAY_UNAVAILABLE", "Payment provider unavailable, please retry"},
	{ErrPersistenceFailure, http.StatusInternalServerError, "PERSISTENCE_FAILURE", "Internal server error"},
}

func lookup(err error) (entry, bool) {
	for _, e := range table {
		if errors.Is(err, e.err) {
			return e, true
		}
	}
	return entry{}, false
}

// HTTPStatus maps err to a response code. Unknown errors are 500.
func HTTPStatus(err error) int {
	if e, ok := lookup(err); ok {
		return e.status
	}
	return http.StatusInternalServerError
}

// Code returns a stable machine readable code for err
func Code(err error) string {
	if e, ok := lookup(err); ok {
		return e.code
	}
	return "INTERNAL"
}

// PublicMessage returns the text safe to show to a client
func PublicMessage(err error) string {
	if e, ok := lookup(err); ok {
		return e.message
	}
	return "Internal server error"
}

// IsSecurity reports whether err is a tamper or forgery signal that must be audit-logged
func IsSecurity(err error) bool {
	return errors.Is(err, ErrSignatureInvalid) ||
		errors.Is(err, ErrOrderMismatch) ||
		errors.Is(err, ErrAmountMismatch)
}
