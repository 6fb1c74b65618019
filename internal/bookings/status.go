package bookings

import (
	"fmt"

	"eventhub/internal/shared/apperrors"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

// IsValid checks if the booking status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports states that accept no further transition
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// IsCancelled is the derived flag exposed to clients
func (s Status) IsCancelled() bool {
	return s == StatusCancelled
}

// HoldsInventory reports whether a booking in this state has debited tickets
func (s Status) HoldsInventory() bool {
	return s == StatusConfirmed
}

// CanTransition returns nil if from -> to is legal. Every status must be listed in both switches.
func CanTransition(from, to Status) error {
	switch from {
	case StatusPending:
		switch to {
		case StatusConfirmed, StatusCancelled:
			return nil
		case StatusPending, StatusRefunded:
			return invalidTransition(from, to)
		}
	case StatusConfirmed:
		switch to {
		case StatusCancelled, StatusRefunded:
			return nil
		case StatusPending, StatusConfirmed:
			return invalidTransition(from, to)
		}
	case StatusCancelled:
		switch to {
		case StatusCancelled:
			return apperrors.ErrAlreadyCancelled
		case StatusPending, StatusConfirmed, StatusRefunded:
			return invalidTransition(from, to)
		}
	case StatusRefunded:
		switch to {
		case StatusCancelled:
			// a refunded booking is already off the books
			return apperrors.ErrAlreadyCancelled
		case StatusPending, StatusConfirmed, StatusRefunded:
			return invalidTransition(from, to)
		}
	}
	return fmt.Errorf("%w: unknown status %q -> %q", apperrors.ErrInvalidTransition, from, to)
}

func invalidTransition(from, to Status) error {
	return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, from, to)
}
