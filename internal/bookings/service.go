package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventhub/internal/inventory"
	"eventhub/internal/notifications"
	"eventhub/internal/realtime"
	"eventhub/internal/shared/apperrors"
	"eventhub/internal/users"
	"eventhub/pkg/logger"

	"github.com/google/uuid"
)

// Compensator gives tickets held by a payment order back to the event
type Compensator interface {
	Compensate(ctx context.Context, eventID uuid.UUID, quantity int, reference string, reason inventory.Reason) error
}

type StockReader interface {
	Available(ctx context.Context, eventID uuid.UUID) (int, error)
}

type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, event notifications.BookingEvent) error
}

// Service interface defines the contract for booking business logic
type Service interface {
	GetBooking(ctx context.Context, bookingID uuid.UUID, actor users.Actor) (*Booking, error)
	ListUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) (*PaginatedBookings, error)
	Cancel(ctx context.Context, bookingID uuid.UUID, actor users.Actor) (*Booking, error)
	MarkRefunded(ctx context.Context, bookingID uuid.UUID, actor users.Actor) (*Booking, error)
	ExpirePending(ctx context.Context, olderThan time.Time, limit int) (int, error)
}

type service struct {
	repo        Repository
	compensator Compensator
	stock       StockReader
	notifier    realtime.Notifier
	events      EventPublisher
	log         *logger.Logger
}

func NewService(repo Repository, compensator Compensator, stock StockReader, notifier realtime.Notifier, events EventPublisher, log *logger.Logger) Service {
	return &service{
		repo:        repo,
		compensator: compensator,
		stock:       stock,
		notifier:    notifier,
		events:      events,
		log:         log.WithComponent("bookings"),
	}
}

func (s *service) GetBooking(ctx context.Context, bookingID uuid.UUID, actor users.Actor) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && booking.UserID != actor.ID {
		// do not reveal other users' bookings
		return nil, apperrors.ErrBookingNotFound
	}
	return booking, nil
}

func (s *service) ListUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) (*PaginatedBookings, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	bookings, total, err := s.repo.ListByUser(ctx, userID, query)
	if err != nil {
		return nil, err
	}

	responses := make([]BookingResponse, len(bookings))
	for i := range bookings {
		responses[i] = bookings[i].ToResponse()
	}

	return &PaginatedBookings{
		Bookings:   responses,
		TotalCount: total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: CalculateTotalPages(total, query.Limit),
	}, nil
}

// Cancel moves a pending or confirmed booking to cancelled. A confirmed booking gives its
// tickets back; a pending one never debited anything.
func (s *service) Cancel(ctx context.Context, bookingID uuid.UUID, actor users.Actor) (*Booking, error) {
	booking, err := s.GetBooking(ctx, bookingID, actor)
	if err != nil {
		return nil, err
	}

	from := booking.Status
	if err := CanTransition(from, StatusCancelled); err != nil {
		return nil, err
	}
	if from == StatusPending && booking.ClaimToken != "" {
		// payment is being fulfilled right now
		return nil, fmt.Errorf("%w: booking is being confirmed", apperrors.ErrInvalidTransition)
	}

	now := time.Now().UTC()
	ok, err := s.transition(ctx, booking, from, StatusCancelled, map[string]interface{}{"cancelled_at": now})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.lostRace(ctx, bookingID, StatusCancelled)
	}
	booking.Status = StatusCancelled
	booking.CancelledAt = &now

	s.log.LogBookingCancelled(ctx, booking.ID.String(), booking.EventID.String(), actor.ID.String())

	if from.HoldsInventory() {
		s.release(ctx, booking, inventory.ReasonCancellation)
		s.publish(ctx, booking, notifications.BookingEventCancelled)
	}
	return booking, nil
}

// MarkRefunded records an out-of-band refund of a confirmed booking and releases its tickets
func (s *service) MarkRefunded(ctx context.Context, bookingID uuid.UUID, actor users.Actor) (*Booking, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := CanTransition(booking.Status, StatusRefunded); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ok, err := s.transition(ctx, booking, StatusConfirmed, StatusRefunded, map[string]interface{}{"refunded_at": now})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.lostRace(ctx, bookingID, StatusRefunded)
	}
	booking.Status = StatusRefunded
	booking.RefundedAt = &now

	s.release(ctx, booking, inventory.ReasonCancellation)
	s.publish(ctx, booking, notifications.BookingEventRefunded)
	return booking, nil
}

// ExpirePending cancels reservations whose payment never completed. They hold no inventory.
func (s *service) ExpirePending(ctx context.Context, olderThan time.Time, limit int) (int, error) {
	stale, err := s.repo.FindExpiredPending(ctx, olderThan, limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range stale {
		ok, err := s.repo.TransitionUnclaimed(ctx, stale[i].ID, StatusPending, StatusCancelled, map[string]interface{}{
			"cancelled_at": time.Now().UTC(),
		})
		if err != nil {
			return expired, err
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

// transition on a pending booking also requires it to be unclaimed, so a fulfiller cannot confirm it underneath us
func (s *service) transition(ctx context.Context, booking *Booking, from, to Status, extra map[string]interface{}) (bool, error) {
	if from == StatusPending {
		return s.repo.TransitionUnclaimed(ctx, booking.ID, from, to, extra)
	}
	return s.repo.Transition(ctx, booking.ID, from, to, extra)
}

// lostRace re-reads a booking that changed between load and update and reports why
func (s *service) lostRace(ctx context.Context, bookingID uuid.UUID, to Status) error {
	current, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if err := CanTransition(current.Status, to); err != nil {
		return err
	}
	return fmt.Errorf("%w: booking changed concurrently", apperrors.ErrInvalidTransition)
}

// release credits the booking's tickets and broadcasts the new count. The credit is keyed by
// the fulfillment reference so a repeated release cannot double count.
func (s *service) release(ctx context.Context, booking *Booking, reason inventory.Reason) {
	err := s.compensator.Compensate(ctx, booking.EventID, booking.NumTickets, booking.LedgerReference(), reason)
	if err != nil {
		// parked for the reconciler, or the alert already went out
		s.log.ErrorWithContext(ctx, "Failed to release tickets", err, map[string]interface{}{
			"booking_id": booking.ID.String(),
			"order_id":   booking.PaymentOrderID,
		})
		return
	}

	available, err := s.stock.Available(ctx, booking.EventID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrEventNotFound) {
			s.log.ErrorWithContext(ctx, "Failed to read availability", err, map[string]interface{}{"event_id": booking.EventID.String()})
		}
		return
	}

	msg, err := realtime.NewMessage(realtime.TypeTicketsUpdated, booking.EventID.String(), realtime.TicketsUpdated{
		EventID:          booking.EventID.String(),
		AvailableTickets: available,
	})
	if err == nil {
		err = s.notifier.Publish(ctx, booking.EventID.String(), msg)
	}
	if err != nil {
		s.log.WarnContext(ctx, "Realtime publish failed", "event_id", booking.EventID.String(), "error", err)
	}
}

func (s *service) publish(ctx context.Context, booking *Booking, eventType notifications.BookingEventType) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishBookingEvent(ctx, BookingEventFor(booking, eventType)); err != nil {
		s.log.WarnContext(ctx, "Booking event publish failed", "booking_id", booking.ID.String(), "error", err)
	}
}

// BookingEventFor builds the lifecycle message for a booking
func BookingEventFor(booking *Booking, eventType notifications.BookingEventType) notifications.BookingEvent {
	event := notifications.NewBookingEvent(eventType)
	event.BookingID = booking.ID.String()
	event.UserID = booking.UserID.String()
	event.EventID = booking.EventID.String()
	event.OrderID = booking.PaymentOrderID
	event.NumTickets = booking.NumTickets
	event.TotalPrice = booking.TotalPrice
	event.Currency = booking.Currency
	return event
}
