package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventhub/internal/bookings"
	"eventhub/internal/events"
	"eventhub/internal/shared/apperrors"
	"eventhub/pkg/logger"

	"github.com/google/uuid"
)

// EventReader loads the authoritative price and stock of an event
type EventReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*events.Event, error)
}

// OrderService opens a gateway order for a reservation and records the pending booking bound to it
type OrderService struct {
	events  EventReader
	repo    bookings.Repository
	gateway Gateway
	log     *logger.Logger
	timeout time.Duration
}

func NewOrderService(events EventReader, repo bookings.Repository, gateway Gateway, log *logger.Logger, timeout time.Duration) *OrderService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OrderService{
		events:  events,
		repo:    repo,
		gateway: gateway,
		log:     log.WithComponent("payment-orders"),
		timeout: timeout,
	}
}

func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	if req.NumTickets < 1 {
		return nil, apperrors.ErrInvalidQuantity
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, apperrors.ErrEventNotFound
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	amount := event.Price * int64(req.NumTickets)
	currency := event.Currency
	if req.Currency != "" && !strings.EqualFold(req.Currency, currency) {
		s.log.LogPaymentAudit(ctx, "currency_mismatch", userID.String(), "", map[string]interface{}{
			"event_id": req.EventID,
			"expected": currency,
			"received": req.Currency,
		})
		return nil, apperrors.ErrAmountMismatch
	}
	if req.Amount != nil && *req.Amount != amount {
		s.log.LogPaymentAudit(ctx, "amount_mismatch", userID.String(), "", map[string]interface{}{
			"event_id":    req.EventID,
			"num_tickets": req.NumTickets,
			"expected":    amount,
			"received":    *req.Amount,
		})
		return nil, apperrors.ErrAmountMismatch
	}

	// advisory only; the debit happens at fulfillment
	if event.AvailableTickets < req.NumTickets {
		return nil, apperrors.ErrInsufficientInventory
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	receipt := "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
	order, err := s.gateway.CreateOrder(gwCtx, OrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Notes: OrderNotes{
			UserID:     userID.String(),
			EventID:    event.ID.String(),
			NumTickets: req.NumTickets,
		},
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrGatewayUnavailable) {
			err = fmt.Errorf("%w: %w", apperrors.ErrGatewayUnavailable, err)
		}
		return nil, err
	}

	booking := &bookings.Booking{
		UserID:         userID,
		EventID:        event.ID,
		NumTickets:     req.NumTickets,
		TotalPrice:     amount,
		Currency:       currency,
		Status:         bookings.StatusPending,
		PaymentOrderID: order.ID,
		Receipt:        receipt,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.log.LogBookingCreated(ctx, booking.ID.String(), event.ID.String(), userID.String(), order.ID)

	return &OrderResponse{
		OrderID:   order.ID,
		Amount:    order.Amount,
		Currency:  order.Currency,
		KeyID:     s.gateway.KeyID(),
		BookingID: booking.ID.String(),
	}, nil
}
