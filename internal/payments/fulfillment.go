package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eventhub/internal/bookings"
	"eventhub/internal/inventory"
	"eventhub/internal/notifications"
	"eventhub/internal/realtime"
	"eventhub/internal/shared/apperrors"
	"eventhub/pkg/logger"

	"github.com/google/uuid"
)

// Debiter is the part of the inventory ledger fulfillment needs
type Debiter interface {
	TryDebit(ctx context.Context, eventID uuid.UUID, count int, entry inventory.Entry) (int, error)
}

type Orchestrator struct {
	gateway       Gateway
	signer        *Signer
	webhookSecret string
	repo          bookings.Repository
	ledger        Debiter
	compensator   bookings.Compensator
	notifier      realtime.Notifier
	events        bookings.EventPublisher
	log           *logger.Logger
	timeout       time.Duration
}

type OrchestratorDeps struct {
	Gateway       Gateway
	Signer        *Signer
	WebhookSecret string
	Bookings      bookings.Repository
	Ledger        Debiter
	Compensator   bookings.Compensator
	Notifier      realtime.Notifier
	Events        bookings.EventPublisher
	Logger        *logger.Logger
	Timeout       time.Duration
}

func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	if deps.Timeout <= 0 {
		deps.Timeout = 10 * time.Second
	}
	return &Orchestrator{
		gateway:       deps.Gateway,
		signer:        deps.Signer,
		webhookSecret: deps.WebhookSecret,
		repo:          deps.Bookings,
		ledger:        deps.Ledger,
		compensator:   deps.Compensator,
		notifier:      deps.Notifier,
		events:        deps.Events,
		log:           deps.Logger.WithComponent("fulfillment"),
		timeout:       deps.Timeout,
	}
}

// VerifyAndFulfill checks the client's payment proof and confirms the booking bound to the order
func (o *Orchestrator) VerifyAndFulfill(ctx context.Context, userID uuid.UUID, req VerifyPaymentRequest) (*bookings.Booking, error) {
	if !o.signer.Verify(req.OrderID, req.PaymentID, req.Signature) {
		o.log.LogPaymentAudit(ctx, "signature_invalid", userID.String(), req.OrderID, map[string]interface{}{
			"payment_id": req.PaymentID,
		})
		return nil, apperrors.ErrSignatureInvalid
	}

	order, err := o.fetchOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	if order.Notes.UserID != userID.String() {
		o.log.LogPaymentAudit(ctx, "order_user_mismatch", userID.String(), req.OrderID, map[string]interface{}{
			"order_user_id": order.Notes.UserID,
		})
		return nil, apperrors.ErrOrderMismatch
	}

	return o.fulfill(ctx, order, req.PaymentID)
}

// FulfillFromWebhook handles a signed gateway webhook delivery. Deliveries for other event
// types, or for orders already confirmed, are accepted without effect.
func (o *Orchestrator) FulfillFromWebhook(ctx context.Context, body []byte, signature string) (*bookings.Booking, error) {
	if !VerifyWebhook(o.webhookSecret, body, signature) {
		o.log.LogPaymentAudit(ctx, "webhook_signature_invalid", "", "", nil)
		return nil, apperrors.ErrSignatureInvalid
	}

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode webhook: %w", apperrors.ErrOrderMismatch, err)
	}
	if payload.Event != WebhookPaymentCaptured && payload.Event != WebhookOrderPaid {
		return nil, nil
	}

	payment := payload.Payload.Payment.Entity
	orderID := payment.OrderID
	if orderID == "" {
		orderID = payload.Payload.Order.Entity.ID
	}
	if orderID == "" || payment.ID == "" {
		return nil, fmt.Errorf("%w: webhook without order or payment id", apperrors.ErrOrderMismatch)
	}

	order, err := o.fetchOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	booking, err := o.fulfill(ctx, order, payment.ID)
	if errors.Is(err, apperrors.ErrAlreadyFulfilled) {
		// the client verify call usually wins the race
		return nil, nil
	}
	return booking, err
}

func (o *Orchestrator) fetchOrder(ctx context.Context, orderID string) (*Order, error) {
	gwCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	order, err := o.gateway.FetchOrder(gwCtx, orderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrOrderMismatch) || errors.Is(err, apperrors.ErrGatewayUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", apperrors.ErrGatewayUnavailable, err)
	}
	return order, nil
}

func (o *Orchestrator) fulfill(ctx context.Context, order *Order, paymentID string) (*bookings.Booking, error) {
	booking, err := o.repo.GetByOrderID(ctx, order.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrBookingNotFound) {
			o.log.LogPaymentAudit(ctx, "unknown_order", order.Notes.UserID, order.ID, nil)
			return nil, apperrors.ErrOrderMismatch
		}
		return nil, err
	}

	if mismatch := compareOrder(booking, order); mismatch != "" {
		o.log.LogPaymentAudit(ctx, "order_details_mismatch", order.Notes.UserID, order.ID, map[string]interface{}{
			"field": mismatch,
		})
		return nil, apperrors.ErrOrderMismatch
	}

	if booking.Status != bookings.StatusPending {
		return nil, apperrors.ErrAlreadyFulfilled
	}

	token := uuid.NewString()
	claimed, err := o.repo.Claim(ctx, booking.ID, token)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// confirmed, cancelled or another request is fulfilling it right now
		return nil, apperrors.ErrAlreadyFulfilled
	}

	reference := bookings.AttemptReference(order.ID, token)
	available, err := o.ledger.TryDebit(ctx, booking.EventID, booking.NumTickets, inventory.Entry{
		Reason:    inventory.ReasonFulfillment,
		Reference: reference,
	})
	if err != nil {
		o.release(ctx, booking.ID, token)
		if errors.Is(err, apperrors.ErrInsufficientInventory) {
			// money was taken; the booking stays pending for an out-of-band refund
			o.log.LogPaymentAudit(ctx, "paid_without_inventory", booking.UserID.String(), order.ID, map[string]interface{}{
				"payment_id":  paymentID,
				"num_tickets": booking.NumTickets,
			})
		}
		return nil, err
	}

	confirmed, err := o.repo.Confirm(ctx, booking.ID, token, paymentID, order.Amount)
	if err != nil || !confirmed {
		if err == nil {
			err = errors.New("fulfillment claim lost")
		}
		bg := context.WithoutCancel(ctx)
		if compErr := o.compensator.Compensate(bg, booking.EventID, booking.NumTickets, reference, inventory.ReasonCompensation); compErr != nil {
			err = errors.Join(err, compErr)
		}
		o.release(bg, booking.ID, token)
		return nil, fmt.Errorf("%w: confirm booking %s: %w", apperrors.ErrPersistenceFailure, booking.ID, err)
	}

	now := time.Now().UTC()
	booking.Status = bookings.StatusConfirmed
	booking.PaymentID = paymentID
	booking.TotalPrice = order.Amount
	booking.FulfillmentRef = reference
	booking.ConfirmedAt = &now

	o.log.LogBookingConfirmed(ctx, booking.ID.String(), booking.EventID.String(), order.ID, available)
	o.broadcast(ctx, booking.EventID, available)
	if o.events != nil {
		if err := o.events.PublishBookingEvent(ctx, bookings.BookingEventFor(booking, notifications.BookingEventConfirmed)); err != nil {
			o.log.WarnContext(ctx, "Booking event publish failed", "booking_id", booking.ID.String(), "error", err)
		}
	}
	return booking, nil
}

// compareOrder returns the first field where the gateway order disagrees with the booking
func compareOrder(booking *bookings.Booking, order *Order) string {
	switch {
	case order.Notes.UserID != booking.UserID.String():
		return "userId"
	case order.Notes.EventID != booking.EventID.String():
		return "eventId"
	case order.Notes.NumTickets != booking.NumTickets:
		return "numTickets"
	case order.Amount != booking.TotalPrice:
		return "amount"
	case order.Currency != "" && order.Currency != booking.Currency:
		return "currency"
	}
	return ""
}

func (o *Orchestrator) release(ctx context.Context, bookingID uuid.UUID, token string) {
	if _, err := o.repo.ReleaseClaim(ctx, bookingID, token); err != nil {
		// the reconciler takes over claims that go stale
		o.log.ErrorWithContext(ctx, "Failed to release fulfillment claim", err, map[string]interface{}{
			"booking_id": bookingID.String(),
		})
	}
}

func (o *Orchestrator) broadcast(ctx context.Context, eventID uuid.UUID, available int) {
	msg, err := realtime.NewMessage(realtime.TypeTicketsUpdated, eventID.String(), realtime.TicketsUpdated{
		EventID:          eventID.String(),
		AvailableTickets: available,
	})
	if err == nil {
		err = o.notifier.Publish(ctx, eventID.String(), msg)
	}
	if err != nil {
		o.log.WarnContext(ctx, "Realtime publish failed", "event_id", eventID.String(), "error", err)
	}
}
