package bookings_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"eventhub/internal/bookings"
	"eventhub/internal/events"
	"eventhub/internal/inventory"
	"eventhub/internal/notifications"
	"eventhub/internal/realtime"
	"eventhub/internal/shared/apperrors"
	"eventhub/internal/shared/database/dbtest"
	"eventhub/internal/users"
	"eventhub/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	events []notifications.BookingEvent
}

func (p *recordingPublisher) PublishBookingEvent(ctx context.Context, event notifications.BookingEvent) error {
	p.events = append(p.events, event)
	return nil
}

type fixture struct {
	db        *gorm.DB
	ledger    *inventory.GormLedger
	repo      bookings.Repository
	hub       *realtime.Hub
	published *recordingPublisher
	service   bookings.Service
	eventID   uuid.UUID
	owner     users.Actor
}

func newFixture(t *testing.T, stock int) *fixture {
	t.Helper()
	db := dbtest.Open(t, &events.Event{}, &bookings.Booking{}, &inventory.Movement{}, &inventory.CompensationTask{})
	log := logger.Nop()
	ledger := inventory.NewGormLedger(db, log)
	compensator := inventory.NewCompensator(ledger, db, log, nil, inventory.CompensatorConfig{MaxAttempts: 2, Backoff: time.Millisecond})

	event := events.Event{
		Title:       "Jazz Night",
		Date:        time.Now().Add(72 * time.Hour),
		Location:    "Pune",
		EventType:   events.EventTypeConcert,
		Price:       500,
		Currency:    "INR",
		OrganizerID: uuid.New(),
	}
	require.NoError(t, db.Create(&event).Error)
	_, err := ledger.Credit(context.Background(), event.ID, stock, inventory.Entry{Reason: inventory.ReasonRestock, Reference: "opening:" + event.ID.String()})
	require.NoError(t, err)

	f := &fixture{
		db:        db,
		ledger:    ledger,
		repo:      bookings.NewRepository(db),
		hub:       realtime.NewHub(),
		published: &recordingPublisher{},
		eventID:   event.ID,
		owner:     users.Actor{ID: uuid.New(), Role: users.RoleUser},
	}
	f.service = bookings.NewService(f.repo, compensator, ledger, f.hub, f.published, log)
	return f
}

// confirmed creates a booking that has already debited n tickets under its order id
func (f *fixture) confirmed(t *testing.T, n int) *bookings.Booking {
	t.Helper()
	orderID := "order_" + uuid.NewString()[:8]
	_, err := f.ledger.TryDebit(context.Background(), f.eventID, n, inventory.Entry{Reason: inventory.ReasonFulfillment, Reference: orderID})
	require.NoError(t, err)

	now := time.Now().UTC()
	booking := &bookings.Booking{
		UserID:         f.owner.ID,
		EventID:        f.eventID,
		NumTickets:     n,
		TotalPrice:     int64(n) * 500,
		Currency:       "INR",
		Status:         bookings.StatusConfirmed,
		PaymentOrderID: orderID,
		FulfillmentRef: orderID,
		ConfirmedAt:    &now,
	}
	require.NoError(t, f.repo.Create(context.Background(), booking))
	return booking
}

func (f *fixture) pending(t *testing.T, n int) *bookings.Booking {
	t.Helper()
	booking := &bookings.Booking{
		UserID:         f.owner.ID,
		EventID:        f.eventID,
		NumTickets:     n,
		TotalPrice:     int64(n) * 500,
		Currency:       "INR",
		Status:         bookings.StatusPending,
		PaymentOrderID: "order_" + uuid.NewString()[:8],
	}
	require.NoError(t, f.repo.Create(context.Background(), booking))
	return booking
}

func TestCancel_ConfirmedReturnsTickets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10)
	booking := f.confirmed(t, 2)

	available, err := f.ledger.Available(ctx, f.eventID)
	require.NoError(t, err)
	require.Equal(t, 8, available)

	sub := f.hub.Subscribe(f.eventID.String())
	defer f.hub.Unsubscribe(sub)

	cancelled, err := f.service.Cancel(ctx, booking.ID, f.owner)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusCancelled, cancelled.Status)
	assert.True(t, cancelled.ToResponse().IsCancelled)
	assert.NotNil(t, cancelled.CancelledAt)

	available, err = f.ledger.Available(ctx, f.eventID)
	require.NoError(t, err)
	assert.Equal(t, 10, available)

	select {
	case msg := <-sub.C():
		var payload realtime.TicketsUpdated
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, 10, payload.AvailableTickets)
	case <-time.After(time.Second):
		t.Fatal("no realtime update")
	}

	require.Len(t, f.published.events, 1)
	assert.Equal(t, notifications.BookingEventCancelled, f.published.events[0].Type)
}

func TestCancel_TwiceHasNoInventoryEffect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10)
	booking := f.confirmed(t, 3)

	_, err := f.service.Cancel(ctx, booking.ID, f.owner)
	require.NoError(t, err)

	_, err = f.service.Cancel(ctx, booking.ID, f.owner)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyCancelled)

	available, err := f.ledger.Available(ctx, f.eventID)
	require.NoError(t, err)
	assert.Equal(t, 10, available)
}

func TestCancel_PendingHoldsNoInventory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10)
	booking := f.pending(t, 4)

	cancelled, err := f.service.Cancel(ctx, booking.ID, f.owner)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusCancelled, cancelled.Status)

	available, err := f.ledger.Available(ctx, f.eventID)
	require.NoError(t, err)
	assert.Equal(t, 10, available)
	assert.Empty(t, f.published.events)
}

func TestCancel_PendingWhileClaimed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10)
	booking := f.pending(t, 1)

	ok, err := f.repo.Claim(ctx, booking.ID, "token-1")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.service.Cancel(ctx, booking.ID, f.owner)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestCancel_OtherUsersBooking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10)
	booking := f.confirmed(t, 1)

	stranger := users.Actor{ID: uuid.New(), Role: users.RoleUser}
	_, err := f.service.Cancel(ctx, booking.ID, stranger)
	assert.ErrorIs(t, err, apperrors.ErrBookingNotFound)

	admin := users.Actor{ID: uuid.New(), Role: users.RoleAdmin}
	_, err = f.service.Cancel(ctx, booking.ID, admin)
	assert.NoError(t, err)
}

func TestMarkRefunded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10)
	booking := f.confirmed(t, 2)

	_, err := f.service.MarkRefunded(ctx, booking.ID, f.owner)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	admin := users.Actor{ID: uuid.New(), Role: users.RoleAdmin}
	refunded, err := f.service.MarkRefunded(ctx, booking.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusRefunded, refunded.Status)
	assert.False(t, refunded.ToResponse().IsCancelled)

	available, err := f.ledger.Available(ctx, f.eventID)
	require.NoError(t, err)
	assert.Equal(t, 10, available)

	_, err = f.service.Cancel(ctx, booking.ID, f.owner)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyCancelled)

	// cancelling already returned the tickets, so there is nothing left to refund
	cancelled := f.confirmed(t, 1)
	_, err = f.service.Cancel(ctx, cancelled.ID, f.owner)
	require.NoError(t, err)
	_, err = f.service.MarkRefunded(ctx, cancelled.ID, admin)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	available, err = f.ledger.Available(ctx, f.eventID)
	require.NoError(t, err)
	assert.Equal(t, 10, available)
}

func TestExpirePending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10)
	old := f.pending(t, 1)
	claimed := f.pending(t, 1)
	fresh := f.pending(t, 1)

	past := time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, f.db.Model(&bookings.Booking{}).Where("id IN ?", []uuid.UUID{old.ID, claimed.ID}).Update("created_at", past).Error)
	ok, err := f.repo.Claim(ctx, claimed.ID, "token")
	require.NoError(t, err)
	require.True(t, ok)

	n, err := f.service.ExpirePending(ctx, time.Now().UTC().Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.repo.GetByID(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusCancelled, got.Status)

	got, err = f.repo.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusPending, got.Status)
}

func TestListUserBookings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 20)
	f.confirmed(t, 1)
	f.confirmed(t, 1)
	f.pending(t, 1)

	page, err := f.service.ListUserBookings(ctx, f.owner.ID, bookings.BookingListQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalCount)
	assert.Len(t, page.Bookings, 2)
	assert.Equal(t, 2, page.TotalPages)

	confirmed, err := f.service.ListUserBookings(ctx, f.owner.ID, bookings.BookingListQuery{Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), confirmed.TotalCount)
}
