package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"eventhub/internal/bookings"
	"eventhub/internal/events"
	"eventhub/internal/inventory"
	"eventhub/internal/shared/apperrors"
	"eventhub/internal/shared/database/dbtest"
	"eventhub/internal/users"
	"eventhub/pkg/cache"
	"eventhub/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	ledger  *inventory.GormLedger
	repo    events.Repository
	service events.Service
	admin   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t, &events.Event{}, &bookings.Booking{}, &inventory.Movement{}, &users.User{})
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := logger.Nop()
	f := &fixture{
		db:     db,
		ledger: inventory.NewGormLedger(db, log),
		repo:   events.NewRepository(db),
		admin:  uuid.New(),
	}
	f.service = events.NewService(f.repo, f.ledger, cache.NewService(client), log, "inr")
	f.ledger.OnChange(f.service.InvalidateStock)
	return f
}

func (f *fixture) create(t *testing.T, title string, eventType events.EventType, price int64, tickets int, in time.Duration) *events.EventResponse {
	t.Helper()
	event, err := f.service.CreateEvent(context.Background(), f.admin, events.CreateEventRequest{
		Title:            title,
		Description:      title + " description",
		Date:             time.Now().Add(in),
		Location:         "Bengaluru",
		EventType:        string(eventType),
		Price:            price,
		AvailableTickets: tickets,
	})
	require.NoError(t, err)
	return event
}

func TestCreateEvent_OpeningStockGoesThroughLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	event := f.create(t, "Tech Summit", events.EventTypeConference, 2500, 40, 48*time.Hour)
	assert.Equal(t, 40, event.AvailableTickets)
	assert.Equal(t, "INR", event.Currency)
	assert.Equal(t, f.admin.String(), event.OrganizerID)

	id := uuid.MustParse(event.ID)
	movements, err := f.ledger.Movements(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, 40, movements[0].Delta)
	assert.Equal(t, inventory.ReasonRestock, movements[0].Reason)
	assert.Equal(t, events.OpeningReference(id), movements[0].Reference)
}

func TestCreateEvent_Rejects(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateEvent(context.Background(), f.admin, events.CreateEventRequest{
		Title:    "Yesterday",
		Date:     time.Now().Add(-time.Hour),
		Location: "Goa",
	})
	assert.ErrorIs(t, err, apperrors.ErrEventInPast)

	created := f.create(t, "No tickets yet", "", 0, 0, time.Hour)
	assert.Equal(t, events.EventTypeOther, created.EventType)
	assert.Zero(t, created.AvailableTickets)
}

func TestUpdateEvent_NeverTouchesStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.create(t, "Film Fest", events.EventTypeFestival, 300, 12, 24*time.Hour)
	id := uuid.MustParse(event.ID)

	_, err := f.ledger.TryDebit(ctx, id, 2, inventory.Entry{Reason: inventory.ReasonFulfillment, Reference: "order_x"})
	require.NoError(t, err)

	title := "Film Festival 2026"
	price := int64(450)
	updated, err := f.service.UpdateEvent(ctx, id, events.UpdateEventRequest{Title: &title, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, int64(450), updated.Price)
	assert.Equal(t, 10, updated.AvailableTickets)

	// even a raw map cannot reach the counter
	_, err = f.repo.Update(ctx, id, map[string]interface{}{"available_tickets": 999, "location": "Kochi"})
	require.NoError(t, err)
	stored, err := f.repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.AvailableTickets)
	assert.Equal(t, "Kochi", stored.Location)

	_, err = f.service.UpdateEvent(ctx, uuid.New(), events.UpdateEventRequest{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
}

func TestGetEventByID_CacheInvalidatedByLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.create(t, "Derby", events.EventTypeSport, 800, 5, 24*time.Hour)
	id := uuid.MustParse(event.ID)

	first, err := f.service.GetEventByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5, first.AvailableTickets)

	// a write that bypasses the service is invisible while cached
	require.NoError(t, f.db.Model(&events.Event{}).Where("id = ?", id).Update("title", "Renamed").Error)
	cached, err := f.service.GetEventByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Derby", cached.Title)

	_, err = f.ledger.TryDebit(ctx, id, 1, inventory.Entry{Reason: inventory.ReasonFulfillment, Reference: "order_y"})
	require.NoError(t, err)

	fresh, err := f.service.GetEventByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 4, fresh.AvailableTickets)
	assert.Equal(t, "Renamed", fresh.Title)

	_, err = f.service.GetEventByID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
}

func TestGetAllEvents_Filters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "Jazz Evening", events.EventTypeConcert, 500, 10, 24*time.Hour)
	f.create(t, "Go Workshop", events.EventTypeWorkshop, 1500, 10, 48*time.Hour)
	f.create(t, "Rock Night", events.EventTypeConcert, 900, 10, 72*time.Hour)

	all, err := f.service.GetAllEvents(ctx, events.EventListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.TotalCount)
	assert.Equal(t, "Jazz Evening", all.Events[0].Title, "sorted by date")

	concerts, err := f.service.GetAllEvents(ctx, events.EventListQuery{EventType: "concert"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), concerts.TotalCount)

	minPrice := int64(800)
	pricey, err := f.service.GetAllEvents(ctx, events.EventListQuery{MinPrice: &minPrice})
	require.NoError(t, err)
	assert.Equal(t, int64(2), pricey.TotalCount)

	keyword, err := f.service.GetAllEvents(ctx, events.EventListQuery{Keyword: "WORKSHOP"})
	require.NoError(t, err)
	require.Len(t, keyword.Events, 1)
	assert.Equal(t, "Go Workshop", keyword.Events[0].Title)

	paged, err := f.service.GetAllEvents(ctx, events.EventListQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, paged.Events, 1)
	assert.Equal(t, 2, paged.TotalPages)

	// a new event must show up despite the cached listing
	f.create(t, "Late Addition", events.EventTypeOther, 100, 1, 96*time.Hour)
	all, err = f.service.GetAllEvents(ctx, events.EventListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.TotalCount)
}

func TestRestockAndMovements(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.create(t, "Expo", events.EventTypeOther, 0, 3, 24*time.Hour)
	id := uuid.MustParse(event.ID)

	restocked, err := f.service.Restock(ctx, id, events.RestockRequest{Quantity: 7})
	require.NoError(t, err)
	assert.Equal(t, 10, restocked.AvailableTickets)

	_, err = f.service.Restock(ctx, uuid.New(), events.RestockRequest{Quantity: 1})
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)

	movements, err := f.service.GetMovements(ctx, id, 0)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, 7, movements[0].Delta)
	assert.Equal(t, 10, movements[0].BalanceAfter)
}

func TestDeleteEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.create(t, "Meetup", events.EventTypeWorkshop, 0, 5, 24*time.Hour)
	id := uuid.MustParse(event.ID)

	booking := &bookings.Booking{
		UserID:         uuid.New(),
		EventID:        id,
		NumTickets:     1,
		Currency:       "INR",
		Status:         bookings.StatusPending,
		PaymentOrderID: "order_meetup",
	}
	require.NoError(t, f.db.Create(booking).Error)

	assert.ErrorIs(t, f.service.DeleteEvent(ctx, id), apperrors.ErrEventHasBookings)

	require.NoError(t, f.db.Model(booking).Update("status", bookings.StatusCancelled).Error)
	require.NoError(t, f.service.DeleteEvent(ctx, id))

	_, err := f.service.GetEventByID(ctx, id)
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
	assert.ErrorIs(t, f.service.DeleteEvent(ctx, id), apperrors.ErrEventNotFound)
}

type failingCredit struct {
	events.StockLedger
}

func (failingCredit) Credit(context.Context, uuid.UUID, int, inventory.Entry) (int, error) {
	return 0, errors.New("ledger offline")
}

func TestCreateEvent_StockFailureLeavesNoEvent(t *testing.T) {
	f := newFixture(t)
	service := events.NewService(f.repo, failingCredit{f.ledger}, nil, logger.Nop(), "INR")

	_, err := service.CreateEvent(context.Background(), f.admin, events.CreateEventRequest{
		Title:            "Half Made",
		Date:             time.Now().Add(24 * time.Hour),
		Location:         "Pune",
		AvailableTickets: 10,
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, f.db.Model(&events.Event{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetEventByID_LoadIgnoresCallerCancellation(t *testing.T) {
	f := newFixture(t)
	event := f.create(t, "Marathon", events.EventTypeSport, 0, 3, 24*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loaded, err := f.service.GetEventByID(ctx, uuid.MustParse(event.ID))
	require.NoError(t, err)
	assert.Equal(t, "Marathon", loaded.Title)
	assert.Equal(t, 3, loaded.AvailableTickets)
}

func TestGetRecommendations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	later := f.create(t, "Autumn Fest", events.EventTypeFestival, 300, 10, 72*time.Hour)
	sooner := f.create(t, "Street Food Fest", events.EventTypeFestival, 100, 10, 24*time.Hour)
	f.create(t, "Cricket Final", events.EventTypeSport, 900, 10, 48*time.Hour)
	newest := f.create(t, "Rust Workshop", events.EventTypeWorkshop, 1200, 10, 96*time.Hour)

	fan := users.User{FirstName: "Ira", LastName: "Sen", Email: "ira@example.com", Password: "x", Role: users.RoleUser,
		Interests: []string{"festival", "unknown"}}
	require.NoError(t, f.db.Create(&fan).Error)

	picks, err := f.service.GetRecommendations(ctx, fan.ID)
	require.NoError(t, err)
	assert.True(t, picks.Personalized)
	require.Len(t, picks.Events, 2)
	assert.Equal(t, sooner.ID, picks.Events[0].ID)
	assert.Equal(t, later.ID, picks.Events[1].ID)

	// no interests, or none that match, falls back to the newest listings
	for _, interests := range [][]string{nil, {"conference"}} {
		user := users.User{FirstName: "No", LastName: "Match", Email: uuid.NewString() + "@example.com", Password: "x",
			Role: users.RoleUser, Interests: interests}
		require.NoError(t, f.db.Create(&user).Error)

		general, err := f.service.GetRecommendations(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, general.Personalized)
		require.Len(t, general.Events, 4)
		assert.Equal(t, newest.ID, general.Events[0].ID)
	}

	_, err = f.service.GetRecommendations(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
