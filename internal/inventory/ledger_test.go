package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"eventhub/internal/events"
	"eventhub/internal/inventory"
	"eventhub/internal/shared/apperrors"
	"eventhub/internal/shared/database/dbtest"
	"eventhub/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, *inventory.GormLedger) {
	t.Helper()
	db := dbtest.Open(t, &events.Event{}, &inventory.Movement{}, &inventory.CompensationTask{})
	return db, inventory.NewGormLedger(db, logger.Nop())
}

// seedEvent creates an event at zero and stocks it through the ledger so the journal balances
func seedEvent(t *testing.T, db *gorm.DB, ledger *inventory.GormLedger, stock int) uuid.UUID {
	t.Helper()
	event := events.Event{
		Title:       "Jazz Night",
		Date:        time.Now().Add(48 * time.Hour),
		Location:    "Pune",
		EventType:   events.EventTypeConcert,
		Price:       500,
		Currency:    "INR",
		OrganizerID: uuid.New(),
	}
	require.NoError(t, db.Create(&event).Error)
	if stock > 0 {
		_, err := ledger.Credit(context.Background(), event.ID, stock, inventory.Entry{Reason: inventory.ReasonRestock, Reference: "opening:" + event.ID.String()})
		require.NoError(t, err)
	}
	return event.ID
}

func TestTryDebit(t *testing.T) {
	ctx := context.Background()
	db, ledger := setup(t)
	eventID := seedEvent(t, db, ledger, 10)

	available, err := ledger.TryDebit(ctx, eventID, 2, inventory.Entry{Reason: inventory.ReasonFulfillment, Reference: "order_1"})
	require.NoError(t, err)
	assert.Equal(t, 8, available)

	_, err = ledger.TryDebit(ctx, eventID, 9, inventory.Entry{Reason: inventory.ReasonFulfillment, Reference: "order_2"})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientInventory)

	_, err = ledger.TryDebit(ctx, eventID, 0, inventory.Entry{Reason: inventory.ReasonFulfillment, Reference: "order_3"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuantity)

	_, err = ledger.TryDebit(ctx, uuid.New(), 1, inventory.Entry{Reason: inventory.ReasonFulfillment, Reference: "order_4"})
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)

	available, err = ledger.Available(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 8, available)
}

func TestCreditUnknownEvent(t *testing.T) {
	_, ledger := setup(t)
	_, err := ledger.Credit(context.Background(), uuid.New(), 1, inventory.Entry{Reason: inventory.ReasonRestock, Reference: "x"})
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
}

func TestLastTicketGoesToExactlyOneBuyer(t *testing.T) {
	ctx := context.Background()
	db, ledger := setup(t)
	eventID := seedEvent(t, db, ledger, 1)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		shortages int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := ledger.TryDebit(ctx, eventID, 1, inventory.Entry{Reason: inventory.ReasonFulfillment, Reference: uuid.NewString()})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case assert.ErrorIs(t, err, apperrors.ErrInsufficientInventory):
				shortages++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, shortages)

	available, err := ledger.Available(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 0, available)
}

func TestCounterNeverGoesNegativeUnderContention(t *testing.T) {
	ctx := context.Background()
	db, ledger := setup(t)
	eventID := seedEvent(t, db, ledger, 10)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.TryDebit(ctx, eventID, 1, inventory.Entry{Reason: inventory.ReasonFulfillment, Reference: uuid.NewString()}); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, successes)
	available, err := ledger.Available(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 0, available)
}

func TestJournalBalancesCounter(t *testing.T) {
	ctx := context.Background()
	db, ledger := setup(t)
	eventID := seedEvent(t, db, ledger, 10)

	_, err := ledger.TryDebit(ctx, eventID, 3, inventory.Entry{Reason: inventory.ReasonFulfillment, Reference: "order_a"})
	require.NoError(t, err)
	_, err = ledger.TryDebit(ctx, eventID, 2, inventory.Entry{Reason: inventory.ReasonFulfillment, Reference: "order_b"})
	require.NoError(t, err)
	_, _, err = ledger.Reverse(ctx, eventID, 2, inventory.Entry{Reason: inventory.ReasonCancellation, Reference: "order_b"})
	require.NoError(t, err)
	_, err = ledger.Credit(ctx, eventID, 5, inventory.Entry{Reason: inventory.ReasonRestock, Reference: "restock_1"})
	require.NoError(t, err)

	var sum int
	require.NoError(t, db.Model(&inventory.Movement{}).Select("COALESCE(SUM(delta), 0)").Where("event_id = ?", eventID).Scan(&sum).Error)

	available, err := ledger.Available(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 12, available)
	assert.Equal(t, available, sum)

	movements, err := ledger.Movements(ctx, eventID, 10)
	require.NoError(t, err)
	require.Len(t, movements, 5)
	assert.Equal(t, 12, movements[0].BalanceAfter)
}

func TestReverseIsIdempotentPerReference(t *testing.T) {
	ctx := context.Background()
	db, ledger := setup(t)
	eventID := seedEvent(t, db, ledger, 10)

	_, err := ledger.TryDebit(ctx, eventID, 3, inventory.Entry{Reason: inventory.ReasonFulfillment, Reference: "order_x"})
	require.NoError(t, err)

	available, applied, err := ledger.Reverse(ctx, eventID, 3, inventory.Entry{Reason: inventory.ReasonCompensation, Reference: "order_x"})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 10, available)

	available, applied, err = ledger.Reverse(ctx, eventID, 3, inventory.Entry{Reason: inventory.ReasonCompensation, Reference: "order_x"})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 10, available)

	net, err := ledger.NetMovement(ctx, "order_x")
	require.NoError(t, err)
	assert.Equal(t, 0, net)
}

func TestReverseWithoutDebitIsNoop(t *testing.T) {
	ctx := context.Background()
	db, ledger := setup(t)
	eventID := seedEvent(t, db, ledger, 4)

	available, applied, err := ledger.Reverse(ctx, eventID, 2, inventory.Entry{Reason: inventory.ReasonCancellation, Reference: "never_debited"})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 4, available)
}

func TestChangeHookSeesCommittedBalance(t *testing.T) {
	ctx := context.Background()
	db, ledger := setup(t)
	eventID := seedEvent(t, db, ledger, 5)

	var seen []int
	ledger.OnChange(func(_ context.Context, id uuid.UUID, available int) {
		assert.Equal(t, eventID, id)
		seen = append(seen, available)
	})

	_, err := ledger.TryDebit(ctx, eventID, 2, inventory.Entry{Reason: inventory.ReasonFulfillment, Reference: "order_h"})
	require.NoError(t, err)
	_, err = ledger.TryDebit(ctx, eventID, 9, inventory.Entry{Reason: inventory.ReasonFulfillment, Reference: "order_i"})
	require.Error(t, err)

	assert.Equal(t, []int{3}, seen)
}

func TestOutstanding(t *testing.T) {
	ctx := context.Background()
	db, ledger := setup(t)
	eventID := seedEvent(t, db, ledger, 10)

	debit := func(n int, ref string) {
		_, err := ledger.TryDebit(ctx, eventID, n, inventory.Entry{Reason: inventory.ReasonFulfillment, Reference: ref})
		require.NoError(t, err)
	}
	debit(2, "order_a#t1")
	debit(1, "order_a#t2")
	debit(3, "order_ab#t1")
	debit(1, "orderXa#t1")

	_, _, err := ledger.Reverse(ctx, eventID, 1, inventory.Entry{Reason: inventory.ReasonCompensation, Reference: "order_a#t2"})
	require.NoError(t, err)

	holds, err := ledger.Outstanding(ctx, "order_a#")
	require.NoError(t, err)
	require.Len(t, holds, 1)
	assert.Equal(t, inventory.Hold{EventID: eventID, Reference: "order_a#t1", Quantity: 2}, holds[0])
}
