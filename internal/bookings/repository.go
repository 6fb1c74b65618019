package bookings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"eventhub/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists bookings. Every status change is conditional on the current
// status so concurrent writers cannot both win.
type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByOrderID(ctx context.Context, orderID string) (*Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error)

	// Transition moves id from -> to. False means the booking was no longer in from.
	Transition(ctx context.Context, id uuid.UUID, from, to Status, extra map[string]interface{}) (bool, error)
	// TransitionUnclaimed is Transition that also requires no fulfillment claim on the row
	TransitionUnclaimed(ctx context.Context, id uuid.UUID, from, to Status, extra map[string]interface{}) (bool, error)

	// Claim takes the single-use fulfillment claim on an unclaimed pending booking
	Claim(ctx context.Context, id uuid.UUID, token string) (bool, error)
	// ReplaceClaim swaps a known claim for a new one. Used to take over abandoned claims.
	ReplaceClaim(ctx context.Context, id uuid.UUID, oldToken, newToken string) (bool, error)
	ReleaseClaim(ctx context.Context, id uuid.UUID, token string) (bool, error)
	// Confirm completes pending -> confirmed for the holder of token
	Confirm(ctx context.Context, id uuid.UUID, token, paymentID string, totalPrice int64) (bool, error)

	FindStaleClaims(ctx context.Context, before time.Time, limit int) ([]Booking, error)
	FindExpiredPending(ctx context.Context, before time.Time, limit int) ([]Booking, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, booking *Booking) error {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return fmt.Errorf("%w: create booking: %w", apperrors.ErrPersistenceFailure, err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *repository) GetByOrderID(ctx context.Context, orderID string) (*Booking, error) {
	return r.first(ctx, "payment_order_id = ?", orderID)
}

func (r *repository) first(ctx context.Context, where string, arg interface{}) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where(where, arg).Take(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, fmt.Errorf("%w: load booking: %w", apperrors.ErrPersistenceFailure, err)
	}
	return &booking, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	var (
		bookings   []Booking
		totalCount int64
	)

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	base := r.applyFilters(r.db.WithContext(ctx).Model(&Booking{}).Where("user_id = ?", userID), query)
	if err := base.Count(&totalCount).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: count bookings: %w", apperrors.ErrPersistenceFailure, err)
	}

	err := base.
		Order("created_at DESC").
		Offset((query.Page - 1) * query.Limit).
		Limit(query.Limit).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list bookings: %w", apperrors.ErrPersistenceFailure, err)
	}
	return bookings, totalCount, nil
}

func (r *repository) Transition(ctx context.Context, id uuid.UUID, from, to Status, extra map[string]interface{}) (bool, error) {
	return r.transition(r.db.WithContext(ctx), id, from, to, extra)
}

func (r *repository) TransitionUnclaimed(ctx context.Context, id uuid.UUID, from, to Status, extra map[string]interface{}) (bool, error) {
	return r.transition(r.db.WithContext(ctx).Where("claim_token = ''"), id, from, to, extra)
}

func (r *repository) transition(db *gorm.DB, id uuid.UUID, from, to Status, extra map[string]interface{}) (bool, error) {
	if err := CanTransition(from, to); err != nil {
		return false, err
	}

	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	res := db.Model(&Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("%w: transition booking: %w", apperrors.ErrPersistenceFailure, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Claim(ctx context.Context, id uuid.UUID, token string) (bool, error) {
	return r.swapClaim(ctx, id, "", token)
}

func (r *repository) ReplaceClaim(ctx context.Context, id uuid.UUID, oldToken, newToken string) (bool, error) {
	if oldToken == "" {
		return false, nil
	}
	return r.swapClaim(ctx, id, oldToken, newToken)
}

func (r *repository) swapClaim(ctx context.Context, id uuid.UUID, oldToken, newToken string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND status = ? AND claim_token = ?", id, StatusPending, oldToken).
		Updates(map[string]interface{}{"claim_token": newToken, "claimed_at": time.Now().UTC()})
	if res.Error != nil {
		return false, fmt.Errorf("%w: claim booking: %w", apperrors.ErrPersistenceFailure, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ReleaseClaim(ctx context.Context, id uuid.UUID, token string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND claim_token = ?", id, token).
		Updates(map[string]interface{}{"claim_token": "", "claimed_at": nil})
	if res.Error != nil {
		return false, fmt.Errorf("%w: release claim: %w", apperrors.ErrPersistenceFailure, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Confirm(ctx context.Context, id uuid.UUID, token, paymentID string, totalPrice int64) (bool, error) {
	if token == "" {
		return false, nil
	}
	var booking Booking
	if err := r.db.WithContext(ctx).Select("payment_order_id").Where("id = ?", id).Take(&booking).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: confirm booking: %w", apperrors.ErrPersistenceFailure, err)
	}

	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND status = ? AND claim_token = ?", id, StatusPending, token).
		Updates(map[string]interface{}{
			"status":          StatusConfirmed,
			"payment_id":      paymentID,
			"total_price":     totalPrice,
			"fulfillment_ref": AttemptReference(booking.PaymentOrderID, token),
			"confirmed_at":    now,
			"claim_token":     "",
			"claimed_at":      nil,
		})
	if res.Error != nil {
		return false, fmt.Errorf("%w: confirm booking: %w", apperrors.ErrPersistenceFailure, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindStaleClaims(ctx context.Context, before time.Time, limit int) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND claim_token <> '' AND claimed_at < ?", StatusPending, before).
		Order("claimed_at ASC").
		Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("%w: find stale claims: %w", apperrors.ErrPersistenceFailure, err)
	}
	return bookings, nil
}

func (r *repository) FindExpiredPending(ctx context.Context, before time.Time, limit int) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND claim_token = '' AND created_at < ?", StatusPending, before).
		Order("created_at ASC").
		Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("%w: find expired bookings: %w", apperrors.ErrPersistenceFailure, err)
	}
	return bookings, nil
}

// applyFilters applies query filters to the GORM query
func (r *repository) applyFilters(query *gorm.DB, filters BookingListQuery) *gorm.DB {
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}

	if filters.EventID != "" {
		if eventID, err := uuid.Parse(filters.EventID); err == nil {
			query = query.Where("event_id = ?", eventID)
		}
	}

	if filters.DateFrom != "" {
		if dateFrom, err := time.Parse("2006-01-02", filters.DateFrom); err == nil {
			query = query.Where("created_at >= ?", dateFrom)
		}
	}

	if filters.DateTo != "" {
		if dateTo, err := time.Parse("2006-01-02", filters.DateTo); err == nil {
			query = query.Where("created_at < ?", dateTo.Add(24*time.Hour))
		}
	}

	return query
}

func CalculateTotalPages(totalCount int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(totalCount) / float64(limit)))
}
